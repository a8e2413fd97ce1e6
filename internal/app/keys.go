package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"horse.fit/meetups/internal/auth"
)

func runHashKey(args []string) int {
	fs := flag.NewFlagSet("hash-key", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	key := fs.String("key", "", "Existing key to hash (a new one is generated when empty)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	plain := strings.TrimSpace(*key)
	if plain == "" {
		generated, err := auth.GenerateAPIKey()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate key: %v\n", err)
			return 1
		}
		plain = generated
	}

	hash, err := auth.HashAPIKey(plain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash key: %v\n", err)
		return 1
	}

	fmt.Printf("key: %s\n", plain)
	fmt.Printf("ADMIN_API_KEY_HASH=%s\n", hash)
	fmt.Fprintln(os.Stderr, "Send the key in the X-Admin-Key header; store only the hash in configuration.")
	return 0
}
