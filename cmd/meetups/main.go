package main

import (
	"os"

	"horse.fit/meetups/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
