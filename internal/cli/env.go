package cli

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// envOverrideVars name files that win over the --env flag, in order.
var envOverrideVars = []string{"MEETUPS_ENV_FILE", "HORSE_ENV_FILE"}

// EnvLoader loads a .env file chosen from the override variables, the --env
// flag, the flag's basename and finally the default path.
type EnvLoader struct {
	value       *string
	defaultPath string
}

// AddEnvFlag registers --env on fs.
func AddEnvFlag(fs *flag.FlagSet, defaultPath, description string) *EnvLoader {
	if fs == nil {
		fs = flag.CommandLine
	}
	defaultPath = strings.TrimSpace(defaultPath)
	if defaultPath == "" {
		defaultPath = ".env"
	}
	if description == "" {
		description = "Path to the .env file"
	}

	return &EnvLoader{
		value:       fs.String("env", defaultPath, description),
		defaultPath: defaultPath,
	}
}

type envCandidate struct {
	path     string
	origin   string
	override bool
}

func (l *EnvLoader) requested() string {
	if l.value != nil {
		if v := strings.TrimSpace(*l.value); v != "" {
			return v
		}
	}
	return l.defaultPath
}

func (l *EnvLoader) candidates() []envCandidate {
	var out []envCandidate
	for _, name := range envOverrideVars {
		if custom := strings.TrimSpace(os.Getenv(name)); custom != "" {
			out = append(out, envCandidate{path: custom, origin: name, override: true})
		}
	}

	requested := l.requested()
	out = append(out, envCandidate{path: requested, origin: "--env"})
	if base := filepath.Base(requested); base != "" && base != requested {
		out = append(out, envCandidate{path: base, origin: "basename fallback"})
	}
	if requested != l.defaultPath {
		out = append(out, envCandidate{path: l.defaultPath, origin: "default"})
	}
	return out
}

// Load overlays the first readable candidate onto the process environment
// and returns its path.
func (l *EnvLoader) Load() (string, error) {
	if l == nil {
		return "", fmt.Errorf("env loader is nil")
	}

	log.SetOutput(os.Stderr)
	for _, candidate := range l.candidates() {
		if err := godotenv.Overload(candidate.path); err != nil {
			if candidate.override {
				log.Printf("Warning: failed to load %s=%s", candidate.origin, candidate.path)
			}
			continue
		}
		log.Printf("Loaded environment from %s: %s", candidate.origin, candidate.path)
		return candidate.path, nil
	}
	return "", fmt.Errorf("failed to load env file from %s", l.requested())
}
