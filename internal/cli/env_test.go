package cli

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestEnvLoader_LoadsRequestedFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "meetups.env")
	if err := os.WriteFile(envPath, []byte("MEETUPS_CLI_TEST_VALUE=loaded\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MEETUPS_ENV_FILE", "")
	t.Setenv("HORSE_ENV_FILE", "")
	t.Setenv("MEETUPS_CLI_TEST_VALUE", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, ".env", "")
	if err := fs.Parse([]string{"--env", envPath}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if loaded != envPath {
		t.Fatalf("unexpected loaded path: got %q want %q", loaded, envPath)
	}
	if got := os.Getenv("MEETUPS_CLI_TEST_VALUE"); got != "loaded" {
		t.Fatalf("unexpected env value: got %q want %q", got, "loaded")
	}
}

func TestEnvLoader_MissingFileReturnsError(t *testing.T) {
	t.Setenv("MEETUPS_ENV_FILE", "")
	t.Setenv("HORSE_ENV_FILE", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	missing := filepath.Join(t.TempDir(), "missing.env")
	loader := AddEnvFlag(fs, missing, "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	if _, err := loader.Load(); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}

func TestEnvLoader_NilLoader(t *testing.T) {
	t.Parallel()

	var loader *EnvLoader
	if _, err := loader.Load(); err == nil {
		t.Fatalf("expected error for nil loader")
	}
}

func TestEnvLoader_OverrideVariableWins(t *testing.T) {
	dir := t.TempDir()
	overridePath := filepath.Join(dir, "override.env")
	if err := os.WriteFile(overridePath, []byte("MEETUPS_CLI_OVERRIDE=override\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("MEETUPS_ENV_FILE", overridePath)
	t.Setenv("HORSE_ENV_FILE", "")
	t.Setenv("MEETUPS_CLI_OVERRIDE", "")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	loader := AddEnvFlag(fs, filepath.Join(dir, "missing.env"), "")
	if err := fs.Parse(nil); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	loaded, err := loader.Load()
	if err != nil {
		t.Fatalf("load env: %v", err)
	}
	if loaded != overridePath {
		t.Fatalf("unexpected loaded path: got %q want %q", loaded, overridePath)
	}
	if got := os.Getenv("MEETUPS_CLI_OVERRIDE"); got != "override" {
		t.Fatalf("unexpected env value: got %q", got)
	}
}
