package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Environment:        "local",
		LogLevel:           "info",
		DatabaseURL:        "postgres://localhost/meetups",
		DBMinConns:         1,
		DBMaxConns:         8,
		SymplaEndpoint:     "https://api.sympla.com.br/public/v3/events",
		YouTubeEndpoint:    "https://youtube.googleapis.com/youtube/v3/search",
		YouTubeChannelID:   "UCPEWmRDlhOJHac6Fk-MwGBQ",
		YouTubeMaxResults:  50,
		ProviderTimeout:    20 * time.Second,
		MatchThreshold:     0.85,
		EventTimezone:      "America/Sao_Paulo",
		CoverUploadDir:     "uploads",
		CoverPublicBaseURL: "http://localhost:8090/uploads",
		CoverResizePercent: 50,
		CoverMaxBytes:      1 << 20,
		CoverConcurrency:   4,
		SyncTimezone:       "UTC",
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestValidate_ActiveRequiresProviderTokens(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SyncActive = true
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "SYMPLA_TOKEN") {
		t.Fatalf("expected SYMPLA_TOKEN error, got %v", err)
	}

	cfg.SymplaToken = "sympla-token"
	err = cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "YOUTUBE_TOKEN") {
		t.Fatalf("expected YOUTUBE_TOKEN error, got %v", err)
	}

	cfg.YouTubeToken = "youtube-token"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected active config with tokens to be valid, got %v", err)
	}
}

func TestValidate_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Parallel()

	for _, threshold := range []float64{0, -0.1, 1.01} {
		cfg := validConfig()
		cfg.MatchThreshold = threshold
		if err := cfg.Validate(); err == nil {
			t.Fatalf("expected threshold %v to be rejected", threshold)
		}
	}
}

func TestValidate_RejectsUnknownTimezone(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.EventTimezone = "Mars/Olympus_Mons"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected invalid EVENT_TIMEZONE to be rejected")
	}
}

func TestValidate_RejectsRelativeEndpoint(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.SymplaEndpoint = "/public/v3/events"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected relative SYMPLA_ENDPOINT to be rejected")
	}
}

func TestEventLocation(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	if got := cfg.EventLocation().String(); got != "America/Sao_Paulo" {
		t.Fatalf("unexpected event location: got %q want %q", got, "America/Sao_Paulo")
	}

	var nilCfg *Config
	if got := nilCfg.EventLocation(); got != time.UTC {
		t.Fatalf("expected UTC for nil config, got %v", got)
	}
}
