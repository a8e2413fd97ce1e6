package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	DBMinConns  int32  `envconfig:"DB_MIN_CONNS" default:"1"`
	DBMaxConns  int32  `envconfig:"DB_MAX_CONNS" default:"8"`

	SyncActive bool `envconfig:"MEETUP_SYNC_ACTIVE" default:"false"`

	SymplaToken    string `envconfig:"SYMPLA_TOKEN" default:""`
	SymplaEndpoint string `envconfig:"SYMPLA_ENDPOINT" default:"https://api.sympla.com.br/public/v3/events"`

	YouTubeToken      string `envconfig:"YOUTUBE_TOKEN" default:""`
	YouTubeEndpoint   string `envconfig:"YOUTUBE_ENDPOINT" default:"https://youtube.googleapis.com/youtube/v3/search"`
	YouTubeChannelID  string `envconfig:"YOUTUBE_CHANNEL_ID" default:"UCPEWmRDlhOJHac6Fk-MwGBQ"`
	YouTubeMaxResults int    `envconfig:"YOUTUBE_MAX_RESULTS" default:"50"`

	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"20s"`
	MatchThreshold  float64       `envconfig:"MATCH_THRESHOLD" default:"0.85"`
	EventTimezone   string        `envconfig:"EVENT_TIMEZONE" default:"America/Sao_Paulo"`

	CoverUploadDir     string `envconfig:"COVER_UPLOAD_DIR" default:"uploads"`
	CoverPublicBaseURL string `envconfig:"COVER_PUBLIC_BASE_URL" default:"http://localhost:8090/uploads"`
	CoverResizePercent int    `envconfig:"COVER_RESIZE_PERCENT" default:"50"`
	CoverMaxBytes      int64  `envconfig:"COVER_MAX_BYTES" default:"10485760"`
	CoverConcurrency   int    `envconfig:"COVER_CONCURRENCY" default:"4"`

	SyncCron     string `envconfig:"SYNC_CRON" default:""`
	SyncTimezone string `envconfig:"SYNC_TIMEZONE" default:"UTC"`

	AdminAPIKeyHash string `envconfig:"ADMIN_API_KEY_HASH" default:""`
	MetricsEnabled  bool   `envconfig:"METRICS_ENABLED" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be >= 0")
	}
	if c.DBMaxConns < 1 {
		return fmt.Errorf("DB_MAX_CONNS must be >= 1")
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) cannot exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	if c.SyncActive {
		if strings.TrimSpace(c.SymplaToken) == "" {
			return fmt.Errorf("SYMPLA_TOKEN is required when MEETUP_SYNC_ACTIVE is true")
		}
		if strings.TrimSpace(c.YouTubeToken) == "" {
			return fmt.Errorf("YOUTUBE_TOKEN is required when MEETUP_SYNC_ACTIVE is true")
		}
	}
	if err := validateAbsoluteURL("SYMPLA_ENDPOINT", c.SymplaEndpoint); err != nil {
		return err
	}
	if err := validateAbsoluteURL("YOUTUBE_ENDPOINT", c.YouTubeEndpoint); err != nil {
		return err
	}
	if strings.TrimSpace(c.YouTubeChannelID) == "" {
		return fmt.Errorf("YOUTUBE_CHANNEL_ID is required")
	}
	if c.YouTubeMaxResults < 1 || c.YouTubeMaxResults > 50 {
		return fmt.Errorf("YOUTUBE_MAX_RESULTS must be between 1 and 50")
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be > 0")
	}
	if c.MatchThreshold <= 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("MATCH_THRESHOLD must be in (0, 1], got %v", c.MatchThreshold)
	}
	if _, err := time.LoadLocation(strings.TrimSpace(c.EventTimezone)); err != nil {
		return fmt.Errorf("EVENT_TIMEZONE %q is invalid: %w", c.EventTimezone, err)
	}

	if strings.TrimSpace(c.CoverUploadDir) == "" {
		return fmt.Errorf("COVER_UPLOAD_DIR is required")
	}
	if err := validateAbsoluteURL("COVER_PUBLIC_BASE_URL", c.CoverPublicBaseURL); err != nil {
		return err
	}
	if c.CoverResizePercent < 1 || c.CoverResizePercent > 100 {
		return fmt.Errorf("COVER_RESIZE_PERCENT must be between 1 and 100")
	}
	if c.CoverMaxBytes < 1 {
		return fmt.Errorf("COVER_MAX_BYTES must be >= 1")
	}
	if c.CoverConcurrency < 1 {
		return fmt.Errorf("COVER_CONCURRENCY must be >= 1")
	}

	if _, err := time.LoadLocation(strings.TrimSpace(c.SyncTimezone)); err != nil {
		return fmt.Errorf("SYNC_TIMEZONE %q is invalid: %w", c.SyncTimezone, err)
	}
	return nil
}

// EventLocation resolves the zone used for provider dates without an offset.
func (c *Config) EventLocation() *time.Location {
	if c == nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.EventTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) SyncLocation() *time.Location {
	if c == nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(strings.TrimSpace(c.SyncTimezone))
	if err != nil {
		return time.UTC
	}
	return loc
}

func validateAbsoluteURL(name, raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf("%s is required", name)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must use http or https", name)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
