package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/meetups/internal/cli"
	"horse.fit/meetups/internal/config"
	"horse.fit/meetups/internal/cover"
	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/logging"
	"horse.fit/meetups/internal/meetup"
	"horse.fit/meetups/internal/metrics"
	"horse.fit/meetups/internal/sources"
)

// session bundles what every database-backed command needs.
type session struct {
	cfg    *config.Config
	logger zerolog.Logger
	pool   *db.Pool
}

func (r *session) Close() {
	if r == nil || r.pool == nil {
		return
	}
	_ = r.pool.Close()
}

func loadEnv(envLoader *cli.EnvLoader) {
	if envLoader == nil {
		return
	}
	if _, err := envLoader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}

func loadConfigAndLogger(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	loadEnv(envLoader)

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// openSession loads configuration and connects to the database within connectTimeout.
func openSession(envLoader *cli.EnvLoader, connectTimeout time.Duration) (*session, error) {
	cfg, logger, err := loadConfigAndLogger(envLoader)
	if err != nil {
		return nil, err
	}

	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &session{cfg: cfg, logger: logger, pool: pool}, nil
}

// buildService wires provider clients, the cover pipeline and the store into a meetup.Service.
func buildService(cfg *config.Config, pool *db.Pool, sink metrics.Sink, logger zerolog.Logger) (*meetup.Service, *cover.LocalUploader, error) {
	uploader, err := cover.NewLocalUploader(cfg.CoverUploadDir, cfg.CoverPublicBaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("create cover uploader: %w", err)
	}
	processor, err := cover.NewProcessor(cover.Options{
		Uploader:      uploader,
		Folder:        cover.DefaultFolder,
		ResizePercent: cfg.CoverResizePercent,
		MaxBytes:      cfg.CoverMaxBytes,
		Timeout:       cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create cover processor: %w", err)
	}

	events := sources.NewSymplaClient(sources.SymplaOptions{
		Endpoint: cfg.SymplaEndpoint,
		Token:    cfg.SymplaToken,
		Timeout:  cfg.ProviderTimeout,
	})
	videos := sources.NewYouTubeClient(sources.YouTubeOptions{
		Endpoint:   cfg.YouTubeEndpoint,
		Token:      cfg.YouTubeToken,
		ChannelID:  cfg.YouTubeChannelID,
		MaxResults: cfg.YouTubeMaxResults,
		Timeout:    cfg.ProviderTimeout,
	})

	if sink == nil {
		sink = metrics.NewNoopSink()
	}

	service := meetup.NewService(pool, events, videos, processor, meetup.Options{
		Enabled:          cfg.SyncActive,
		Source:           sources.SymplaProvider,
		Threshold:        cfg.MatchThreshold,
		Location:         cfg.EventLocation(),
		CoverConcurrency: cfg.CoverConcurrency,
		Metrics:          sink,
		Ledger:           pool,
	}, logger)

	return service, uploader, nil
}
