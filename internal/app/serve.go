package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"horse.fit/meetups/internal/cli"
	"horse.fit/meetups/internal/httpapi"
	"horse.fit/meetups/internal/meetup"
	"horse.fit/meetups/internal/metrics"
	"horse.fit/meetups/internal/scheduler"
	"horse.fit/meetups/internal/synclock"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	host := fs.String("host", "0.0.0.0", "Host interface to bind")
	port := fs.Int("port", 8090, "HTTP port")
	readTimeout := fs.Duration("read-timeout", 10*time.Second, "HTTP read timeout")
	writeTimeout := fs.Duration("write-timeout", 2*time.Minute, "HTTP write timeout")
	shutdownTimeout := fs.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	syncTimeout := fs.Duration("sync-timeout", 10*time.Minute, "Timeout for one scheduled sync")
	lockFile := fs.String("lock-file", synclock.DefaultPath(), "Host-level lock file shared with the sync command")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *port <= 0 || *port > 65535 {
		fmt.Fprintln(os.Stderr, "--port must be between 1 and 65535")
		return 2
	}
	if *syncTimeout <= 0 {
		fmt.Fprintln(os.Stderr, "--sync-timeout must be > 0")
		return 2
	}

	sess, err := openSession(envLoader, 10*time.Second)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer sess.Close()
	cfg, logger := sess.cfg, sess.logger

	var (
		sink           metrics.Sink = metrics.NewNoopSink()
		metricsHandler http.Handler
	)
	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		sink = metrics.NewPrometheusSink(reg, logger)
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	service, uploader, err := buildService(cfg, sess.pool, sink, logger)
	if err != nil {
		logger.Error().Err(err).Msg("serve failed to build meetup service")
		fmt.Fprintf(os.Stderr, "Failed to build meetup service: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sched *scheduler.Scheduler
	if spec := strings.TrimSpace(cfg.SyncCron); spec != "" {
		sched, err = scheduler.New(spec, cfg.SyncLocation(), scheduledSync(service, *lockFile, *syncTimeout, logger), logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid SYNC_CRON: %v\n", err)
			return 2
		}
		logger.Info().
			Str("cron", spec).
			Bool("sync_enabled", service.Enabled()).
			Msg("sync schedule configured")
	}

	srv := httpapi.NewServer(service, logger, httpapi.Options{
		Host:            *host,
		Port:            *port,
		ReadTimeout:     *readTimeout,
		WriteTimeout:    *writeTimeout,
		ShutdownTimeout: *shutdownTimeout,
		AdminAPIKeyHash: cfg.AdminAPIKeyHash,
		UploadDir:       uploader.Dir(),
		MetricsHandler:  metricsHandler,
		SyncLockFile:    *lockFile,
		SyncTimeout:     *syncTimeout,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	if sched != nil {
		g.Go(func() error {
			return sched.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Str("host", *host).Int("port", *port).Msg("server failed")
		fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
		return 1
	}
	return 0
}

// scheduledSync runs one sync per tick, skipping the tick when another process holds the lock.
func scheduledSync(service *meetup.Service, lockFile string, timeout time.Duration, logger zerolog.Logger) scheduler.Job {
	return func(ctx context.Context) {
		if !service.Enabled() {
			logger.Debug().Msg("scheduled sync skipped: sync disabled")
			return
		}

		lock, err := synclock.Acquire(lockFile)
		if err != nil {
			logger.Warn().Err(err).Msg("scheduled sync skipped")
			return
		}
		defer func() {
			_ = lock.Unlock()
		}()

		runCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if _, err := service.Sync(runCtx, meetup.TriggerSchedule); err != nil {
			logger.Error().Err(err).Msg("scheduled sync finished with errors")
		}
	}
}
