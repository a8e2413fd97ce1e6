package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/meetup"
)

// MeetupService is the part of *meetup.Service the API exposes.
type MeetupService interface {
	Enabled() bool
	Sync(ctx context.Context, trigger string) (meetup.SyncResult, error)
	Search(ctx context.Context, criteria string) ([]db.Meetup, error)
	List(ctx context.Context, page, pageSize int) (meetup.ListResult, error)
}

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AdminAPIKeyHash is a bcrypt hash; when empty the sync endpoint is open.
	AdminAPIKeyHash string
	// UploadDir is served under /uploads when set.
	UploadDir string
	// MetricsHandler is served under /metrics when set.
	MetricsHandler http.Handler
	// SyncLockFile is the host lock shared with CLI and scheduled syncs.
	// API syncs are not locked when it is empty.
	SyncLockFile string
	// SyncTimeout bounds an API-triggered sync, which outlives the request.
	SyncTimeout time.Duration
}

type Server struct {
	service MeetupService
	logger  zerolog.Logger
	opts    Options
}

func NewServer(service MeetupService, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8090
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Minute
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	syncTimeout := opts.SyncTimeout
	if syncTimeout <= 0 {
		syncTimeout = 10 * time.Minute
	}

	return &Server{
		service: service,
		logger:  logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			AdminAPIKeyHash: strings.TrimSpace(opts.AdminAPIKeyHash),
			UploadDir:       strings.TrimSpace(opts.UploadDir),
			MetricsHandler:  opts.MetricsHandler,
			SyncLockFile:    strings.TrimSpace(opts.SyncLockFile),
			SyncTimeout:     syncTimeout,
		},
	}
}

func (s *Server) Start(ctx context.Context) error {
	if s == nil || s.service == nil {
		return fmt.Errorf("server is not initialized")
	}

	e := s.routes()
	addr := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      e,
		ReadTimeout:  s.opts.ReadTimeout,
		WriteTimeout: s.opts.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()
		if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
			s.logger.Error().Err(shutdownErr).Msg("server shutdown failed")
		}
	}()

	s.logger.Info().Str("addr", addr).Msg("meetups api server started")

	if err := e.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	s.logger.Info().Msg("meetups api server stopped")
	return nil
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", adminKeyHeader},
		MaxAge:       3600,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := s.logger.Info()
			msg := "http request"
			if v.Error != nil {
				event = s.logger.Error().Err(v.Error)
				msg = "http request failed"
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Str("request_id", v.RequestID).
				Msg(msg)
			return nil
		},
	}))

	if s.opts.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(s.opts.MetricsHandler))
	}
	if s.opts.UploadDir != "" {
		e.Static("/uploads", s.opts.UploadDir)
	}

	api := e.Group("/api/v1")
	api.GET("/health", s.handleHealth)
	api.GET("/meetups", s.handleList)
	api.GET("/meetups/search", s.handleSearch)
	api.POST("/meetups/sync", s.handleSync, s.requireAdminKey())

	return e
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch v := he.Message.(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				message = v
			}
		default:
			if text := strings.TrimSpace(http.StatusText(status)); text != "" {
				message = text
			}
		}
	} else if err != nil {
		message = err.Error()
	}

	if strings.HasPrefix(c.Request().URL.Path, "/api/") {
		if status >= 500 {
			_ = internalError(c, "Internal server error")
			return
		}
		_ = fail(c, status, message, nil)
		return
	}

	_ = c.String(status, message)
}
