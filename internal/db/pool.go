package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"horse.fit/meetups/internal/config"
	"horse.fit/meetups/internal/globaltime"
)

const defaultMaxOpenConns = 8

var (
	ErrNoRows       = sql.ErrNoRows
	errPoolNotReady = errors.New("database pool is not initialized")
)

// CommandTag reports the outcome of an Exec.
type CommandTag struct {
	rowsAffected int64
}

func (c CommandTag) RowsAffected() int64 {
	return c.rowsAffected
}

// Row wraps a single-row raw query. Scan returns ErrNoRows for an empty result.
type Row struct {
	row *sql.Row
	err error
}

func (r *Row) Scan(dest ...any) error {
	switch {
	case r == nil:
		return ErrNoRows
	case r.err != nil:
		return r.err
	case r.row == nil:
		return ErrNoRows
	}
	return r.row.Scan(dest...)
}

type Rows struct {
	rows *sql.Rows
}

func (r *Rows) Next() bool {
	return r != nil && r.rows != nil && r.rows.Next()
}

func (r *Rows) Scan(dest ...any) error {
	if r == nil || r.rows == nil {
		return ErrNoRows
	}
	return r.rows.Scan(dest...)
}

func (r *Rows) Err() error {
	if r == nil || r.rows == nil {
		return nil
	}
	return r.rows.Err()
}

func (r *Rows) Close() {
	if r != nil && r.rows != nil {
		_ = r.rows.Close()
	}
}

// Pool is the meetup store: a GORM handle used through raw SQL.
type Pool struct {
	gdb   *gorm.DB
	sqlDB *sql.DB
}

// NewPool opens the database, verifies it answers and applies the schema.
func NewPool(ctx context.Context, cfg *config.Config) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger:  logger.Default.LogMode(gormLogLevel(cfg.LogLevel, cfg.Environment)),
		NowFunc: globaltime.UTC,
	})
	if err != nil {
		return nil, fmt.Errorf("open gorm database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("get gorm sql db: %w", err)
	}
	configureConnections(sqlDB, cfg.DBMinConns, cfg.DBMaxConns)

	pool := &Pool{gdb: gdb, sqlDB: sqlDB}
	if err := pool.Ping(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := pool.migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return pool, nil
}

func configureConnections(sqlDB *sql.DB, minConns, maxConns int32) {
	maxOpen := int(maxConns)
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpenConns
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(max(1, min(int(minConns), maxOpen)))
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
}

func (p *Pool) ready() bool {
	return p != nil && p.gdb != nil
}

func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) *Row {
	if !p.ready() {
		return &Row{err: errPoolNotReady}
	}
	return &Row{row: p.gdb.WithContext(ctx).Raw(query, args...).Row()}
}

func (p *Pool) Query(ctx context.Context, query string, args ...any) (*Rows, error) {
	if !p.ready() {
		return nil, errPoolNotReady
	}
	rows, err := p.gdb.WithContext(ctx).Raw(query, args...).Rows()
	if err != nil {
		return nil, err
	}
	return &Rows{rows: rows}, nil
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (CommandTag, error) {
	if !p.ready() {
		return CommandTag{}, errPoolNotReady
	}
	res := p.gdb.WithContext(ctx).Exec(query, args...)
	return CommandTag{rowsAffected: res.RowsAffected}, res.Error
}

// Ping verifies the database is reachable.
func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.sqlDB == nil {
		return errPoolNotReady
	}
	return p.sqlDB.PingContext(ctx)
}

func (p *Pool) Close() error {
	if p == nil || p.sqlDB == nil {
		return nil
	}
	return p.sqlDB.Close()
}

func IsNoRows(err error) bool {
	return errors.Is(err, ErrNoRows)
}

// gormLogLevel keeps SQL logging quiet unless the app runs at debug or trace.
func gormLogLevel(appLogLevel, environment string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(appLogLevel)) {
	case "trace", "debug":
		return logger.Info
	case "", "info", "warn", "warning":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent", "disabled":
		return logger.Silent
	}
	if strings.EqualFold(strings.TrimSpace(environment), "local") {
		return logger.Warn
	}
	return logger.Error
}
