package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

var specParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is one scheduled invocation. ctx is cancelled when the scheduler stops.
type Job func(ctx context.Context)

// Scheduler fires a single job on a cron schedule. A tick that arrives while
// the previous run is still going is skipped.
type Scheduler struct {
	spec     string
	schedule cron.Schedule
	loc      *time.Location
	job      Job
	logger   zerolog.Logger
}

func New(spec string, loc *time.Location, job Job, logger zerolog.Logger) (*Scheduler, error) {
	trimmed := strings.TrimSpace(spec)
	if trimmed == "" {
		return nil, fmt.Errorf("cron spec is required")
	}
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}
	schedule, err := specParser.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse cron %q: %w", trimmed, err)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Scheduler{
		spec:     trimmed,
		schedule: schedule,
		loc:      loc,
		job:      job,
		logger:   logger.With().Str("component", "scheduler").Logger(),
	}, nil
}

// Next returns the first activation strictly after t.
func (s *Scheduler) Next(after time.Time) time.Time {
	return s.schedule.Next(after.In(s.loc))
}

// Run blocks until ctx is cancelled, then waits for a running job to return.
func (s *Scheduler) Run(ctx context.Context) error {
	adapter := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(s.loc),
		cron.WithParser(specParser),
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	)

	if _, err := c.AddFunc(s.spec, func() { s.job(ctx) }); err != nil {
		return fmt.Errorf("register cron job: %w", err)
	}

	c.Start()
	s.logger.Info().
		Str("spec", s.spec).
		Str("timezone", s.loc.String()).
		Time("next_run", s.Next(time.Now())).
		Msg("scheduler started")

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info().Msg("scheduler stopped")
	return nil
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
