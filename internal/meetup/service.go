package meetup

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/metrics"
	"horse.fit/meetups/internal/similarity"
	"horse.fit/meetups/internal/sources"
)

const (
	DefaultThreshold        = 0.85
	DefaultCoverConcurrency = 4
	DefaultSource           = sources.SymplaProvider
)

// Store is the persistence the service needs. *db.Pool implements it.
type Store interface {
	MeetupExists(ctx context.Context, source, externalEventID string) (bool, error)
	InsertMeetup(ctx context.Context, in db.NewMeetup) (int64, bool, error)
	ListUnmatchedMeetups(ctx context.Context) ([]db.UnmatchedMeetup, error)
	SetMeetupVideoURL(ctx context.Context, meetupID int64, videoURL string) (bool, error)
	SearchMeetups(ctx context.Context, criteria string) ([]db.Meetup, error)
	ListMeetups(ctx context.Context, limit, offset int) ([]db.Meetup, int64, error)
}

// RunLedger records sync runs. *db.Pool implements it.
type RunLedger interface {
	StartSyncRun(ctx context.Context, runUUID, trigger string) (int64, error)
	FinishSyncRun(ctx context.Context, runID int64, status string, counts db.SyncRunCounts, errMessage string) error
}

type EventSource interface {
	FetchEvents(ctx context.Context) ([]sources.ExternalEvent, error)
}

type VideoSource interface {
	FetchCandidateVideos(ctx context.Context) ([]sources.CandidateVideo, error)
}

// CoverProcessor turns a provider image URL into a hosted cover URL.
type CoverProcessor interface {
	Process(ctx context.Context, imageURL, eventName, key string) (string, error)
}

type Options struct {
	Enabled          bool
	Source           string
	Threshold        float64
	Location         *time.Location
	CoverConcurrency int
	Scorer           func(a, b string) float64
	Metrics          metrics.Sink
	Ledger           RunLedger
}

type Service struct {
	store  Store
	events EventSource
	videos VideoSource
	covers CoverProcessor
	opts   Options
	logger zerolog.Logger
}

// NewService wires the orchestrator. covers may be nil, in which case events
// are stored without a cover.
func NewService(
	store Store,
	events EventSource,
	videos VideoSource,
	covers CoverProcessor,
	opts Options,
	logger zerolog.Logger,
) *Service {
	return &Service{
		store:  store,
		events: events,
		videos: videos,
		covers: covers,
		opts:   normalizeOptions(opts),
		logger: logger,
	}
}

func normalizeOptions(opts Options) Options {
	opts.Source = strings.TrimSpace(opts.Source)
	if opts.Source == "" {
		opts.Source = DefaultSource
	}
	if opts.Threshold <= 0 || opts.Threshold > 1 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.CoverConcurrency < 1 {
		opts.CoverConcurrency = DefaultCoverConcurrency
	}
	if opts.Scorer == nil {
		opts.Scorer = similarity.Score
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopSink()
	}
	return opts
}

// Enabled reports whether ingestion and matching may run.
func (s *Service) Enabled() bool {
	return s != nil && s.opts.Enabled
}

func (s *Service) Threshold() float64 {
	if s == nil {
		return DefaultThreshold
	}
	return s.opts.Threshold
}
