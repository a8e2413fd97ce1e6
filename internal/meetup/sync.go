package meetup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/globaltime"
)

// Sync triggers recorded in the run ledger.
const (
	TriggerCLI      = "cli"
	TriggerAPI      = "api"
	TriggerSchedule = "schedule"
)

// Run statuses recorded in the run ledger.
const (
	RunCompleted = "completed"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

const ledgerWriteTimeout = 5 * time.Second

type SyncResult struct {
	RunUUID    string       `json:"run_uuid"`
	Status     string       `json:"status"`
	Ingest     IngestResult `json:"ingest"`
	Match      MatchResult  `json:"match"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// Summary is the one-line human readable outcome of a run.
func (r SyncResult) Summary() string {
	return fmt.Sprintf("%d new events found and %d related videos matched", r.Ingest.Inserted, r.Match.Matched)
}

// Sync runs event ingestion and then video matching. A failure in one step
// does not prevent the other; both errors are joined in the returned error.
func (s *Service) Sync(ctx context.Context, trigger string) (SyncResult, error) {
	if s == nil {
		return SyncResult{}, fmt.Errorf("meetup service is not initialized")
	}
	if !s.opts.Enabled {
		return SyncResult{}, ErrServiceDisabled
	}

	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		trigger = TriggerCLI
	}

	result := SyncResult{
		RunUUID:   uuid.NewString(),
		StartedAt: globaltime.UTC(),
	}
	runID, ledgerOK := s.startRun(ctx, result.RunUUID, trigger)

	ingest, ingestErr := s.IngestEvents(ctx)
	if ingestErr != nil {
		ingestErr = fmt.Errorf("ingest events: %w", ingestErr)
	}
	match, matchErr := s.MatchVideos(ctx)
	if matchErr != nil {
		matchErr = fmt.Errorf("match videos: %w", matchErr)
	}

	result.Ingest = ingest
	result.Match = match
	result.FinishedAt = globaltime.UTC()
	result.Status = runStatus(ingestErr, matchErr, ingest.Failed)
	err := errors.Join(ingestErr, matchErr)

	if ledgerOK {
		s.finishRun(ctx, runID, result, err)
	}
	s.opts.Metrics.SyncCompleted(trigger, result.Status, result.FinishedAt.Sub(result.StartedAt))

	event := s.logger.Info()
	if err != nil {
		event = s.logger.Warn().Err(err)
	}
	event.
		Str("run_uuid", result.RunUUID).
		Str("trigger", trigger).
		Str("status", result.Status).
		Msg(result.Summary())

	return result, err
}

func runStatus(ingestErr, matchErr error, itemFailures int) string {
	switch {
	case ingestErr != nil && matchErr != nil:
		return RunFailed
	case ingestErr != nil || matchErr != nil || itemFailures > 0:
		return RunPartial
	default:
		return RunCompleted
	}
}

func (s *Service) startRun(ctx context.Context, runUUID, trigger string) (int64, bool) {
	if s.opts.Ledger == nil {
		return 0, false
	}
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	runID, err := s.opts.Ledger.StartSyncRun(writeCtx, runUUID, trigger)
	if err != nil {
		s.logger.Warn().Err(err).Str("run_uuid", runUUID).Msg("failed to record sync run start")
		return 0, false
	}
	return runID, true
}

func (s *Service) finishRun(ctx context.Context, runID int64, result SyncResult, runErr error) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ledgerWriteTimeout)
	defer cancel()

	message := ""
	if runErr != nil {
		message = runErr.Error()
	}
	counts := db.SyncRunCounts{
		EventsFetched:  result.Ingest.Fetched,
		EventsInserted: result.Ingest.Inserted,
		EventsFailed:   result.Ingest.Failed,
		VideosFetched:  result.Match.Videos,
		VideosMatched:  result.Match.Matched,
	}
	if err := s.opts.Ledger.FinishSyncRun(writeCtx, runID, result.Status, counts, message); err != nil {
		s.logger.Warn().Err(err).Int64("sync_run_id", runID).Msg("failed to record sync run result")
	}
}
