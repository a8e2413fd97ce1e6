package db

import (
	"context"
	"fmt"
	"strings"

	"horse.fit/meetups/internal/globaltime"
)

const maxSyncRunErrorLen = 2000

// SyncRunCounts are the per-run totals written when a run finishes.
type SyncRunCounts struct {
	EventsFetched  int
	EventsInserted int
	EventsFailed   int
	VideosFetched  int
	VideosMatched  int
}

// StartSyncRun opens a ledger row in the running state.
func (p *Pool) StartSyncRun(ctx context.Context, runUUID, trigger string) (int64, error) {
	const q = `
INSERT INTO meetup.sync_runs (
	run_uuid,
	"trigger",
	status,
	started_at
)
VALUES ($1, $2, 'running', $3)
RETURNING sync_run_id
`

	var runID int64
	if err := p.QueryRow(ctx, q, runUUID, trigger, globaltime.UTC()).Scan(&runID); err != nil {
		return 0, fmt.Errorf("insert sync run: %w", err)
	}
	return runID, nil
}

// FinishSyncRun closes a ledger row with its final status and counts.
func (p *Pool) FinishSyncRun(ctx context.Context, runID int64, status string, counts SyncRunCounts, errMessage string) error {
	var message *string
	if trimmed := strings.TrimSpace(errMessage); trimmed != "" {
		if len(trimmed) > maxSyncRunErrorLen {
			trimmed = trimmed[:maxSyncRunErrorLen]
		}
		message = &trimmed
	}

	const q = `
UPDATE meetup.sync_runs
SET status = $2::meetup.sync_run_status,
	events_fetched = $3,
	events_inserted = $4,
	events_failed = $5,
	videos_fetched = $6,
	videos_matched = $7,
	error_message = $8,
	finished_at = $9
WHERE sync_run_id = $1
`

	tag, err := p.Exec(ctx, q,
		runID,
		status,
		counts.EventsFetched,
		counts.EventsInserted,
		counts.EventsFailed,
		counts.VideosFetched,
		counts.VideosMatched,
		message,
		globaltime.UTC(),
	)
	if err != nil {
		return fmt.Errorf("finish sync run %d: %w", runID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("finish sync run %d: %w", runID, ErrNoRows)
	}
	return nil
}

// ListSyncRuns returns the most recent ledger rows.
func (p *Pool) ListSyncRuns(ctx context.Context, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	const q = `
SELECT
	r.sync_run_id,
	r.run_uuid::text,
	r."trigger",
	r.status::text,
	r.events_fetched,
	r.events_inserted,
	r.events_failed,
	r.videos_fetched,
	r.videos_matched,
	r.error_message,
	r.started_at,
	r.finished_at
FROM meetup.sync_runs r
ORDER BY r.started_at DESC, r.sync_run_id DESC
LIMIT $1
`

	rows, err := p.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]SyncRun, 0, limit)
	for rows.Next() {
		var row SyncRun
		if err := rows.Scan(
			&row.SyncRunID,
			&row.RunUUID,
			&row.Trigger,
			&row.Status,
			&row.EventsFetched,
			&row.EventsInserted,
			&row.EventsFailed,
			&row.VideosFetched,
			&row.VideosMatched,
			&row.ErrorMessage,
			&row.StartedAt,
			&row.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan sync run row: %w", err)
		}
		runs = append(runs, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync run rows: %w", err)
	}
	return runs, nil
}
