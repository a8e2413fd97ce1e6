package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"horse.fit/meetups/internal/globaltime"
)

// NewMeetup carries the fields written when an external event is first stored.
type NewMeetup struct {
	Source          string
	ExternalEventID string
	ExternalURL     string
	Title           string
	CoverURL        *string
	Description     string
	DescriptionText string
	StartDate       time.Time
}

// UnmatchedMeetup is a stored event still waiting for a recording.
type UnmatchedMeetup struct {
	MeetupID  int64
	Title     string
	StartDate time.Time
}

const meetupColumns = `
	m.meetup_id,
	m.meetup_uuid::text,
	m.source,
	m.external_event_id,
	m.external_url,
	m.title,
	m.cover_url,
	m.description,
	m.description_text,
	m.start_date,
	m.video_url,
	m.created_at,
	m.updated_at`

// MeetupExists reports whether an event with this provider id is already stored.
func (p *Pool) MeetupExists(ctx context.Context, source, externalEventID string) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1
	FROM meetup.meetups
	WHERE source = $1
	  AND external_event_id = $2
)
`
	var exists bool
	if err := p.QueryRow(ctx, q, source, externalEventID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check meetup %s/%s: %w", source, externalEventID, err)
	}
	return exists, nil
}

// InsertMeetup stores a new event. It returns inserted=false, without error,
// when another writer already stored the same (source, external_event_id).
func (p *Pool) InsertMeetup(ctx context.Context, in NewMeetup) (int64, bool, error) {
	source := strings.TrimSpace(in.Source)
	externalID := strings.TrimSpace(in.ExternalEventID)
	if source == "" || externalID == "" {
		return 0, false, fmt.Errorf("source and external event id are required")
	}

	const q = `
INSERT INTO meetup.meetups (
	meetup_uuid,
	source,
	external_event_id,
	external_url,
	title,
	cover_url,
	description,
	description_text,
	start_date,
	created_at,
	updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
ON CONFLICT (source, external_event_id) DO NOTHING
RETURNING meetup_id
`

	now := globaltime.UTC()
	rows, err := p.Query(ctx, q,
		uuid.NewString(),
		source,
		externalID,
		in.ExternalURL,
		in.Title,
		in.CoverURL,
		in.Description,
		in.DescriptionText,
		in.StartDate.UTC(),
		now,
	)
	if err != nil {
		return 0, false, fmt.Errorf("insert meetup %s/%s: %w", source, externalID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, false, fmt.Errorf("insert meetup %s/%s: %w", source, externalID, err)
		}
		return 0, false, nil
	}

	var meetupID int64
	if err := rows.Scan(&meetupID); err != nil {
		return 0, false, fmt.Errorf("scan inserted meetup id: %w", err)
	}
	return meetupID, true, nil
}

// ListUnmatchedMeetups returns events without a video, oldest first.
func (p *Pool) ListUnmatchedMeetups(ctx context.Context) ([]UnmatchedMeetup, error) {
	const q = `
SELECT
	m.meetup_id,
	m.title,
	m.start_date
FROM meetup.meetups m
WHERE m.video_url IS NULL
ORDER BY m.start_date ASC, m.meetup_id ASC
`

	rows, err := p.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query unmatched meetups: %w", err)
	}
	defer rows.Close()

	items := make([]UnmatchedMeetup, 0)
	for rows.Next() {
		var row UnmatchedMeetup
		if err := rows.Scan(&row.MeetupID, &row.Title, &row.StartDate); err != nil {
			return nil, fmt.Errorf("scan unmatched meetup row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unmatched meetup rows: %w", err)
	}
	return items, nil
}

// SetMeetupVideoURL records the matched video unless one is already set.
func (p *Pool) SetMeetupVideoURL(ctx context.Context, meetupID int64, videoURL string) (bool, error) {
	const q = `
UPDATE meetup.meetups
SET video_url = $2,
	updated_at = $3
WHERE meetup_id = $1
  AND video_url IS NULL
`

	tag, err := p.Exec(ctx, q, meetupID, videoURL, globaltime.UTC())
	if err != nil {
		return false, fmt.Errorf("set video url for meetup %d: %w", meetupID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// SearchMeetups matches criteria as a literal, case-insensitive substring of
// the title or either description column, newest records first.
func (p *Pool) SearchMeetups(ctx context.Context, criteria string) ([]Meetup, error) {
	if strings.TrimSpace(criteria) == "" {
		return nil, fmt.Errorf("search criteria is required")
	}

	q := `
SELECT` + meetupColumns + `
FROM meetup.meetups m
WHERE strpos(lower(m.title), lower($1)) > 0
   OR strpos(lower(m.description), lower($1)) > 0
   OR strpos(lower(m.description_text), lower($1)) > 0
ORDER BY m.created_at DESC, m.meetup_id DESC
`

	rows, err := p.Query(ctx, q, criteria)
	if err != nil {
		return nil, fmt.Errorf("search meetups: %w", err)
	}
	defer rows.Close()

	return scanMeetups(rows)
}

// ListMeetups pages through events by start date, newest first, and returns
// the total row count alongside the page.
func (p *Pool) ListMeetups(ctx context.Context, limit, offset int) ([]Meetup, int64, error) {
	if limit <= 0 {
		return nil, 0, fmt.Errorf("limit must be > 0")
	}
	if offset < 0 {
		return nil, 0, fmt.Errorf("offset must be >= 0")
	}

	var total int64
	if err := p.QueryRow(ctx, `SELECT COUNT(*)::BIGINT FROM meetup.meetups`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count meetups: %w", err)
	}

	q := `
SELECT` + meetupColumns + `
FROM meetup.meetups m
ORDER BY m.start_date DESC, m.meetup_id DESC
LIMIT $1
OFFSET $2
`

	rows, err := p.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list meetups: %w", err)
	}
	defer rows.Close()

	items, err := scanMeetups(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func scanMeetups(rows *Rows) ([]Meetup, error) {
	items := make([]Meetup, 0)
	for rows.Next() {
		var row Meetup
		if err := rows.Scan(
			&row.MeetupID,
			&row.MeetupUUID,
			&row.Source,
			&row.ExternalEventID,
			&row.ExternalURL,
			&row.Title,
			&row.CoverURL,
			&row.Description,
			&row.DescriptionText,
			&row.StartDate,
			&row.VideoURL,
			&row.CreatedAt,
			&row.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan meetup row: %w", err)
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetup rows: %w", err)
	}
	return items, nil
}
