package httpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"horse.fit/meetups/internal/globaltime"
	"horse.fit/meetups/internal/meetup"
	"horse.fit/meetups/internal/sources"
	"horse.fit/meetups/internal/synclock"
)

type outcomeView struct {
	ExternalEventID string `json:"external_event_id"`
	Status          string `json:"status"`
	MeetupID        int64  `json:"meetup_id,omitempty"`
	Error           string `json:"error,omitempty"`
}

type syncView struct {
	RunUUID string             `json:"run_uuid,omitempty"`
	Status  string             `json:"status,omitempty"`
	Summary string             `json:"summary"`
	Ingest  ingestView         `json:"ingest"`
	Match   meetup.MatchResult `json:"match"`
}

type ingestView struct {
	Fetched  int           `json:"fetched"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Outcomes []outcomeView `json:"outcomes"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service":      "meetups",
		"time":         globaltime.UTC(),
		"sync_enabled": s.service.Enabled(),
	})
}

func (s *Server) handleList(c echo.Context) error {
	page, err := parsePositiveInt(c.QueryParam("page"), 1, 1, 1_000_000)
	if err != nil {
		return failValidation(c, map[string]string{"page": err.Error()})
	}
	pageSize, err := parsePositiveInt(c.QueryParam("page_size"), meetup.DefaultPageSize, 1, meetup.MaxPageSize)
	if err != nil {
		return failValidation(c, map[string]string{"page_size": err.Error()})
	}

	result, err := s.service.List(c.Request().Context(), page, pageSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("list meetups failed")
		return internalError(c, "Failed to load meetups")
	}
	return success(c, map[string]any{
		"items":     result.Items,
		"total":     result.Total,
		"page":      result.Page,
		"page_size": result.PageSize,
	})
}

func (s *Server) handleSearch(c echo.Context) error {
	criteria := strings.TrimSpace(c.QueryParam("q"))
	if criteria == "" {
		return failValidation(c, map[string]string{"q": "is required"})
	}

	items, err := s.service.Search(c.Request().Context(), criteria)
	if err != nil {
		if errors.Is(err, meetup.ErrEmptyCriteria) {
			return failValidation(c, map[string]string{"q": "is required"})
		}
		s.logger.Error().Err(err).Str("q", criteria).Msg("search meetups failed")
		return internalError(c, "Failed to search meetups")
	}
	return success(c, map[string]any{
		"items": items,
	})
}

func (s *Server) handleSync(c echo.Context) error {
	if s.opts.SyncLockFile != "" {
		lock, err := synclock.Acquire(s.opts.SyncLockFile)
		if errors.Is(err, synclock.ErrLocked) {
			return failSyncBusy(c)
		}
		if err != nil {
			s.logger.Error().Err(err).Msg("acquire sync lock failed")
			return internalError(c, "Sync failed")
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	// A client disconnect must not abort a run halfway through.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), s.opts.SyncTimeout)
	defer cancel()

	result, err := s.service.Sync(ctx, meetup.TriggerAPI)
	view := buildSyncView(result)
	if err == nil {
		return success(c, view)
	}

	if errors.Is(err, meetup.ErrServiceDisabled) {
		return failSyncDisabled(c)
	}
	var fetchErr *sources.SourceFetchError
	if errors.As(err, &fetchErr) {
		s.logger.Warn().Err(err).Msg("sync finished with provider failure")
		return failProvider(c, err.Error(), view)
	}

	s.logger.Error().Err(err).Msg("sync failed")
	return internalError(c, "Sync failed")
}

func buildSyncView(result meetup.SyncResult) syncView {
	outcomes := make([]outcomeView, 0, len(result.Ingest.Outcomes))
	for _, outcome := range result.Ingest.Outcomes {
		view := outcomeView{
			ExternalEventID: outcome.ExternalEventID,
			Status:          string(outcome.Status),
			MeetupID:        outcome.MeetupID,
		}
		if outcome.Err != nil {
			view.Error = outcome.Err.Error()
		}
		outcomes = append(outcomes, view)
	}

	match := result.Match
	if match.Matches == nil {
		match.Matches = []meetup.Match{}
	}

	return syncView{
		RunUUID: result.RunUUID,
		Status:  result.Status,
		Summary: result.Summary(),
		Ingest: ingestView{
			Fetched:  result.Ingest.Fetched,
			Inserted: result.Ingest.Inserted,
			Skipped:  result.Ingest.Skipped,
			Failed:   result.Ingest.Failed,
			Outcomes: outcomes,
		},
		Match: match,
	}
}

func parsePositiveInt(raw string, defaultValue, minValue, maxValue int) (int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return defaultValue, nil
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("must be between %d and %d", minValue, maxValue)
	}
	return value, nil
}
