package meetup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"horse.fit/meetups/internal/db"
	"horse.fit/meetups/internal/metrics"
	"horse.fit/meetups/internal/reader"
	"horse.fit/meetups/internal/sources"
)

// OutcomeStatus tags what happened to one provider event.
type OutcomeStatus string

const (
	StatusInserted    OutcomeStatus = metrics.OutcomeInserted
	StatusDuplicate   OutcomeStatus = metrics.OutcomeDuplicate
	StatusMalformed   OutcomeStatus = metrics.OutcomeMalformed
	StatusCoverFailed OutcomeStatus = metrics.OutcomeCoverFailed
)

type ItemOutcome struct {
	ExternalEventID string        `json:"external_event_id"`
	Status          OutcomeStatus `json:"status"`
	MeetupID        int64         `json:"meetup_id,omitempty"`
	Err             error         `json:"-"`
}

type IngestResult struct {
	Fetched  int           `json:"fetched"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Outcomes []ItemOutcome `json:"outcomes"`
}

var startDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type pendingEvent struct {
	slot  int
	event sources.ExternalEvent
	start time.Time
}

// IngestEvents fetches the provider snapshot and stores every event not seen
// before. Per-event problems are reported in Outcomes and never abort the
// batch; fetch and store errors do.
func (s *Service) IngestEvents(ctx context.Context) (IngestResult, error) {
	if s == nil || s.store == nil || s.events == nil {
		return IngestResult{}, fmt.Errorf("meetup service is not initialized")
	}
	if !s.opts.Enabled {
		return IngestResult{}, ErrServiceDisabled
	}

	events, err := s.events.FetchEvents(ctx)
	if err != nil {
		s.recordFetchFailure(err, sources.SymplaProvider)
		return IngestResult{}, err
	}

	result := IngestResult{Fetched: len(events)}
	slots := make([]ItemOutcome, len(events))
	pending := make([]pendingEvent, 0, len(events))
	seen := make(map[string]struct{}, len(events))

	for i, event := range events {
		id := strings.TrimSpace(event.ID)
		slots[i].ExternalEventID = id

		if id == "" {
			slots[i].Status = StatusMalformed
			slots[i].Err = &MalformedEventError{Field: "id", Err: errors.New("blank")}
			continue
		}
		if _, dup := seen[id]; dup {
			slots[i].Status = StatusDuplicate
			continue
		}
		seen[id] = struct{}{}

		exists, err := s.store.MeetupExists(ctx, s.opts.Source, id)
		if err != nil {
			return finishIngest(result, slots), fmt.Errorf("check existing event %s: %w", id, err)
		}
		if exists {
			slots[i].Status = StatusDuplicate
			continue
		}

		if strings.TrimSpace(event.Name) == "" {
			slots[i].Status = StatusMalformed
			slots[i].Err = &MalformedEventError{ExternalEventID: id, Field: "name", Err: errors.New("blank")}
			continue
		}
		start, err := parseStartDate(event.StartDateText, s.opts.Location)
		if err != nil {
			slots[i].Status = StatusMalformed
			slots[i].Err = &MalformedEventError{ExternalEventID: id, Field: "start_date", Err: err}
			continue
		}

		pending = append(pending, pendingEvent{slot: i, event: event, start: start})
	}

	coverURLs, coverErrs := s.processCovers(ctx, pending)

	for k, item := range pending {
		slot := &slots[item.slot]
		if coverErrs[k] != nil {
			slot.Status = StatusCoverFailed
			slot.Err = &CoverProcessingError{ExternalEventID: slot.ExternalEventID, Err: coverErrs[k]}
			continue
		}

		meetupID, inserted, err := s.store.InsertMeetup(ctx, db.NewMeetup{
			Source:          s.opts.Source,
			ExternalEventID: slot.ExternalEventID,
			ExternalURL:     strings.TrimSpace(item.event.URL),
			Title:           strings.TrimSpace(item.event.Name),
			CoverURL:        coverURLs[k],
			Description:     item.event.Detail,
			DescriptionText: reader.PlainText(item.event.Detail, item.event.URL),
			StartDate:       item.start,
		})
		if err != nil {
			return finishIngest(result, slots), fmt.Errorf("store event %s: %w", slot.ExternalEventID, err)
		}
		if !inserted {
			slot.Status = StatusDuplicate
			continue
		}
		slot.Status = StatusInserted
		slot.MeetupID = meetupID
	}

	result = finishIngest(result, slots)
	for _, outcome := range result.Outcomes {
		s.opts.Metrics.EventOutcome(string(outcome.Status))
		if outcome.Err != nil {
			s.logger.Warn().
				Err(outcome.Err).
				Str("external_event_id", outcome.ExternalEventID).
				Str("status", string(outcome.Status)).
				Msg("event skipped")
		}
	}

	s.logger.Info().
		Int("fetched", result.Fetched).
		Int("inserted", result.Inserted).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("event ingestion completed")

	return result, nil
}

// processCovers hosts covers for pending events with bounded parallelism.
// Results are slotted by index so callers keep provider order.
func (s *Service) processCovers(ctx context.Context, pending []pendingEvent) ([]*string, []error) {
	urls := make([]*string, len(pending))
	errs := make([]error, len(pending))
	if s.covers == nil || len(pending) == 0 {
		return urls, errs
	}

	var g errgroup.Group
	g.SetLimit(s.opts.CoverConcurrency)
	for k, item := range pending {
		imageURL := strings.TrimSpace(item.event.ImageURL)
		if imageURL == "" {
			continue
		}
		g.Go(func() error {
			hosted, err := s.covers.Process(ctx, imageURL, item.event.Name, strings.TrimSpace(item.event.ID))
			if err != nil {
				errs[k] = err
				return nil
			}
			urls[k] = &hosted
			return nil
		})
	}
	_ = g.Wait()
	return urls, errs
}

// finishIngest compacts decided outcomes, in provider order, and tallies them.
func finishIngest(result IngestResult, slots []ItemOutcome) IngestResult {
	result.Inserted, result.Skipped, result.Failed = 0, 0, 0
	result.Outcomes = make([]ItemOutcome, 0, len(slots))
	for _, outcome := range slots {
		switch outcome.Status {
		case StatusInserted:
			result.Inserted++
		case StatusDuplicate:
			result.Skipped++
		case StatusMalformed, StatusCoverFailed:
			result.Failed++
		default:
			continue
		}
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

func parseStartDate(raw string, loc *time.Location) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, errors.New("blank")
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed.UTC(), nil
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range startDateLayouts {
		if parsed, err := time.ParseInLocation(layout, value, loc); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

func (s *Service) recordFetchFailure(err error, fallbackProvider string) {
	provider := fallbackProvider
	var fetchErr *sources.SourceFetchError
	if errors.As(err, &fetchErr) && fetchErr.Provider != "" {
		provider = fetchErr.Provider
	}
	s.opts.Metrics.SourceFetchFailed(provider)
	s.logger.Error().Err(err).Str("provider", provider).Msg("source fetch failed")
}
