package meetup

import (
	"context"
	"fmt"
	"strings"

	"horse.fit/meetups/internal/db"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Search returns events whose title or description contains criteria,
// ignoring case, most recently stored first.
func (s *Service) Search(ctx context.Context, criteria string) ([]db.Meetup, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("meetup service is not initialized")
	}
	criteria = strings.TrimSpace(criteria)
	if criteria == "" {
		return nil, ErrEmptyCriteria
	}

	items, err := s.store.SearchMeetups(ctx, criteria)
	if err != nil {
		return nil, fmt.Errorf("search events: %w", err)
	}
	return items, nil
}

type ListResult struct {
	Items    []db.Meetup `json:"items"`
	Total    int64       `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// List pages through stored events by start date, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (ListResult, error) {
	if s == nil || s.store == nil {
		return ListResult{}, fmt.Errorf("meetup service is not initialized")
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.store.ListMeetups(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return ListResult{}, fmt.Errorf("list events: %w", err)
	}
	return ListResult{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}
