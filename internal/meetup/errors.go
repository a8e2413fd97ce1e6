package meetup

import (
	"errors"
	"fmt"
)

// ErrServiceDisabled is returned before any provider call when sync is switched off.
var ErrServiceDisabled = errors.New("meetup sync is disabled")

// ErrEmptyCriteria is returned by Search for blank criteria.
var ErrEmptyCriteria = errors.New("search criteria is required")

// MalformedEventError marks one provider event that cannot be stored.
type MalformedEventError struct {
	ExternalEventID string
	Field           string
	Err             error
}

func (e *MalformedEventError) Error() string {
	if e == nil {
		return "<nil>"
	}
	id := e.ExternalEventID
	if id == "" {
		id = "<blank>"
	}
	if e.Err != nil {
		return fmt.Sprintf("event %s: invalid %s: %v", id, e.Field, e.Err)
	}
	return fmt.Sprintf("event %s: invalid %s", id, e.Field)
}

func (e *MalformedEventError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// CoverProcessingError marks one event whose cover could not be hosted.
type CoverProcessingError struct {
	ExternalEventID string
	Err             error
}

func (e *CoverProcessingError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("event %s: cover processing failed: %v", e.ExternalEventID, e.Err)
}

func (e *CoverProcessingError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
