package metrics

import "time"

// Sink records sync activity. Implementations must not block or return errors.
type Sink interface {
	SyncCompleted(trigger, status string, duration time.Duration)
	EventOutcome(outcome string)
	VideosMatched(count int)
	SourceFetchFailed(provider string)
	UnmatchedBacklog(count int)
}

// Event outcome labels.
const (
	OutcomeInserted    = "inserted"
	OutcomeDuplicate   = "duplicate"
	OutcomeMalformed   = "malformed"
	OutcomeCoverFailed = "cover_failed"
)

// NoopSink discards everything. Used when metrics are disabled.
type NoopSink struct{}

func NewNoopSink() *NoopSink {
	return &NoopSink{}
}

func (n *NoopSink) SyncCompleted(trigger, status string, duration time.Duration) {}
func (n *NoopSink) EventOutcome(outcome string)                                  {}
func (n *NoopSink) VideosMatched(count int)                                      {}
func (n *NoopSink) SourceFetchFailed(provider string)                            {}
func (n *NoopSink) UnmatchedBacklog(count int)                                   {}
