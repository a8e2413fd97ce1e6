package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// PrometheusSink implements Sink with client_golang collectors.
// Registration failures are logged and the sink keeps working unregistered.
type PrometheusSink struct {
	logger zerolog.Logger

	syncRunsTotal      *prometheus.CounterVec
	syncDuration       prometheus.Histogram
	eventOutcomesTotal *prometheus.CounterVec
	videosMatchedTotal prometheus.Counter
	fetchFailuresTotal *prometheus.CounterVec
	unmatchedBacklog   prometheus.Gauge
}

func NewPrometheusSink(reg prometheus.Registerer, logger zerolog.Logger) *PrometheusSink {
	s := &PrometheusSink{logger: logger}

	s.syncRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meetups_sync_runs_total",
		Help: "Total number of sync runs by trigger and final status.",
	}, []string{"trigger", "status"})
	s.syncDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetups_sync_duration_seconds",
		Help:    "Wall time of a combined sync run in seconds.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
	s.eventOutcomesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meetups_event_outcomes_total",
		Help: "Per-event ingestion outcomes.",
	}, []string{"outcome"})
	s.videosMatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meetups_videos_matched_total",
		Help: "Total number of events linked to a video.",
	})
	s.fetchFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meetups_source_fetch_failures_total",
		Help: "Failed snapshot fetches by provider.",
	}, []string{"provider"})
	s.unmatchedBacklog = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "meetups_unmatched_events",
		Help: "Stored events without a video at the start of the last matching pass.",
	})

	s.register(reg, s.syncRunsTotal, "meetups_sync_runs_total")
	s.register(reg, s.syncDuration, "meetups_sync_duration_seconds")
	s.register(reg, s.eventOutcomesTotal, "meetups_event_outcomes_total")
	s.register(reg, s.videosMatchedTotal, "meetups_videos_matched_total")
	s.register(reg, s.fetchFailuresTotal, "meetups_source_fetch_failures_total")
	s.register(reg, s.unmatchedBacklog, "meetups_unmatched_events")
	return s
}

func (s *PrometheusSink) register(reg prometheus.Registerer, c prometheus.Collector, name string) {
	if reg == nil {
		return
	}
	if err := reg.Register(c); err != nil {
		s.logger.Warn().Err(err).Str("metric", name).Msg("failed to register metric")
	}
}

func (s *PrometheusSink) SyncCompleted(trigger, status string, duration time.Duration) {
	s.syncRunsTotal.WithLabelValues(trigger, status).Inc()
	s.syncDuration.Observe(duration.Seconds())
}

func (s *PrometheusSink) EventOutcome(outcome string) {
	s.eventOutcomesTotal.WithLabelValues(outcome).Inc()
}

func (s *PrometheusSink) VideosMatched(count int) {
	if count <= 0 {
		return
	}
	s.videosMatchedTotal.Add(float64(count))
}

func (s *PrometheusSink) SourceFetchFailed(provider string) {
	s.fetchFailuresTotal.WithLabelValues(provider).Inc()
}

func (s *PrometheusSink) UnmatchedBacklog(count int) {
	s.unmatchedBacklog.Set(float64(count))
}
