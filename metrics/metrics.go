// Package metrics holds the Prometheus collectors the service exports on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the registration and catalog collectors. A nil *Metrics records nothing.
type Metrics struct {
	JoinsTotal        *prometheus.CounterVec
	TransitionsTotal  *prometheus.CounterVec
	MalformedRecords  *prometheus.CounterVec
	ScoringFailures   prometheus.Counter
	JoinDuration      prometheus.Histogram
	FeedBuildDuration prometheus.Histogram
	CacheLookups      *prometheus.CounterVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		JoinsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "activityhub_joins_total",
			Help: "Join attempts by variant and outcome (joined, already_registered, full, not_found, error)",
		}, []string{"variant", "outcome"}),
		TransitionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "activityhub_inscription_transitions_total",
			Help: "Applied inscription status transitions",
		}, []string{"from", "to"}),
		MalformedRecords: f.NewCounterVec(prometheus.CounterOpts{
			Name: "activityhub_catalog_malformed_records_total",
			Help: "Catalog rows skipped because a required field was missing",
		}, []string{"variant"}),
		ScoringFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "activityhub_scoring_failures_total",
			Help: "Attendance scoring hook failures (status change kept)",
		}),
		JoinDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "activityhub_join_duration_seconds",
			Help:    "Duration of the join transaction",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		FeedBuildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "activityhub_feed_build_duration_seconds",
			Help:    "Duration of home feed assembly",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "activityhub_catalog_cache_lookups_total",
			Help: "Catalog cache lookups by result (hit, miss)",
		}, []string{"result"}),
	}
}

func (m *Metrics) IncJoin(variant, outcome string) {
	if m == nil {
		return
	}
	m.JoinsTotal.WithLabelValues(variant, outcome).Inc()
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.TransitionsTotal.WithLabelValues(from, to).Inc()
}

func (m *Metrics) IncMalformed(variant string) {
	if m == nil {
		return
	}
	m.MalformedRecords.WithLabelValues(variant).Inc()
}

func (m *Metrics) IncScoringFailure() {
	if m == nil {
		return
	}
	m.ScoringFailures.Inc()
}

func (m *Metrics) IncCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// ObserveJoin records a join duration. Call with time.Now() taken at the start.
func (m *Metrics) ObserveJoin(start time.Time) {
	if m == nil {
		return
	}
	m.JoinDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) ObserveFeedBuild(start time.Time) {
	if m == nil {
		return
	}
	m.FeedBuildDuration.Observe(time.Since(start).Seconds())
}
