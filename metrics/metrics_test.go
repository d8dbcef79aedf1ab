package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncJoin("club", "joined")
		m.IncMalformed("club")
		m.IncScoringFailure()
		m.IncCacheLookup(true)
	})
}

func TestCountersRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncJoin("club", "joined")
	m.IncJoin("club", "joined")
	m.IncJoin("club", "full")
	m.IncCacheLookup(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.JoinsTotal.WithLabelValues("club", "joined")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.JoinsTotal.WithLabelValues("club", "full")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")))
}
