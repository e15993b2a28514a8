package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrementIndependently(t *testing.T) {
	PoolHits.Add(0)
	before := testutil.ToFloat64(PoolHits)
	PoolHits.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(PoolHits))
}

func TestLabeledCountersAreIndependentPerColumn(t *testing.T) {
	PagesWritten.WithLabelValues("events.kind").Inc()
	PagesWritten.WithLabelValues("events.kind").Inc()
	PagesWritten.WithLabelValues("events.body").Inc()

	assert.Equal(t, float64(2), testutil.ToFloat64(PagesWritten.WithLabelValues("events.kind")))
	assert.Equal(t, float64(1), testutil.ToFloat64(PagesWritten.WithLabelValues("events.body")))
}
