package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTimer(t *testing.T) {
	timer := NewTimer()
	assert.False(t, timer.start.IsZero())

	time.Sleep(20 * time.Millisecond)
	first := timer.Duration()
	assert.GreaterOrEqual(t, first, 20*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Greater(t, timer.Duration(), first)
}

func TestTimerObserveDurationVec(t *testing.T) {
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name: "test_backend_duration_seconds",
		Help: "test",
	}, []string{"op", "mode"})

	timer := NewTimer()
	timer.ObserveDurationVec(vec, "add", "anonymous")
	timer.ObserveDurationVec(vec, "add", "anonymous")

	assert.Equal(t, 1, testutil.CollectAndCount(vec))
}

type fakeCart struct {
	lines int
	total decimal.Decimal
}

func (f fakeCart) Len() int               { return f.lines }
func (f fakeCart) Total() decimal.Decimal { return f.total }

func TestCollectorSamplesCart(t *testing.T) {
	c := NewCollector(fakeCart{lines: 3, total: decimal.RequireFromString("1250.50")}, time.Hour)
	c.collect()

	assert.Equal(t, 3.0, testutil.ToFloat64(CartLines))
	assert.InDelta(t, 1250.50, testutil.ToFloat64(CartValue), 0.001)
}

func TestCollectorDefaultInterval(t *testing.T) {
	c := NewCollector(fakeCart{}, 0)
	assert.Equal(t, 15*time.Second, c.interval)

	c.Start()
	c.Stop()
}
