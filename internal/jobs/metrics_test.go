package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("mail:send").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("mail:send").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:send", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("mail:send", "failure")))
}

func TestCountersIgnoreNilAndEmpty(t *testing.T) {
	var nilMetrics *Metrics
	nilMetrics.EmailSent()
	nilMetrics.SessionsPurged(3)
	assert.NoError(t, nilMetrics.Track("x").End(nil))

	m := NewMetrics(prometheus.NewRegistry())
	m.SessionsPurged(0)
	m.SessionsPurged(4)
	m.EmailSent()
	assert.Equal(t, 4.0, testutil.ToFloat64(m.purged))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.emails))
}
