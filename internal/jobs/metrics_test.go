package jobmetrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("backup:snapshot").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("backup:snapshot").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("backup:snapshot", statusSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("backup:snapshot", statusFailure)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("backup:snapshot")))
}

func TestLastSuccessOnlyMovesOnSuccess(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	at := time.Date(2026, 3, 1, 2, 0, 0, 0, time.UTC)

	tr := m.Track("backup:snapshot")
	tr.now = func() time.Time { return at }
	assert.NoError(t, tr.End(nil))

	failed := m.Track("backup:snapshot")
	failed.now = func() time.Time { return at.Add(time.Hour) }
	assert.Error(t, failed.End(errors.New("disk full")))

	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(m.lastSuccess.WithLabelValues("backup:snapshot")))
}

func TestAddBackupRows(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddBackupRows(map[string]int{"items": 3, "invoices": 0})
	m.AddBackupRows(map[string]int{"items": 2})

	assert.Equal(t, 5.0, testutil.ToFloat64(m.backupRows.WithLabelValues("items")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.backupRows))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	assert.NoError(t, m.Track("x").End(nil))
	m.AddBackupRows(map[string]int{"items": 1})
}
