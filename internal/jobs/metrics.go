// Package jobmetrics instruments background jobs.
package jobmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Metrics holds the collectors shared by every job run. A nil *Metrics
// records nothing.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
	backupRows  *prometheus.CounterVec
}

// NewMetrics registers the job collectors on registerer, falling back to the
// Prometheus default registerer when it is nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_jobs_total",
			Help: "Job runs grouped by job and outcome.",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_jobs_failures_total",
			Help: "Failed job runs grouped by job.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sejahtera_job_duration_seconds",
			Help:    "Job run duration.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 600},
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sejahtera_job_last_success_timestamp_seconds",
			Help: "Unix time of the most recent successful run.",
		}, []string{"job"}),
		backupRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_backup_rows_total",
			Help: "Rows written by backup snapshots grouped by table.",
		}, []string{"table"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.lastSuccess, m.backupRows)
	return m
}

// Tracker measures one job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
	now     func() time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now(), now: time.Now}
}

// End records the outcome of the run and passes err through.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	finished := t.now()
	m.duration.WithLabelValues(t.job).Observe(finished.Sub(t.start).Seconds())
	if err != nil {
		m.failures.WithLabelValues(t.job).Inc()
		m.runs.WithLabelValues(t.job, statusFailure).Inc()
		return err
	}
	m.runs.WithLabelValues(t.job, statusSuccess).Inc()
	m.lastSuccess.WithLabelValues(t.job).Set(float64(finished.Unix()))
	return nil
}

// AddBackupRows adds the per-table row counts of one snapshot. Empty tables
// are skipped.
func (m *Metrics) AddBackupRows(counts map[string]int) {
	if m == nil {
		return
	}
	for table, n := range counts {
		if n > 0 {
			m.backupRows.WithLabelValues(table).Add(float64(n))
		}
	}
}
