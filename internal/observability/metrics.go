// Package observability menyediakan metrik Prometheus untuk server HTTP, invoice dan dokumen.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const unknownRoute = "unknown"

// Metrics mengumpulkan metrik Prometheus untuk aplikasi. Nilai nil aman dipakai
// dan tidak mencatat apa pun.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inFlight        prometheus.Gauge
	stockRejections *prometheus.CounterVec
	txRetries       *prometheus.CounterVec
	documents       *prometheus.CounterVec
}

// NewMetrics membuat registry baru beserta metrik aplikasi dan runtime Go.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_http_requests_total",
			Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sejahtera_http_request_duration_seconds",
			Help:    "Durasi permintaan HTTP per route.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sejahtera_http_requests_in_flight",
			Help: "Permintaan HTTP yang sedang diproses.",
		}),
		stockRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_invoice_stock_rejections_total",
			Help: "Jumlah penolakan invoice karena stok, berdasarkan alasan.",
		}, []string{"reason"}),
		txRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_invoice_tx_retries_total",
			Help: "Jumlah transaksi invoice yang diulang karena konflik serialisasi.",
		}, []string{"op"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sejahtera_documents_served_total",
			Help: "Dokumen PDF yang dilayani per jenis dan sumber (cache, render, error).",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.inFlight,
		m.stockRejections, m.txRetries, m.documents,
	)
	return m
}

// Handler melayani endpoint /metrics. Tanpa registry, endpoint menjawab 503.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware mencatat jumlah, durasi dan status setiap permintaan per pola route chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		started := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)

		route := routePattern(r)
		m.requests.WithLabelValues(route, strconv.Itoa(sw.code())).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(started).Seconds())
	})
}

// StockRejected mencatat invoice yang ditolak karena stok.
func (m *Metrics) StockRejected(reason string) {
	if m != nil {
		m.stockRejections.WithLabelValues(reason).Inc()
	}
}

// TxRetried mencatat transaksi invoice yang diulang.
func (m *Metrics) TxRetried(op string) {
	if m != nil {
		m.txRetries.WithLabelValues(op).Inc()
	}
}

// DocumentServed mencatat asal PDF yang dikirim ke klien.
func (m *Metrics) DocumentServed(kind, outcome string) {
	if m != nil {
		m.documents.WithLabelValues(kind, outcome).Inc()
	}
}

// Registerer dipakai paket lain (misalnya metrik job) untuk mendaftar ke registry yang sama.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// statusWriter menyimpan status pertama yang ditulis handler.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) code() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func routePattern(r *http.Request) string {
	rc := chi.RouteContext(r.Context())
	if rc == nil {
		return unknownRoute
	}
	if pattern := rc.RoutePattern(); pattern != "" {
		return pattern
	}
	return unknownRoute
}
