// Package metrics exposes Prometheus instrumentation for the importer and
// its HTTP surface.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ImporterMetrics implements ports.ImportObserver over a private registry.
type ImporterMetrics struct {
	registry *prometheus.Registry
	service  string

	documentsTotal  *prometheus.CounterVec
	batchSize       *prometheus.HistogramVec
	batchDuration   *prometheus.HistogramVec
	batchesInFlight prometheus.Gauge

	mu           sync.Mutex
	batchStarted time.Time
}

func NewImporterMetrics(service string) *ImporterMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docvault",
			Subsystem: "importer",
			Name:      "documents_total",
			Help:      "Total import attempts by outcome.",
		},
		[]string{"service", "status"},
	)
	batchSize := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "importer",
			Name:      "batch_size",
			Help:      "Distribution of files per import batch.",
			Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"service"},
	)
	batchDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docvault",
			Subsystem: "importer",
			Name:      "batch_duration_seconds",
			Help:      "Import batch duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	batchesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docvault",
			Subsystem: "importer",
			Name:      "batches_in_flight",
			Help:      "Number of import batches currently running.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(documentsTotal, batchSize, batchDuration, batchesInFlight)

	return &ImporterMetrics{
		registry:        registry,
		service:         service,
		documentsTotal:  documentsTotal,
		batchSize:       batchSize,
		batchDuration:   batchDuration,
		batchesInFlight: batchesInFlight,
	}
}

func (m *ImporterMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ImporterMetrics) BatchStarted(size int) {
	m.mu.Lock()
	m.batchStarted = time.Now()
	m.mu.Unlock()

	m.batchesInFlight.Inc()
	m.batchSize.WithLabelValues(m.service).Observe(float64(size))
}

func (m *ImporterMetrics) BatchFinished(int) {
	m.mu.Lock()
	started := m.batchStarted
	m.mu.Unlock()

	m.batchesInFlight.Dec()
	if !started.IsZero() {
		m.batchDuration.WithLabelValues(m.service).Observe(time.Since(started).Seconds())
	}
}

func (m *ImporterMetrics) ItemImported() {
	m.documentsTotal.WithLabelValues(m.service, "imported").Inc()
}

func (m *ImporterMetrics) ItemDuplicate() {
	m.documentsTotal.WithLabelValues(m.service, "duplicate").Inc()
}

func (m *ImporterMetrics) ItemFailed() {
	m.documentsTotal.WithLabelValues(m.service, "failed").Inc()
}
