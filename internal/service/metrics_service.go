package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation. All methods
// are nil-safe so instrumentation can be disabled by passing nil.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	uploadsTotal    prometheus.Counter
	uploadBytes     prometheus.Counter
	scanVerdicts    *prometheus.CounterVec
	sweepRemoved    prometheus.Counter
}

// NewMetricsService registers the portal's Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	uploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_uploaded_total",
		Help: "Total number of accepted document uploads",
	})

	uploadBytes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "documents_uploaded_bytes_total",
		Help: "Total bytes accepted across document uploads",
	})

	scanVerdicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "virus_scan_verdicts_total",
		Help: "Virus scan verdicts by outcome",
	}, []string{"verdict"})

	sweepRemoved := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "retention_sweep_removed_total",
		Help: "Documents removed by the retention sweep",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, uploadsTotal, uploadBytes, scanVerdicts, sweepRemoved, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		uploadsTotal:    uploadsTotal,
		uploadBytes:     uploadBytes,
		scanVerdicts:    scanVerdicts,
		sweepRemoved:    sweepRemoved,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordUpload counts an accepted document upload.
func (m *MetricsService) RecordUpload(sizeBytes int64) {
	if m == nil {
		return
	}
	m.uploadsTotal.Inc()
	m.uploadBytes.Add(float64(sizeBytes))
}

// RecordScanVerdict counts a settled scan outcome.
func (m *MetricsService) RecordScanVerdict(verdict string) {
	if m == nil {
		return
	}
	m.scanVerdicts.WithLabelValues(verdict).Inc()
}

// RecordSweepRemoved counts documents purged by the retention sweep.
func (m *MetricsService) RecordSweepRemoved(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.sweepRemoved.Add(float64(count))
}
