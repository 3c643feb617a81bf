package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vkataja/quest-board-api/pkg/duedate"
)

// MetricsService encapsulates Prometheus instrumentation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	resolutionTotal *prometheus.CounterVec
	syncInserted    prometheus.Counter
	syncDuplicates  prometheus.Counter
	syncFailed      prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
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

	resolutionTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "due_date_resolutions_total",
		Help: "Due-date resolutions by calculation method",
	}, []string{"method"})

	syncInserted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quest_sync_inserted_total",
		Help: "Quests inserted by sync runs",
	})
	syncDuplicates := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quest_sync_duplicates_total",
		Help: "Duplicate portal rows skipped by sync runs",
	})
	syncFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quest_sync_failed_total",
		Help: "Portal rows that failed to sync",
	})

	registry.MustRegister(requestDuration, requestTotal, resolutionTotal, syncInserted, syncDuplicates, syncFailed)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		resolutionTotal: resolutionTotal,
		syncInserted:    syncInserted,
		syncDuplicates:  syncDuplicates,
		syncFailed:      syncFailed,
	}
}

// Handler exposes the /metrics endpoint.
func (s *MetricsService) Handler() http.Handler {
	return s.handler
}

// ObserveHTTPRequest records one completed HTTP request.
func (s *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	labels := prometheus.Labels{"method": method, "path": path, "status": strconv.Itoa(status)}
	s.requestDuration.With(labels).Observe(duration.Seconds())
	s.requestTotal.With(labels).Inc()
}

// ObserveResolution counts a due-date resolution by its method.
func (s *MetricsService) ObserveResolution(method duedate.Method) {
	s.resolutionTotal.WithLabelValues(string(method)).Inc()
}

// ObserveSync records the counters from one sync run.
func (s *MetricsService) ObserveSync(summary SyncSummary) {
	s.syncInserted.Add(float64(summary.Inserted))
	s.syncDuplicates.Add(float64(summary.Duplicates))
	s.syncFailed.Add(float64(summary.Failed))
}
