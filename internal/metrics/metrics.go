package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teamcalendar/internal/domain"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	reg       *prometheus.Registry
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	conflicts *prometheus.CounterVec
	panics    prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		reg: reg,
		requests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		duration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),
		conflicts: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "booking_conflicts_total",
			Help: "Total number of conflicts that rejected a booking, by dimension.",
		}, []string{"reason"}),
		panics: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "http_panics_recovered_total",
			Help: "Total number of HTTP requests recovered from internal panic.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// ObserveRequest records one finished request. route is the matched mux pattern, never the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RecordConflicts(conflicts []domain.Conflict) {
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.ConflictReason)).Inc()
	}
}

func (m *Metrics) PanicRecovered() {
	m.panics.Inc()
}

// InstrumentEventService counts the conflicts behind every rejected create or update.
func InstrumentEventService(next domain.EventService, m *Metrics) domain.EventService {
	return &instrumentedEventService{EventService: next, metrics: m}
}

type instrumentedEventService struct {
	domain.EventService
	metrics *Metrics
}

func (s *instrumentedEventService) CreateEvent(ctx context.Context, in domain.CreateEventInput) (*domain.Event, error) {
	e, err := s.EventService.CreateEvent(ctx, in)
	s.observe(err)
	return e, err
}

func (s *instrumentedEventService) UpdateEvent(ctx context.Context, in domain.UpdateEventInput) (*domain.Event, error) {
	e, err := s.EventService.UpdateEvent(ctx, in)
	s.observe(err)
	return e, err
}

func (s *instrumentedEventService) observe(err error) {
	var conflict *domain.ConflictError
	if errors.As(err, &conflict) && conflict.Code == domain.ConflictCodeEvent {
		s.metrics.RecordConflicts(conflict.Conflicts)
	}
}
