package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	SessionsStarted prometheus.Counter
	SessionsActive  prometheus.Gauge
	TurnsTotal      *prometheus.CounterVec
	StressLevel     prometheus.Histogram
	Interventions   *prometheus.CounterVec
	Notifications   *prometheus.CounterVec
}

// NewCollector registers the companion's metrics on a registry of its own,
// so several collectors can coexist in one process.
func NewCollector(serviceName string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, route, and status code.",
		}, []string{"method", "route", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		}, []string{"method", "route"}),

		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "session",
			Name:      "started_total",
			Help:      "Total conversation sessions started.",
		}),

		SessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "session",
			Name:      "active",
			Help:      "Conversation sessions currently open.",
		}),

		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "session",
			Name:      "turns_total",
			Help:      "Conversation turns by reply category and detected mood.",
		}, []string{"category", "mood"}),

		StressLevel: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "session",
			Name:      "stress_level",
			Help:      "Stress level observed after each turn.",
			Buckets:   prometheus.LinearBuckets(0, 1, 11),
		}),

		Interventions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "session",
			Name:      "interventions_total",
			Help:      "Interventions acted on, by kind.",
		}, []string{"intervention"}),

		Notifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "caregiver",
			Name:      "notifications_total",
			Help:      "Caregiver notifications by kind and result. Alert on failures.",
		}, []string{"kind", "result"}),
	}
}

// ObserveTurn records one answered turn.
func (c *Collector) ObserveTurn(category, mood string, stress int, intervention string) {
	c.TurnsTotal.WithLabelValues(category, mood).Inc()
	c.StressLevel.Observe(float64(stress))
	if intervention != "" && intervention != "none" {
		c.Interventions.WithLabelValues(intervention).Inc()
	}
}

func (c *Collector) SessionStarted() {
	c.SessionsStarted.Inc()
	c.SessionsActive.Inc()
}

func (c *Collector) SessionEnded() {
	c.SessionsActive.Dec()
}

// ObserveNotification records a caregiver message attempt.
func (c *Collector) ObserveNotification(kind string, err error) {
	result := "sent"
	if err != nil {
		result = "failed"
	}
	c.Notifications.WithLabelValues(kind, result).Inc()
}

// Middleware counts requests by chi route pattern, keeping path
// parameters out of the label set.
func (c *Collector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		c.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		c.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
