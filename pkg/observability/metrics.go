package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/aretw0/msquare/pkg/scrollstack"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "msquare"

// Metrics groups the collectors of the service.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	ContactResults *prometheus.CounterVec
	PortfolioOps   *prometheus.CounterVec
	StackFrames    prometheus.Counter
	StackSkipped   prometheus.Counter
	StackComplete  prometheus.Counter
}

// New registers every collector, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by route pattern, method and status code",
			},
			[]string{"route", "method", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		ContactResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "contact_submissions_total",
				Help:      "Contact form submissions by result (sent, invalid, failed)",
			},
			[]string{"result"},
		),
		PortfolioOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "portfolio_operations_total",
				Help:      "Portfolio mutations by operation and result",
			},
			[]string{"op", "result"},
		),
		StackFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrollstack_frames_total",
			Help:      "Scroll stack update passes",
		}),
		StackSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrollstack_skipped_items_total",
			Help:      "Items skipped because they were not laid out",
		}),
		StackComplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrollstack_completions_total",
			Help:      "Stack complete notifications",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.ContactResults,
		m.PortfolioOps,
		m.StackFrames,
		m.StackSkipped,
		m.StackComplete,
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records every request under its chi route pattern, so path parameters do not explode cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ContactSubmitted counts one contact submission outcome.
func (m *Metrics) ContactSubmitted(result string) {
	m.ContactResults.WithLabelValues(result).Inc()
}

// PortfolioOp counts one portfolio mutation outcome.
func (m *Metrics) PortfolioOp(op, result string) {
	m.PortfolioOps.WithLabelValues(op, result).Inc()
}

// StackHooks returns engine hooks feeding the scroll stack counters.
func (m *Metrics) StackHooks() scrollstack.Hooks {
	return scrollstack.Hooks{
		OnFrame: func(s scrollstack.FrameStats) {
			m.StackFrames.Inc()
			m.StackSkipped.Add(float64(s.Skipped))
		},
		OnComplete: func() {
			m.StackComplete.Inc()
		},
	}
}
