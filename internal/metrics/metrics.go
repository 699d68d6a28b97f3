package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pos",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
	transitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow transition attempts by outcome.",
		},
		[]string{"from", "to", "result"},
	)
	approvals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "workflow",
			Name:      "approvals_total",
			Help:      "Dual-approval confirmations by outcome.",
		},
		[]string{"result"},
	)
	erpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "erp",
			Name:      "requests_total",
			Help:      "Requests sent to the ERP.",
		},
		[]string{"op", "status"},
	)
	erpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pos",
			Subsystem: "erp",
			Name:      "request_duration_seconds",
			Help:      "ERP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
	menuCache = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "menu_cache",
			Name:      "lookups_total",
			Help:      "Menu cache lookups by result.",
		},
		[]string{"result"},
	)
)

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequests, httpDuration, transitions, approvals, erpRequests, erpDuration, menuCache)
	})
}

// Handler serves the default registry.
func Handler() http.Handler {
	Register()
	return promhttp.Handler()
}

func RecordTransition(from, to, result string) {
	Register()
	transitions.WithLabelValues(from, to, result).Inc()
}

func RecordApproval(result string) {
	Register()
	approvals.WithLabelValues(result).Inc()
}

// RecordERPRequest counts one ERP call; status 0 means no response.
func RecordERPRequest(op string, status int, duration time.Duration) {
	Register()
	erpRequests.WithLabelValues(op, strconv.Itoa(status)).Inc()
	erpDuration.WithLabelValues(op).Observe(duration.Seconds())
}

func RecordMenuCache(hit bool) {
	Register()
	result := "miss"
	if hit {
		result = "hit"
	}
	menuCache.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency by chi route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Register()
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(ww.Status())
		httpRequests.WithLabelValues(r.Method, route, status).Inc()
		httpDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}
