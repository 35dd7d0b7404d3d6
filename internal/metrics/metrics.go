package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "punchcard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "punchcard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	// CompaniesChanged counts company mutations by operation.
	CompaniesChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "punchcard",
			Subsystem: "companies",
			Name:      "changes_total",
			Help:      "Company create, update and delete operations.",
		},
		[]string{"op"},
	)

	UsersRegistered = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "punchcard",
			Subsystem: "users",
			Name:      "registered_total",
			Help:      "Users registered.",
		},
	)

	PunchesRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "punchcard",
			Subsystem: "punchcards",
			Name:      "created_total",
			Help:      "Punchcards created.",
		},
	)

	// IndexMirrorFailures counts search index writes that failed after the
	// record store accepted the change.
	IndexMirrorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "punchcard",
			Subsystem: "search",
			Name:      "mirror_failures_total",
			Help:      "Search index writes that failed after the record store write succeeded.",
		},
		[]string{"op"},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests,
		httpDuration,
		CompaniesChanged,
		UsersRegistered,
		PunchesRecorded,
		IndexMirrorFailures,
	)
}

// Middleware records request counts and latency per matched route.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		route := c.Route().Path
		if route == "" {
			route = "unmatched"
		}
		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		httpRequests.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
