// Package metrics exposes Prometheus instrumentation for the HTTP
// boundary and the repository layer.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "orgdir",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// QueriesTotal counts repository queries by operation outcome.
	QueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "repo",
		Name:      "queries_total",
		Help:      "Total repository queries executed",
	}, []string{"entity", "operation", "status"})

	// MappedObjects counts domain objects produced by the row mapper.
	MappedObjects = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "mapper",
		Name:      "objects_total",
		Help:      "Domain objects produced by row-to-domain mapping",
	}, []string{"entity"})

	// CacheHits and CacheMisses track the response cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "cache",
		Name:      "hits_total",
		Help:      "Response cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "orgdir",
		Subsystem: "cache",
		Name:      "misses_total",
		Help:      "Response cache misses",
	})
)

// ObserveQuery records one repository query outcome.
func ObserveQuery(entity, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	QueriesTotal.WithLabelValues(entity, operation, status).Inc()
}

// Middleware instruments every request with count and latency metrics.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Route().Path
		method := c.Method()
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

		return err
	}
}

// Handler serves the Prometheus scrape endpoint through Fiber.
func Handler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(
		promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
			ErrorHandling: promhttp.ContinueOnError,
		}),
	)
	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
