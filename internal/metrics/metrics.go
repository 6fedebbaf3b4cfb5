// Package metrics registers Prometheus collectors for the HTTP surface and
// the moderation workflow, and exposes them through the standard promhttp
// handler on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "ecovolt_"

var (
	registerOnce sync.Once

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	moderationTotal *prometheus.CounterVec

	geocodeRequests *prometheus.CounterVec
)

// Init registers all collectors exactly once. Safe to call from multiple
// startup paths.
func Init() {
	registerOnce.Do(func() {
		httpRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		)
		httpLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		)

		moderationTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "moderation_resolutions_total",
				Help: "Total moderation resolutions by kind (station/deletion) and action",
			},
			[]string{"kind", "action"},
		)

		geocodeRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "geocode_requests_total",
				Help: "Total upstream geocoding lookups by operation and result",
			},
			[]string{"operation", "result"},
		)

		prometheus.MustRegister(
			httpRequests,
			httpLatency,
			moderationTotal,
			geocodeRequests,
		)
	})
}

// IncModeration counts a resolved moderation record.
func IncModeration(kind, action string) {
	if moderationTotal != nil {
		moderationTotal.WithLabelValues(kind, action).Inc()
	}
}

// IncGeocode counts an upstream geocoding lookup.
func IncGeocode(operation, result string) {
	if geocodeRequests != nil {
		geocodeRequests.WithLabelValues(operation, result).Inc()
	}
}

// HTTPMiddleware observes every request's status and latency, labeled by the
// registered route pattern rather than the raw path so cardinality stays
// bounded.
func HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				} else {
					status = http.StatusInternalServerError
				}
			}

			if httpRequests != nil {
				httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			}
			if httpLatency != nil {
				httpLatency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			}
			return err
		}
	}
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
