package middleware

import (
	"strconv"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts failed Redis commands by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_redis_errors_total",
		Help: "Total number of Redis command errors",
	}, []string{"command"})

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_rate_limit_rejections_total",
		Help: "Total number of requests rejected by rate limiting",
	}, []string{"resource"})

	// HTTPErrorResponses counts 4xx/5xx responses by route and status.
	HTTPErrorResponses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wayfarer_http_error_responses_total",
		Help: "Total number of HTTP error responses",
	}, []string{"route", "status"})
)

// InitMetrics creates the Fiber Prometheus middleware for serviceName.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware wraps the Prometheus middleware and additionally counts
// error responses by route template.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := prom.Middleware(c)
		if status := c.Response().StatusCode(); status >= fiber.StatusBadRequest {
			route := c.Path()
			if r := c.Route(); r != nil && r.Path != "" {
				route = r.Path
			}
			HTTPErrorResponses.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
		return err
	}
}
