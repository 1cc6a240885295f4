package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asc-solution/accounts/internal/pkg/metrics"
)

// Metrics records request counts and latency per matched route.
func Metrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			// Errors are rendered here so the recorded status is the final one.
			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			metrics.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}
