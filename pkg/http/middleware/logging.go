package middleware

import (
	"time"

	"github.com/labstack/echo/v4"

	applogger "OraclePortfolio/pkg/logger"
)

// RequestLogging logs HTTP requests. 5xx responses log at error level, slow ones at warn.
func RequestLogging(l *applogger.Logger, slowThreshold time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			latency := time.Since(start)
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeLabel(c)),
				applogger.String("remote", c.RealIP()),
				applogger.Int("status", status),
				applogger.Duration("duration_ms", latency),
				applogger.Int64("bytes", c.Response().Size),
			}

			switch {
			case status >= 500:
				l.Error("http request failed", fields...)
			case slowThreshold > 0 && latency >= slowThreshold:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}
