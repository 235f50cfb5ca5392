package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Allower decides whether a caller may proceed.
type Allower interface {
	Allow(key string) bool
}

// RateLimit rejects callers over their budget with 429.
func RateLimit(l Allower) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.Allow(c.RealIP()) {
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"status":  http.StatusTooManyRequests,
					"message": http.StatusText(http.StatusTooManyRequests),
				})
			}
			return next(c)
		}
	}
}
