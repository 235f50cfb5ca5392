package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// HealthHandler reports process and dependency health on /healthz.
type HealthHandler struct {
	checks  map[string]HealthCheck
	timeout time.Duration
	started time.Time
}

func NewHealthHandler(checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 2 * time.Second, started: time.Now()}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
}

type healthResponse struct {
	Status string            `json:"status"`
	Uptime string            `json:"uptime"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	res := healthResponse{Status: "ok", Uptime: time.Since(h.started).Round(time.Second).String()}
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		res.Checks = make(map[string]string, len(names))
	}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			res.Status = "degraded"
			res.Checks[name] = err.Error()
			continue
		}
		res.Checks[name] = "ok"
	}

	code := http.StatusOK
	if res.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, res)
}
