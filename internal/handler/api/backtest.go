package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/usecase"
	xhttp "OraclePortfolio/pkg/http"
	"OraclePortfolio/pkg/http/middleware"
	xlogger "OraclePortfolio/pkg/logger"
)

const maxReportLimit = 200

// BacktestHandler serves backtest runs and stored report headlines.
type BacktestHandler struct {
	logger   *xlogger.Logger
	backtest *usecase.BacktestUseCase
	limiter  middleware.Allower
}

// NewBacktestHandler wires the handler. A nil limiter disables rate limiting.
func NewBacktestHandler(logger *xlogger.Logger, backtest *usecase.BacktestUseCase, limiter middleware.Allower) *BacktestHandler {
	return &BacktestHandler{logger: logger, backtest: backtest, limiter: limiter}
}

func (h *BacktestHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/backtest")
	var limit []echo.MiddlewareFunc
	if h.limiter != nil {
		limit = append(limit, middleware.RateLimit(h.limiter))
	}
	g.POST("", h.Run, limit...)
	g.POST("/multi", h.MultiCountry, limit...)
	g.GET("/benchmarks", h.Benchmarks)
	g.GET("/reports", h.Reports)
}

func (h *BacktestHandler) Run(c echo.Context) error {
	req := &models.BacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if len(req.Periods) == 0 && len(req.Allocations) == 0 {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_REQUIRED",
			Field:   "periods",
			Message: "either periods or allocations is required",
		}})
	}

	report, err := h.backtest.Run(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.CreatedResponse(c, report)
}

func (h *BacktestHandler) MultiCountry(c echo.Context) error {
	req := &models.MultiCountryBacktestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.backtest.MultiCountryBacktest(c.Request().Context(), *req)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BacktestHandler) Benchmarks(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.backtest.Benchmarks())
}

func (h *BacktestHandler) Reports(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxReportLimit {
			return xhttp.AppErrorResponse(c, xhttp.BadRequestError("limit", "limit must be between 1 and 200").
				WithParam("max", maxReportLimit))
		}
		limit = n
	}

	rows, err := h.backtest.Recent(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *BacktestHandler) fail(c echo.Context, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("backtest failed", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
