package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/usecase"
	xhttp "OraclePortfolio/pkg/http"
	xlogger "OraclePortfolio/pkg/logger"
	"OraclePortfolio/pkg/util"
)

// PortfolioHandler serves regime classification, seasonal adjustment and allocation routes.
type PortfolioHandler struct {
	logger    *xlogger.Logger
	portfolio *usecase.PortfolioUseCase
	multi     *usecase.MultiCountryUseCase
}

func NewPortfolioHandler(logger *xlogger.Logger, portfolio *usecase.PortfolioUseCase, multi *usecase.MultiCountryUseCase) *PortfolioHandler {
	return &PortfolioHandler{logger: logger, portfolio: portfolio, multi: multi}
}

func (h *PortfolioHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/regime/classify", h.Classify)
	g.GET("/regime", h.Regime)
	g.POST("/seasonal/adjust", h.SeasonalAdjust)
	g.POST("/seasonal/indicators", h.SeasonalIndicators)
	g.POST("/allocation/score", h.Allocation)
	g.GET("/portfolio", h.Portfolio)
	g.GET("/portfolio/multi", h.MultiCountry)
	g.GET("/countries", h.Countries)
}

type classifyResponse struct {
	models.RegimeScoreResult
	Warnings []string `json:"warnings,omitempty"`
}

func (h *PortfolioHandler) Classify(c echo.Context) error {
	req := &models.ClassifyRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, warnings, err := h.portfolio.ClassifyRaw(req.Indicators, req.Mode)
	if err != nil {
		return h.fail(c, "classify", err)
	}
	return xhttp.SuccessResponse(c, classifyResponse{RegimeScoreResult: res, Warnings: warnings})
}

func (h *PortfolioHandler) Regime(c echo.Context) error {
	req := &models.RegimeQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Regime(c.Request().Context(), usecase.AnalyzeParams{
		Country: req.Country,
		Mode:    req.Mode,
		Month:   req.Month,
		Raw:     req.Raw,
	})
	if err != nil {
		return h.fail(c, "regime", err)
	}
	// indicators move monthly at most
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=300")
	return xhttp.SuccessResponse(c, res)
}

type seasonalAdjustResponse struct {
	models.AdjustedValue
	Trend models.Trend `json:"trend,omitempty"`
}

func (h *PortfolioHandler) SeasonalAdjust(c echo.Context) error {
	req := &models.SeasonalAdjustRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	adj, trend := h.portfolio.AdjustValue(models.IndicatorFamily(req.Family), req.Value, req.Country, req.Month, models.Trend(req.Trend))
	return xhttp.SuccessResponse(c, seasonalAdjustResponse{AdjustedValue: adj, Trend: trend})
}

func (h *PortfolioHandler) SeasonalIndicators(c echo.Context) error {
	req := &models.SeasonalIndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.portfolio.AdjustIndicators(req.Indicators, req.Country, req.Month))
}

func (h *PortfolioHandler) Allocation(c echo.Context) error {
	req := &models.AllocationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Allocate(req.Regime, req.RiskProfile, req.Indicators, req.Country)
	if err != nil {
		return h.fail(c, "allocation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioHandler) Portfolio(c echo.Context) error {
	req := &models.PortfolioQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.portfolio.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Country:     req.Country,
		RiskProfile: req.RiskProfile,
		Mode:        req.Mode,
		Month:       req.Month,
	})
	if err != nil {
		return h.fail(c, "portfolio", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioHandler) MultiCountry(c echo.Context) error {
	req := &models.MultiCountryQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.multi.Analyze(c.Request().Context(), usecase.MultiCountryParams{
		Countries:   util.SplitCodes(req.Countries),
		RiskProfile: req.RiskProfile,
		Mode:        req.Mode,
	})
	if err != nil {
		return h.fail(c, "portfolio_multi", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *PortfolioHandler) Countries(c echo.Context) error {
	return xhttp.ListResponse(c, models.SupportedCountries, int64(len(models.SupportedCountries)))
}

func (h *PortfolioHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" failed", xlogger.Error(err))
	} else {
		h.logger.Debug(op+" rejected", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}
