package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"OraclePortfolio/internal/domain/models"
	domrepo "OraclePortfolio/internal/domain/repository"
	"OraclePortfolio/internal/services/backtest"
	applogger "OraclePortfolio/pkg/logger"
)

// ErrReportsDisabled is returned when no report store is configured.
var ErrReportsDisabled = errors.New("backtest report storage is disabled")

// BacktestUseCase runs strategy backtests against the configured benchmarks.
type BacktestUseCase struct {
	engine    *backtest.Engine
	portfolio *PortfolioUseCase
	reports   domrepo.ReportStore
	metrics   domrepo.Metrics
	log       *applogger.Logger
	timeout   time.Duration
}

// NewBacktestUseCase wires the use case. reports may be nil.
func NewBacktestUseCase(engine *backtest.Engine, portfolio *PortfolioUseCase, reports domrepo.ReportStore, metrics domrepo.Metrics, l *applogger.Logger) *BacktestUseCase {
	return &BacktestUseCase{engine: engine, portfolio: portfolio, reports: reports, metrics: metrics, log: l, timeout: 30 * time.Second}
}

// Run backtests either explicit allocations against req.Returns or, when periods are
// given, the allocations the engine itself would have produced from each period's indicators.
func (uc *BacktestUseCase) Run(ctx context.Context, req models.BacktestRequest) (models.ComparisonReport, error) {
	report, err := uc.compare(req)
	if err != nil {
		return models.ComparisonReport{}, err
	}

	strategy := orDefault(req.Strategy, "dynamic")
	if uc.reports != nil {
		if err := uc.reports.SaveReport(ctx, report.Record(strategy)); err != nil {
			uc.metrics.RecordError("report_store")
			uc.log.Warn("save backtest report", applogger.String("run_id", report.RunID), applogger.Error(err))
		}
	}
	uc.log.Info("backtest completed",
		applogger.String("run_id", report.RunID),
		applogger.String("strategy", strategy),
		applogger.Int("periods", report.Strategy.Periods),
		applogger.Float64("total_return", report.Strategy.TotalReturn))
	return report, nil
}

// MultiCountryBacktest runs the dynamic strategy over each country's periods concurrently
// and ranks countries by their edge over the reference benchmark. A country that fails
// is reported in Failures; configuration errors fail the whole request.
func (uc *BacktestUseCase) MultiCountryBacktest(ctx context.Context, req models.MultiCountryBacktestRequest) (models.MultiCountryBacktest, error) {
	codes, periods, err := countryPeriods(req.Countries)
	if err != nil {
		return models.MultiCountryBacktest{}, err
	}

	base := models.BacktestRequest{
		RiskProfile:         req.RiskProfile,
		Mode:                req.Mode,
		InitialCapital:      req.InitialCapital,
		TransactionCostRate: req.TransactionCostRate,
		RiskFreeRate:        req.RiskFreeRate,
	}
	results := fanOut(ctx, uc.timeout, codes, func(ctx context.Context, code string) (models.ComparisonReport, error) {
		if _, ok := models.LookupCountry(code); !ok {
			return models.ComparisonReport{}, fmt.Errorf("%w: %q", models.ErrUnsupportedCountry, code)
		}
		if err := ctx.Err(); err != nil {
			return models.ComparisonReport{}, err
		}
		r := base
		r.Country = code
		r.Periods = periods[code]
		return uc.compare(r)
	})

	reference := uc.engine.Defaults().Reference
	out := models.MultiCountryBacktest{
		CreatedAt: uc.engine.Now(),
		Options:   uc.options(base),
		Countries: make(map[string]models.ComparisonReport, len(codes)),
		Failures:  map[string]string{},
		Summary: models.MultiCountryBacktestSummary{
			Reference:      reference,
			TotalCountries: len(codes),
		},
	}
	var edges []models.CountryOutperformance
	for _, it := range results {
		if it.err != nil {
			var cfgErr *models.ConfigurationError
			if errors.As(it.err, &cfgErr) {
				return models.MultiCountryBacktest{}, it.err
			}
			out.Failures[it.code] = it.err.Error()
			continue
		}
		out.Countries[it.code] = it.value
		for _, b := range it.value.Benchmarks {
			if b.Name == reference {
				edges = append(edges, models.CountryOutperformance{Country: it.code, Outperformance: b.Outperformance})
				break
			}
		}
	}
	if len(out.Failures) == 0 {
		out.Failures = nil
	}
	out.Summary.Successful = len(out.Countries)
	rankCountries(&out.Summary, edges)

	uc.log.Info("multi-country backtest completed",
		applogger.Int("countries", len(codes)),
		applogger.Int("successful", out.Summary.Successful),
		applogger.Float64("average_outperformance", out.Summary.AverageOutperformance))
	return out, nil
}

// compare resolves the strategy path and runs it against the benchmarks.
func (uc *BacktestUseCase) compare(req models.BacktestRequest) (models.ComparisonReport, error) {
	var (
		allocations []models.AllocationWeights
		returns     []models.AssetReturns
		err         error
	)
	if len(req.Periods) > 0 {
		allocations, err = uc.dynamicPath(req)
		if err != nil {
			return models.ComparisonReport{}, err
		}
		returns = make([]models.AssetReturns, len(req.Periods))
		for i, p := range req.Periods {
			returns[i] = p.Returns
		}
	} else {
		allocations, err = normalizeAll(req.Allocations)
		if err != nil {
			return models.ComparisonReport{}, err
		}
		returns = req.Returns
	}

	benchmarks, err := uc.benchmarks(req.Benchmarks)
	if err != nil {
		return models.ComparisonReport{}, err
	}

	report, err := uc.engine.Compare(allocations, returns, benchmarks, uc.options(req))
	if err != nil {
		uc.metrics.RecordError("backtest")
		return models.ComparisonReport{}, err
	}
	return report, nil
}

// countryPeriods normalizes country codes and rejects duplicates, since each
// entry carries its own history.
func countryPeriods(in []models.CountryPeriods) ([]string, map[string][]models.BacktestPeriod, error) {
	if len(in) == 0 {
		return nil, nil, ErrNoCountries
	}
	codes := make([]string, 0, len(in))
	periods := make(map[string][]models.BacktestPeriod, len(in))
	for _, c := range in {
		code := strings.ToUpper(strings.TrimSpace(c.Country))
		if _, dup := periods[code]; dup {
			return nil, nil, fmt.Errorf("%w: country %s listed more than once", models.ErrInvalidBacktestInput, code)
		}
		codes = append(codes, code)
		periods[code] = c.Periods
	}
	if len(codes) > MaxCountries {
		return nil, nil, fmt.Errorf("%w: got %d", ErrTooManyCountries, len(codes))
	}
	return codes, periods, nil
}

// rankCountries fills the average, best and worst outperformance. Ties keep the
// earlier country.
func rankCountries(s *models.MultiCountryBacktestSummary, edges []models.CountryOutperformance) {
	if len(edges) == 0 {
		return
	}
	best, worst := edges[0], edges[0]
	var sum float64
	for _, e := range edges {
		sum += e.Outperformance
		if e.Outperformance > best.Outperformance {
			best = e
		}
		if e.Outperformance < worst.Outperformance {
			worst = e
		}
	}
	s.AverageOutperformance = sum / float64(len(edges))
	s.Best = &best
	s.Worst = &worst
}

// Recent lists the latest stored report headlines.
func (uc *BacktestUseCase) Recent(ctx context.Context, limit int) ([]models.BacktestRecord, error) {
	if uc.reports == nil {
		return nil, ErrReportsDisabled
	}
	return uc.reports.RecentReports(ctx, limit)
}

// Benchmarks returns the configured static benchmarks.
func (uc *BacktestUseCase) Benchmarks() map[string]models.AllocationWeights {
	return uc.engine.Defaults().Benchmarks
}

// dynamicPath classifies and scores every period. A period that cannot be
// classified holds the previous allocation; before the first classified
// period the reference benchmark is held.
func (uc *BacktestUseCase) dynamicPath(req models.BacktestRequest) ([]models.AllocationWeights, error) {
	mode, err := models.ParseMode(req.Mode)
	if err != nil {
		return nil, models.NewConfigurationError("mode", req.Mode, err)
	}
	profile, err := models.ParseRiskProfile(orDefault(req.RiskProfile, string(models.RiskModerate)))
	if err != nil {
		return nil, models.NewConfigurationError("risk_profile", req.RiskProfile, err)
	}
	country := strings.ToUpper(req.Country)

	defaults := uc.engine.Defaults()
	hold, ok := defaults.Benchmarks[defaults.Reference]
	if !ok {
		return nil, models.NewConfigurationError("backtest.reference", defaults.Reference, models.ErrInvalidBacktestInput)
	}

	out := make([]models.AllocationWeights, 0, len(req.Periods))
	for i, p := range req.Periods {
		indicators := p.Indicators
		if p.Month > 0 {
			indicators = uc.portfolio.adjuster.AdjustIndicators(indicators, country, p.Month).Adjusted
		}
		res := uc.portfolio.Classify(indicators, mode)
		if res.Regime != models.RegimeUnknown {
			alloc, err := uc.portfolio.scorer.Score(res.Regime, profile, indicators, country)
			if err != nil {
				return nil, fmt.Errorf("period %d: %w", i+1, err)
			}
			hold = alloc.Allocation
		}
		out = append(out, hold)
	}
	return out, nil
}

// options resolves omitted run parameters from the configured defaults.
func (uc *BacktestUseCase) options(req models.BacktestRequest) models.BacktestOptions {
	d := uc.engine.Defaults()
	opts := models.BacktestOptions{
		InitialCapital:      d.InitialCapital,
		TransactionCostRate: d.TransactionCostRate,
		RiskFreeRate:        d.RiskFreeRate,
	}
	if req.InitialCapital > 0 {
		opts.InitialCapital = req.InitialCapital
	}
	if req.TransactionCostRate != nil {
		opts.TransactionCostRate = *req.TransactionCostRate
	}
	if req.RiskFreeRate != nil {
		opts.RiskFreeRate = *req.RiskFreeRate
	}
	return opts
}

func (uc *BacktestUseCase) benchmarks(names []string) (map[string]models.AllocationWeights, error) {
	if len(names) == 0 {
		return nil, nil
	}
	all := uc.engine.Defaults().Benchmarks
	out := make(map[string]models.AllocationWeights, len(names))
	for _, name := range names {
		w, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown benchmark %q", models.ErrInvalidBacktestInput, name)
		}
		out[name] = w
	}
	return out, nil
}

func normalizeAll(in []models.AllocationWeights) ([]models.AllocationWeights, error) {
	out := make([]models.AllocationWeights, len(in))
	for i, w := range in {
		n, ok := w.Normalize()
		if !ok {
			return nil, fmt.Errorf("%w: allocation %d: %v", models.ErrInvalidBacktestInput, i+1, models.ErrInvalidAllocationSum)
		}
		out[i] = n
	}
	return out, nil
}
