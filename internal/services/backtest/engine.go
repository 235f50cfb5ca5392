package backtest

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/services/features"
	"OraclePortfolio/pkg/config"
)

const (
	monthsPerYear = 12
	// volatility below this is treated as zero
	volEpsilon = 1e-12
)

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// Engine simulates monthly rebalanced portfolios.
type Engine struct {
	defaults config.BacktestDefaults
	now      func() time.Time
	newID    func() string
}

func New(defaults config.BacktestDefaults, opts ...Option) *Engine {
	e := &Engine{
		defaults: defaults,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Defaults returns the configured run defaults.
func (e *Engine) Defaults() config.BacktestDefaults { return e.defaults }

// Now reads the engine clock in UTC.
func (e *Engine) Now() time.Time { return e.now().UTC() }

// Run simulates the allocation path against monthly returns using the configured risk-free rate.
func (e *Engine) Run(allocations []models.AllocationWeights, returns []models.AssetReturns, initialCapital, costRate float64) (models.BacktestPerformance, error) {
	return run(allocations, returns, initialCapital, costRate, e.defaults.RiskFreeRate)
}

func run(allocations []models.AllocationWeights, returns []models.AssetReturns, capital, costRate, riskFree float64) (models.BacktestPerformance, error) {
	switch {
	case len(allocations) == 0:
		return models.BacktestPerformance{}, fmt.Errorf("%w: no periods", models.ErrInvalidBacktestInput)
	case len(allocations) != len(returns):
		return models.BacktestPerformance{}, fmt.Errorf("%w: %d allocations for %d return periods",
			models.ErrInvalidBacktestInput, len(allocations), len(returns))
	case capital <= 0:
		return models.BacktestPerformance{}, fmt.Errorf("%w: initial capital must be positive", models.ErrInvalidBacktestInput)
	case costRate < 0:
		return models.BacktestPerformance{}, fmt.Errorf("%w: negative transaction cost rate", models.ErrInvalidBacktestInput)
	}

	perf := models.BacktestPerformance{
		Periods:        len(allocations),
		InitialCapital: capital,
		History:        make([]models.BacktestPeriodResult, 0, len(allocations)),
	}
	monthly := make([]float64, 0, len(allocations))
	values := make([]float64, 0, len(allocations))

	value := capital
	var totalCost float64
	for t, alloc := range allocations {
		gross := returns[t].Weighted(alloc)
		var turnover float64
		if t > 0 {
			turnover = alloc.Turnover(allocations[t-1])
		}
		cost := turnover * costRate
		r := gross - cost

		totalCost += value * cost
		value *= 1 + r
		monthly = append(monthly, r)
		values = append(values, value)

		perf.History = append(perf.History, models.BacktestPeriodResult{
			Month:          t + 1,
			Allocation:     alloc,
			GrossReturn:    gross,
			Turnover:       turnover,
			Cost:           cost,
			MonthlyReturn:  r,
			PortfolioValue: money(value),
		})
	}

	perf.FinalValue = money(value)
	perf.TotalCost = money(totalCost)
	perf.TotalReturn = value/capital - 1
	perf.AnnualizedReturn = features.AnnualizedReturn(perf.TotalReturn, perf.Periods, monthsPerYear)
	perf.AnnualizedVolatility = features.AnnualizedVolatility(monthly, monthsPerYear)
	if perf.AnnualizedVolatility > volEpsilon {
		sharpe := (perf.AnnualizedReturn - riskFree) / perf.AnnualizedVolatility
		perf.SharpeRatio = &sharpe
	}
	perf.MaxDrawdown = features.MaxDrawdown(capital, values)
	return perf, nil
}

// money rounds a currency amount to cents.
func money(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Static repeats one allocation for n periods.
func Static(w models.AllocationWeights, n int) []models.AllocationWeights {
	out := make([]models.AllocationWeights, n)
	for i := range out {
		out[i] = w
	}
	return out
}
