package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	applogger "OraclePortfolio/pkg/logger"
)

func flatReturns(n int, r models.AssetReturns) []models.AssetReturns {
	out := make([]models.AssetReturns, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func rate(v float64) *float64 { return &v }

// alternating switches fully between stocks and bonds every month, so any cost rate shows up.
func alternating(n int) []models.AllocationWeights {
	out := make([]models.AllocationWeights, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = models.AllocationWeights{Stocks: 1}
		} else {
			out[i] = models.AllocationWeights{Bonds: 1}
		}
	}
	return out
}

func TestBacktest_ExplicitZeroRatesAreKept(t *testing.T) {
	f := newFixture()
	uc := NewBacktestUseCase(newEngine(), f.portfolio, nil, f.metrics, applogger.Nop())
	ctx := context.Background()
	returns := flatReturns(12, models.AssetReturns{Stocks: 0.01, Bonds: 0.01})

	report, err := uc.Run(ctx, models.BacktestRequest{
		Allocations:         alternating(12),
		Returns:             returns,
		TransactionCostRate: rate(0),
	})
	require.NoError(t, err)
	assert.InDelta(t, math.Pow(1.01, 12)-1, report.Strategy.TotalReturn, 1e-12)
	assert.Zero(t, report.Strategy.TotalCost)
	assert.Equal(t, 100000.0, report.Strategy.InitialCapital)

	report, err = uc.Run(ctx, models.BacktestRequest{Allocations: alternating(12), Returns: returns})
	require.NoError(t, err)
	assert.Less(t, report.Strategy.TotalReturn, math.Pow(1.01, 12)-1, "omitted cost rate uses the configured 0.001")

	swing := make([]models.AssetReturns, 12)
	for i := range swing {
		swing[i] = models.AssetReturns{Stocks: 0.02 * float64(i%2)}
	}
	stocks := make([]models.AllocationWeights, 12)
	for i := range stocks {
		stocks[i] = models.AllocationWeights{Stocks: 1}
	}

	report, err = uc.Run(ctx, models.BacktestRequest{Allocations: stocks, Returns: swing, RiskFreeRate: rate(0)})
	require.NoError(t, err)
	perf := report.Strategy
	require.NotNil(t, perf.SharpeRatio)
	assert.InDelta(t, perf.AnnualizedReturn/perf.AnnualizedVolatility, *perf.SharpeRatio, 1e-12)

	report, err = uc.Run(ctx, models.BacktestRequest{Allocations: stocks, Returns: swing})
	require.NoError(t, err)
	perf = report.Strategy
	require.NotNil(t, perf.SharpeRatio)
	assert.InDelta(t, (perf.AnnualizedReturn-0.02)/perf.AnnualizedVolatility, *perf.SharpeRatio, 1e-12)
}

func TestBacktest_ExplicitAllocations(t *testing.T) {
	f := newFixture()
	reports := &memoryReports{}
	uc := NewBacktestUseCase(newEngine(), f.portfolio, reports, f.metrics, applogger.Nop())

	req := models.BacktestRequest{
		Strategy:       "sixty_forty",
		Allocations:    []models.AllocationWeights{{Stocks: 6, Bonds: 4}, {Stocks: 6, Bonds: 4}, {Stocks: 6, Bonds: 4}},
		Returns:        flatReturns(3, models.AssetReturns{Stocks: 0.02, Bonds: 0.01}),
		InitialCapital: 1000,
		Benchmarks:     []string{"static_moderate", "equal_weight"},
	}
	report, err := uc.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "run-1", report.RunID)
	assert.Len(t, report.Benchmarks, 2)
	assert.Equal(t, 3, report.Strategy.Periods)
	assert.InDelta(t, 0.6, report.Strategy.History[0].Allocation.Stocks, 1e-12)

	require.Len(t, reports.saved, 1)
	assert.Equal(t, "sixty_forty", reports.saved[0].Strategy)
	assert.Equal(t, "run-1", reports.saved[0].RunID)

	recent, err := uc.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}

func TestBacktest_DynamicPeriods(t *testing.T) {
	f := newFixture()
	uc := NewBacktestUseCase(newEngine(), f.portfolio, nil, f.metrics, applogger.Nop())

	r := models.AssetReturns{Stocks: 0.01, Bonds: 0.004, Commodities: 0.002, Cash: 0.001}
	req := models.BacktestRequest{
		Periods: []models.BacktestPeriod{
			{Indicators: models.IndicatorSet{models.IndicatorLumberPrice: 400}, Returns: r},
			{Indicators: expansionSet, Returns: r},
			{Indicators: models.IndicatorSet{}, Returns: r},
			{Indicators: contractionSet, Returns: r, Month: 11},
		},
		InitialCapital:      100000,
		TransactionCostRate: rate(0.001),
	}
	report, err := uc.Run(context.Background(), req)
	require.NoError(t, err)

	hist := report.Strategy.History
	require.Len(t, hist, 4)
	moderate := uc.Benchmarks()["static_moderate"]
	assert.Equal(t, moderate, hist[0].Allocation, "unclassified first period holds the reference benchmark")
	assert.NotEqual(t, moderate, hist[1].Allocation)
	assert.Equal(t, hist[1].Allocation, hist[2].Allocation, "unclassified period holds the previous allocation")
	assert.Greater(t, hist[3].Allocation.Bonds, hist[1].Allocation.Bonds)
	assert.Len(t, report.Benchmarks, 4)

	_, err = uc.Recent(context.Background(), 5)
	assert.ErrorIs(t, err, ErrReportsDisabled)
}

func TestBacktest_InvalidInput(t *testing.T) {
	f := newFixture()
	uc := NewBacktestUseCase(newEngine(), f.portfolio, nil, f.metrics, applogger.Nop())
	ctx := context.Background()

	_, err := uc.Run(ctx, models.BacktestRequest{})
	assert.ErrorIs(t, err, models.ErrInvalidBacktestInput)

	_, err = uc.Run(ctx, models.BacktestRequest{
		Allocations: []models.AllocationWeights{{}},
		Returns:     flatReturns(1, models.AssetReturns{}),
	})
	assert.ErrorIs(t, err, models.ErrInvalidBacktestInput)

	_, err = uc.Run(ctx, models.BacktestRequest{
		Allocations: []models.AllocationWeights{{Stocks: 1}},
		Returns:     flatReturns(1, models.AssetReturns{}),
		Benchmarks:  []string{"all_in_crypto"},
	})
	assert.ErrorIs(t, err, models.ErrInvalidBacktestInput)

	_, err = uc.Run(ctx, models.BacktestRequest{
		Periods:     []models.BacktestPeriod{{Indicators: expansionSet}},
		RiskProfile: "reckless",
	})
	assert.ErrorIs(t, err, models.ErrUnknownRiskProfile)
}

func TestBacktest_StoreFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	reports := &memoryReports{err: errors.New("clickhouse down")}
	uc := NewBacktestUseCase(newEngine(), f.portfolio, reports, f.metrics, applogger.Nop())

	_, err := uc.Run(context.Background(), models.BacktestRequest{
		Allocations: []models.AllocationWeights{{Stocks: 1}},
		Returns:     flatReturns(1, models.AssetReturns{Stocks: 0.01}),
	})
	require.NoError(t, err)
	assert.Contains(t, f.metrics.errors, "report_store")
}

func countryHistory(code string, set models.IndicatorSet, n int) models.CountryPeriods {
	periods := make([]models.BacktestPeriod, n)
	for i := range periods {
		periods[i] = models.BacktestPeriod{Indicators: set, Returns: models.AssetReturns{Stocks: 0.02}}
	}
	return models.CountryPeriods{Country: code, Periods: periods}
}

func TestBacktest_MultiCountry(t *testing.T) {
	f := newFixture()
	uc := NewBacktestUseCase(newEngine(), f.portfolio, nil, f.metrics, applogger.Nop())

	got, err := uc.MultiCountryBacktest(context.Background(), models.MultiCountryBacktestRequest{
		Countries: []models.CountryPeriods{
			countryHistory("fra", expansionSet, 12),
			countryHistory("DEU", contractionSet, 12),
			countryHistory("BRA", expansionSet, 12),
			{Country: "USA"},
		},
		TransactionCostRate: rate(0),
	})
	require.NoError(t, err)

	assert.Len(t, got.Countries, 2)
	assert.Contains(t, got.Countries, "FRA")
	assert.Contains(t, got.Failures, "BRA")
	assert.Contains(t, got.Failures, "USA")
	assert.Zero(t, got.Options.TransactionCostRate)
	assert.Equal(t, 0.02, got.Options.RiskFreeRate)
	assert.Equal(t, fixedNow, got.CreatedAt)

	s := got.Summary
	assert.Equal(t, "static_moderate", s.Reference)
	assert.Equal(t, 4, s.TotalCountries)
	assert.Equal(t, 2, s.Successful)
	require.NotNil(t, s.Best)
	require.NotNil(t, s.Worst)
	assert.Equal(t, "FRA", s.Best.Country)
	assert.Equal(t, "DEU", s.Worst.Country)
	assert.Positive(t, s.Best.Outperformance)
	assert.Negative(t, s.Worst.Outperformance)
	assert.InDelta(t, (s.Best.Outperformance+s.Worst.Outperformance)/2, s.AverageOutperformance, 1e-12)

	var fra float64
	for _, b := range got.Countries["FRA"].Benchmarks {
		if b.Name == "static_moderate" {
			fra = b.Outperformance
		}
	}
	assert.Equal(t, fra, s.Best.Outperformance)
}

func TestBacktest_MultiCountryRejectsBadRequests(t *testing.T) {
	f := newFixture()
	uc := NewBacktestUseCase(newEngine(), f.portfolio, nil, f.metrics, applogger.Nop())
	ctx := context.Background()

	_, err := uc.MultiCountryBacktest(ctx, models.MultiCountryBacktestRequest{})
	assert.ErrorIs(t, err, ErrNoCountries)

	_, err = uc.MultiCountryBacktest(ctx, models.MultiCountryBacktestRequest{Countries: []models.CountryPeriods{
		countryHistory("USA", expansionSet, 2),
		countryHistory(" usa", expansionSet, 2),
	}})
	assert.ErrorIs(t, err, models.ErrInvalidBacktestInput)

	many := make([]models.CountryPeriods, MaxCountries+1)
	for i := range many {
		many[i] = countryHistory(fmt.Sprintf("C%02d", i), expansionSet, 1)
	}
	_, err = uc.MultiCountryBacktest(ctx, models.MultiCountryBacktestRequest{Countries: many})
	assert.ErrorIs(t, err, ErrTooManyCountries)

	_, err = uc.MultiCountryBacktest(ctx, models.MultiCountryBacktestRequest{
		Countries:   []models.CountryPeriods{countryHistory("FRA", expansionSet, 2)},
		RiskProfile: "reckless",
	})
	assert.ErrorIs(t, err, models.ErrUnknownRiskProfile)
}

func TestBacktest_MultiCountryAllFailed(t *testing.T) {
	f := newFixture()
	uc := NewBacktestUseCase(newEngine(), f.portfolio, nil, f.metrics, applogger.Nop())

	got, err := uc.MultiCountryBacktest(context.Background(), models.MultiCountryBacktestRequest{
		Countries: []models.CountryPeriods{countryHistory("XXX", expansionSet, 3)},
	})
	require.NoError(t, err)
	assert.Zero(t, got.Summary.Successful)
	assert.Nil(t, got.Summary.Best)
	assert.Zero(t, got.Summary.AverageOutperformance)
	assert.Len(t, got.Failures, 1)
}
