package backtest

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

var allStocks = models.AllocationWeights{Stocks: 1}

func newEngine() *Engine {
	fixed := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return New(config.DefaultEngine().Backtest,
		WithClock(func() time.Time { return fixed }),
		WithIDGenerator(func() string { return "run-1" }),
	)
}

func constantReturns(n int, r float64) []models.AssetReturns {
	out := make([]models.AssetReturns, n)
	for i := range out {
		out[i] = models.AssetReturns{Stocks: r, Bonds: r, Commodities: r, Cash: r}
	}
	return out
}

// syntheticReturns draws normal monthly returns per asset class.
func syntheticReturns(n int, seed uint64) []models.AssetReturns {
	r := rand.New(rand.NewPCG(seed, seed+1))
	out := make([]models.AssetReturns, n)
	for i := range out {
		out[i] = models.AssetReturns{
			Stocks:      0.007 + 0.045*r.NormFloat64(),
			Bonds:       0.003 + 0.015*r.NormFloat64(),
			Commodities: 0.004 + 0.055*r.NormFloat64(),
			Cash:        0.0015,
		}
	}
	return out
}

func TestRun_ConstantReturn(t *testing.T) {
	e := newEngine()

	perf, err := e.Run(Static(allStocks, 12), constantReturns(12, 0.01), 100000, 0.001)
	require.NoError(t, err)

	assert.InDelta(t, math.Pow(1.01, 12)-1, perf.TotalReturn, 1e-12)
	assert.InDelta(t, perf.TotalReturn, perf.AnnualizedReturn, 1e-12)
	assert.InDelta(t, 0, perf.AnnualizedVolatility, 1e-12)
	assert.Nil(t, perf.SharpeRatio)
	assert.Equal(t, 0.0, perf.MaxDrawdown)
	assert.Equal(t, 0.0, perf.TotalCost)
	assert.Equal(t, 112682.5, perf.FinalValue)
	require.Len(t, perf.History, 12)
	assert.Equal(t, 12, perf.History[11].Month)
}

func TestRun_InvalidInput(t *testing.T) {
	e := newEngine()

	tests := []struct {
		name    string
		allocs  []models.AllocationWeights
		returns []models.AssetReturns
		capital float64
		cost    float64
	}{
		{"empty", nil, nil, 1000, 0},
		{"length mismatch", Static(allStocks, 3), constantReturns(2, 0), 1000, 0},
		{"zero capital", Static(allStocks, 2), constantReturns(2, 0), 0, 0},
		{"negative cost", Static(allStocks, 2), constantReturns(2, 0), 1000, -0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Run(tt.allocs, tt.returns, tt.capital, tt.cost)
			assert.True(t, errors.Is(err, models.ErrInvalidBacktestInput))
		})
	}
}

func TestRun_TurnoverCost(t *testing.T) {
	e := newEngine()
	allocs := []models.AllocationWeights{
		{Stocks: 1},
		{Bonds: 1},
		{Bonds: 1},
	}

	perf, err := e.Run(allocs, constantReturns(3, 0), 1000, 0.01)
	require.NoError(t, err)

	assert.Equal(t, 0.0, perf.History[0].Cost)
	// moving 100% from stocks to bonds trades both legs: turnover 2
	assert.InDelta(t, 2, perf.History[1].Turnover, 1e-12)
	assert.InDelta(t, 0.02, perf.History[1].Cost, 1e-12)
	assert.Equal(t, 0.0, perf.History[2].Cost)
	assert.Equal(t, 980.0, perf.FinalValue)
	assert.Equal(t, 20.0, perf.TotalCost)
	assert.InDelta(t, 0.02, perf.MaxDrawdown, 1e-12)
}

func TestRun_Drawdown(t *testing.T) {
	e := newEngine()
	returns := []models.AssetReturns{{Stocks: 0.10}, {Stocks: -0.20}, {Stocks: 0.05}}

	perf, err := e.Run(Static(allStocks, 3), returns, 100, 0)
	require.NoError(t, err)

	assert.InDelta(t, 0.20, perf.MaxDrawdown, 1e-12)
	require.NotNil(t, perf.SharpeRatio)
	assert.Greater(t, perf.AnnualizedVolatility, 0.0)
}

func TestRun_Properties(t *testing.T) {
	e := newEngine()
	returns := syntheticReturns(36, 11)
	r := rand.New(rand.NewPCG(1, 2))

	allocs := make([]models.AllocationWeights, len(returns))
	for i := range allocs {
		w, _ := models.AllocationWeights{
			Stocks: r.Float64(), Bonds: r.Float64(), Commodities: r.Float64(), Cash: r.Float64(),
		}.Normalize()
		allocs[i] = w
	}

	free, err := e.Run(allocs, returns, 100000, 0)
	require.NoError(t, err)
	costly, err := e.Run(allocs, returns, 100000, 0.005)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, free.MaxDrawdown, 0.0)
	assert.LessOrEqual(t, free.MaxDrawdown, 1.0)
	assert.GreaterOrEqual(t, free.AnnualizedVolatility, 0.0)
	assert.Less(t, costly.FinalValue, free.FinalValue)
	assert.Greater(t, costly.TotalCost, 0.0)
}
