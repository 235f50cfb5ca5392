package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

func TestNormalize(t *testing.T) {
	table := config.DefaultEngine().PhysicalIndicators

	assert.InDelta(t, 1.03, Normalize(3, table[models.IndicatorElectricityGrowth]), 1e-12)
	assert.InDelta(t, 1.5, Normalize(9, table[models.IndicatorCopperPrice]), 1e-12, "capped")
	assert.InDelta(t, 1.2, Normalize(60, table[models.IndicatorPMI]), 1e-12, "pmi is uncapped")
	assert.Equal(t, 0.0, Normalize(10, config.PhysicalIndicator{}))
}

func TestCompositeScore(t *testing.T) {
	table := config.DefaultEngine().PhysicalIndicators

	assert.Equal(t, 1.0, CompositeScore(nil, table))

	got := CompositeScore(models.IndicatorSet{
		models.IndicatorOilPrice:  70,
		models.IndicatorGoldPrice: 2280,
	}, table)
	// oil 1.0 * 0.15 + gold 1.2 * 0.10 over 0.25
	assert.InDelta(t, (0.15+0.12)/0.25, got, 1e-12)
}

func TestClassifyAndStrength(t *testing.T) {
	table := config.DefaultEngine().PhysicalIndicators
	pmi := table[models.IndicatorPMI]
	copper := table[models.IndicatorCopperPrice]

	assert.Equal(t, models.SignalHigh, Classify(52, pmi))
	assert.Equal(t, models.SignalLow, Classify(48, pmi))
	assert.Equal(t, models.SignalNeutral, Classify(50, pmi))

	assert.InDelta(t, 0.8, Strength(58, pmi, 1.3), 1e-12)
	assert.InDelta(t, 0.3, Strength(4.5, copper, 1.3), 1e-12)
}

func TestStats(t *testing.T) {
	xs := []float64{0.01, 0.03, -0.01, 0.01}

	assert.InDelta(t, 0.01, Mean(xs), 1e-12)
	assert.InDelta(t, math.Sqrt(0.0002), PopulationStdDev(xs), 1e-12)
	assert.InDelta(t, math.Sqrt(0.0002)*math.Sqrt(12), AnnualizedVolatility(xs, 12), 1e-12)
	assert.Equal(t, 0.0, PopulationStdDev(nil))

	assert.InDelta(t, 0.21, AnnualizedReturn(0.1, 6, 12), 1e-12)
	assert.Equal(t, -1.0, AnnualizedReturn(-1, 12, 12))
}

func TestMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown(100, []float64{101, 102, 103}))
	assert.InDelta(t, 0.2, MaxDrawdown(100, []float64{110, 120, 96, 130}), 1e-12)
	assert.InDelta(t, 0.1, MaxDrawdown(100, []float64{90}), 1e-12, "peak seeded by start")
}
