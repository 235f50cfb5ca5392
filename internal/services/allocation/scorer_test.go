package allocation

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

func newScorer() *Scorer {
	return New(config.DefaultEngine())
}

func TestScore_NoIndicatorsReturnsBase(t *testing.T) {
	s := newScorer()

	got, err := s.Score(models.RegimeExpansion, models.RiskConservative, models.IndicatorSet{}, "")
	require.NoError(t, err)

	want, _ := models.AllocationWeights{Stocks: 0.70, Bonds: 0.20, Commodities: 0.10}.Normalize()
	assert.Equal(t, want, got.Allocation)
	assert.False(t, got.Degraded)
	assert.Equal(t, 1.0, got.Breakdown.CompositeScore)
	assert.NotEmpty(t, got.Warnings)
}

func TestScore_ClampsToRiskProfile(t *testing.T) {
	s := newScorer()

	tests := []struct {
		profile models.RiskProfile
		maxDev  float64
	}{
		{models.RiskConservative, 0.15},
		{models.RiskModerate, 0.20},
		{models.RiskAggressive, 0.25},
	}
	for _, tt := range tests {
		t.Run(string(tt.profile), func(t *testing.T) {
			got, err := s.Score(models.RegimeSlowdown, tt.profile, models.IndicatorSet{models.IndicatorPMI: 80}, "")
			require.NoError(t, err)

			// strength (80-50)/10 = 3, stocks tilt 3 * 0.75 * 0.15
			assert.InDelta(t, 0.3375, got.Breakdown.RawAdjustments[models.AssetStocks], 1e-12)
			assert.InDelta(t, tt.maxDev, got.Breakdown.ClampedAdjustments[models.AssetStocks], 1e-12)
			// bonds tilt 3 * -0.40 * 0.15 only binds for the conservative band
			assert.InDelta(t, max(-tt.maxDev, -0.18), got.Breakdown.ClampedAdjustments[models.AssetBonds], 1e-12)
			assert.Equal(t, tt.maxDev, got.MaxDeviation)
			assert.InDelta(t, 1.0, got.Allocation.Sum(), 1e-6)
		})
	}
}

func TestScore_CountryNudge(t *testing.T) {
	s := newScorer()

	got, err := s.Score(models.RegimeExpansion, models.RiskModerate, nil, "usa")
	require.NoError(t, err)

	assert.Equal(t, "USA", got.Country)
	assert.InDelta(t, 0.75, got.Allocation.Stocks, 1e-9)
	assert.InDelta(t, 0.15, got.Allocation.Bonds, 1e-9)
	assert.InDelta(t, 0.10, got.Allocation.Commodities, 1e-9)
	assert.Equal(t, 0.05, got.Breakdown.CountryAdjustments[models.AssetStocks])
}

func TestScore_UnknownInputs(t *testing.T) {
	s := newScorer()

	_, err := s.Score(models.RegimeUnknown, models.RiskModerate, nil, "")
	assert.True(t, errors.Is(err, models.ErrUnknownRegime))

	_, err = s.Score("GOLDILOCKS", models.RiskModerate, nil, "")
	var cfgErr *models.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "regime", cfgErr.Field)

	_, err = s.Score(models.RegimeBoom, "yolo", nil, "")
	assert.True(t, errors.Is(err, models.ErrUnknownRiskProfile))
}

func TestScore_DegradedFallsBackToBase(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.BaseAllocations[models.RegimeContraction] = models.AllocationWeights{Stocks: 0.1}
	cfg.CorrelationMatrix[models.IndicatorPMI] = map[models.AssetClass]float64{
		models.AssetStocks: 1, models.AssetBonds: 1, models.AssetCommodities: 1,
	}
	s := New(cfg)

	// strength -2 drags every risk asset by the full 0.20 band
	got, err := s.Score(models.RegimeContraction, models.RiskModerate, models.IndicatorSet{models.IndicatorPMI: 30}, "")
	require.NoError(t, err)

	assert.True(t, got.Degraded)
	assert.Equal(t, models.AllocationWeights{Stocks: 1}, got.Allocation)
	assert.Contains(t, got.Warnings, models.ErrInvalidAllocationSum.Error())
}

func TestScore_PropertiesOverRandomInputs(t *testing.T) {
	s := newScorer()
	r := rand.New(rand.NewPCG(3, 5))
	profiles := []models.RiskProfile{models.RiskConservative, models.RiskModerate, models.RiskAggressive}
	countries := []string{"", "FRA", "USA", "JPN", "DEU"}

	for i := 0; i < 300; i++ {
		in := models.IndicatorSet{}
		for _, name := range models.AllIndicators {
			if r.IntN(3) == 0 {
				continue
			}
			in[name] = r.Float64() * 3000
		}
		regime := models.KnownRegimes[r.IntN(len(models.KnownRegimes))]
		profile := profiles[r.IntN(len(profiles))]
		country := countries[r.IntN(len(countries))]

		got, err := s.Score(regime, profile, in, country)
		require.NoError(t, err)
		for _, a := range models.AssetClasses {
			assert.GreaterOrEqual(t, got.Allocation.Get(a), 0.0)
		}
		assert.InDelta(t, 1.0, got.Allocation.Sum(), 1e-6)

		again, err := s.Score(regime, profile, in, country)
		require.NoError(t, err)
		assert.Equal(t, got, again)
	}
}

func TestMarketStress(t *testing.T) {
	s := newScorer()

	stressed, err := s.Score(models.RegimeSlowdown, models.RiskModerate, models.IndicatorSet{
		models.IndicatorGoldPrice:      2100,
		models.IndicatorOilPrice:       90,
		models.IndicatorCopperPrice:    2.0,
		models.IndicatorBalticDryIndex: 700,
	}, "")
	require.NoError(t, err)
	assert.InDelta(t, 81.25, stressed.Breakdown.Stress.Score, 1e-9)
	assert.Equal(t, "EXTREME", stressed.Breakdown.Stress.Level)

	calm, err := s.Score(models.RegimeSlowdown, models.RiskModerate, models.IndicatorSet{
		models.IndicatorGoldPrice: 1800,
		models.IndicatorOilPrice:  65,
	}, "")
	require.NoError(t, err)
	assert.InDelta(t, 25, calm.Breakdown.Stress.Score, 1e-9)
	assert.Equal(t, "LOW", calm.Breakdown.Stress.Level)
	assert.Equal(t, models.SignalNeutral, calm.Breakdown.DominantSignal)
	assert.Equal(t, 0.0, MarketStress(nil).Score)
}
