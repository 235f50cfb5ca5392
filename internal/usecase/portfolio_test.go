package usecase

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
)

func TestPortfolio_AnalyzePublishesAllocation(t *testing.T) {
	f := newFixture()

	got, err := f.portfolio.Analyze(context.Background(), AnalyzeParams{Country: "fra", RiskProfile: "aggressive", Raw: true})
	require.NoError(t, err)

	assert.Equal(t, "FRA", got.Country.Code)
	assert.Equal(t, 3, got.Month)
	assert.Equal(t, models.StatusOK, got.Status)
	assert.Equal(t, models.RegimeExpansion, got.Regime.Regime)
	assert.Nil(t, got.Seasonal)
	require.NotNil(t, got.Allocation)
	assert.InDelta(t, 1.0, got.Allocation.Allocation.Sum(), 1e-9)

	require.Len(t, f.events.events, 1)
	ev := f.events.events[0]
	assert.Equal(t, "ev-1", ev.ID)
	assert.Equal(t, "FRA", ev.Country)
	assert.Equal(t, models.RiskAggressive, ev.RiskProfile)
	assert.Equal(t, got.Allocation.Allocation, ev.Allocation)
	assert.Equal(t, fixedNow, ev.Timestamp)
	assert.Equal(t, 1, f.metrics.allocations)
}

func TestPortfolio_AnalyzeAppliesSeasonalAdjustment(t *testing.T) {
	f := newFixture()

	got, err := f.portfolio.Analyze(context.Background(), AnalyzeParams{Country: "USA", Month: 7})
	require.NoError(t, err)
	require.NotNil(t, got.Seasonal)
	assert.Equal(t, 7, got.Seasonal.Month)
	assert.Equal(t, models.StatusOK, got.Status)
	// gdp and unemployment are never adjusted
	assert.Equal(t, 3.0, got.Seasonal.Adjusted[models.IndicatorGDPGrowth])
	assert.Equal(t, 58.0, got.Indicators[models.IndicatorPMI])
}

func TestPortfolio_DataUnavailableIsUnknown(t *testing.T) {
	f := newFixture()

	got, err := f.portfolio.Analyze(context.Background(), AnalyzeParams{Country: "ITA"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDataUnavailable, got.Status)
	assert.Equal(t, models.RegimeUnknown, got.Regime.Regime)
	assert.Zero(t, got.Regime.Confidence)
	assert.Nil(t, got.Allocation)
	assert.Empty(t, f.events.events)
	assert.Contains(t, f.metrics.errors, "data_unavailable")
}

func TestPortfolio_UnclassifiedHasNoAllocation(t *testing.T) {
	f := newFixture()

	got, err := f.portfolio.Analyze(context.Background(), AnalyzeParams{Country: "JPN", Raw: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusUnclassified, got.Status)
	assert.Nil(t, got.Allocation)
	assert.Empty(t, f.events.events)
}

func TestPortfolio_ProviderFailurePropagates(t *testing.T) {
	f := newFixture()
	f.provider.err = errors.New("connection refused")

	_, err := f.portfolio.Analyze(context.Background(), AnalyzeParams{Country: "FRA"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrDataUnavailable)
	assert.Contains(t, f.metrics.errors, "provider")
}

func TestPortfolio_InvalidParameters(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.portfolio.Analyze(ctx, AnalyzeParams{Country: "BRA"})
	assert.ErrorIs(t, err, models.ErrUnsupportedCountry)

	_, err = f.portfolio.Analyze(ctx, AnalyzeParams{Country: "FRA", RiskProfile: "yolo"})
	var cfgErr *models.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "risk_profile", cfgErr.Field)

	_, err = f.portfolio.Regime(ctx, AnalyzeParams{Country: "FRA", Mode: "astrology"})
	assert.ErrorIs(t, err, models.ErrUnknownMode)
}

func TestPortfolio_RegimeDoesNotAllocate(t *testing.T) {
	f := newFixture()

	got, err := f.portfolio.Regime(context.Background(), AnalyzeParams{Country: "DEU", Raw: true})
	require.NoError(t, err)
	assert.Equal(t, models.RegimeContraction, got.Regime.Regime)
	assert.Nil(t, got.Allocation)
	assert.Empty(t, f.events.events)
}

func TestPortfolio_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.events.err = errors.New("kafka down")

	got, err := f.portfolio.Analyze(context.Background(), AnalyzeParams{Country: "FRA", Raw: true})
	require.NoError(t, err)
	assert.NotNil(t, got.Allocation)
	assert.Contains(t, f.metrics.errors, "publish")
}

func TestPortfolio_ClassifyRaw(t *testing.T) {
	f := newFixture()

	res, warnings, err := f.portfolio.ClassifyRaw(map[string]float64{"pmi": 51, "mood": 7}, "")
	require.NoError(t, err)
	assert.Equal(t, models.RegimeSlowdown, res.Regime)
	assert.InDelta(t, 0.7, res.Confidence, 1e-9)
	assert.Equal(t, []string{"ignored unknown indicators: mood"}, warnings)

	_, _, err = f.portfolio.ClassifyRaw(nil, "tarot")
	assert.ErrorIs(t, err, models.ErrUnknownMode)
}

func TestPortfolio_Allocate(t *testing.T) {
	f := newFixture()

	res, err := f.portfolio.Allocate("expansion", "", map[string]float64{"pmi": 56}, "fra")
	require.NoError(t, err)
	assert.Equal(t, models.RiskModerate, res.RiskProfile)
	assert.Equal(t, "FRA", res.Country)
	assert.InDelta(t, 1.0, res.Allocation.Sum(), 1e-9)

	_, err = f.portfolio.Allocate("unknown", "moderate", nil, "")
	assert.ErrorIs(t, err, models.ErrUnknownRegime)

	_, err = f.portfolio.Allocate("depression", "moderate", nil, "")
	assert.ErrorIs(t, err, models.ErrUnknownRegime)
}

func TestPortfolio_AdjustValue(t *testing.T) {
	f := newFixture()

	adj, trend := f.portfolio.AdjustValue(models.FamilyPMI, 50, "fra", 1, "")
	assert.Equal(t, models.Trend(""), trend)
	assert.Equal(t, 1, adj.Month)
	assert.False(t, math.IsNaN(adj.Value))

	_, trend = f.portfolio.AdjustValue(models.FamilyPMI, 50, "", 1, models.TrendStable)
	assert.NotEmpty(t, trend)
}
