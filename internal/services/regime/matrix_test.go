package regime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
)

func TestClassifyMatrix(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name     string
		pmi      float64
		elec     float64
		regime   models.Regime
		position string
	}{
		{"expansion", 56, 5, models.RegimeExpansion, "top_right"},
		{"contraction", 45, -5, models.RegimeContraction, "bottom_left"},
		{"slowdown wins tie with recovery", 50, 1, models.RegimeSlowdown, "top_right"},
		{"recovery", 49, 6, models.RegimeRecovery, "bottom_right"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.ClassifyMatrix(models.IndicatorSet{
				models.IndicatorPMI:               tt.pmi,
				models.IndicatorElectricityGrowth: tt.elec,
			})
			assert.Equal(t, tt.regime, got.Regime)
			assert.Equal(t, models.ModeMatrix, got.Mode)
			assert.GreaterOrEqual(t, got.Confidence, 0.0)
			assert.LessOrEqual(t, got.Confidence, 1.0)
			require.NotNil(t, got.Position)
			assert.Equal(t, tt.position, got.Position.Position)
		})
	}
}

func TestClassifyMatrix_CenteredReadingIsReliable(t *testing.T) {
	c := newClassifier()

	got := c.ClassifyMatrix(models.IndicatorSet{
		models.IndicatorPMI:               50,
		models.IndicatorElectricityGrowth: 1,
	})

	// 0.7*1 + 0.3*0.5 + coherence bonus
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.True(t, got.Reliable)
	assert.InDelta(t, 1.0, got.Scores[models.RegimeSlowdown], 1e-9)
	assert.InDelta(t, 1.0, got.Scores[models.RegimeRecovery], 1e-9)
}

func TestClassifyMatrix_RequiresBothAxes(t *testing.T) {
	c := newClassifier()

	got := c.ClassifyMatrix(models.IndicatorSet{models.IndicatorPMI: 55, models.IndicatorGDPGrowth: 3})

	assert.Equal(t, models.RegimeUnknown, got.Regime)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, []models.IndicatorName{models.IndicatorElectricityGrowth}, got.Missing)
}

func TestPosition(t *testing.T) {
	p := Position(52, -1)

	assert.Equal(t, models.RegimeSlowdown, p.Quadrant)
	assert.Equal(t, "top_left", p.Position)
	assert.Equal(t, "expanding", p.PMILevel)
	assert.Equal(t, "flat", p.GrowthDirection)
	assert.Equal(t, 0.6, p.X)
	assert.Equal(t, 0.45, p.Y)
}
