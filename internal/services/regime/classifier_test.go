package regime

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

func newClassifier() *Classifier {
	return New(config.DefaultEngine())
}

func TestClassify_Scenarios(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		name       string
		in         models.IndicatorSet
		regime     models.Regime
		confidence float64
	}{
		{
			name:       "strong expansion",
			in:         models.IndicatorSet{models.IndicatorPMI: 58, models.IndicatorGDPGrowth: 3.0, models.IndicatorUnemployment: 3.5},
			regime:     models.RegimeExpansion,
			confidence: 0.675 / 0.8,
		},
		{
			name:       "deep contraction",
			in:         models.IndicatorSet{models.IndicatorPMI: 44, models.IndicatorGDPGrowth: -1.0, models.IndicatorUnemployment: 9.0},
			regime:     models.RegimeContraction,
			confidence: 0.7 / 0.8,
		},
		{
			name:       "only pmi",
			in:         models.IndicatorSet{models.IndicatorPMI: 51},
			regime:     models.RegimeSlowdown,
			confidence: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.in)
			assert.Equal(t, tt.regime, got.Regime)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, models.ModeVoting, got.Mode)
			require.NotNil(t, got.Profile)
		})
	}

	expansion := c.Classify(tests[0].in)
	assert.Greater(t, expansion.Confidence, 0.75)
	assert.True(t, expansion.Reliable)
}

func TestClassify_EmptyIsUnknown(t *testing.T) {
	c := newClassifier()

	for name, in := range map[string]models.IndicatorSet{
		"nil":              nil,
		"empty":            {},
		"only physical":    {models.IndicatorCopperPrice: 4.2},
		"only electricity": {models.IndicatorElectricityGrowth: 3},
	} {
		t.Run(name, func(t *testing.T) {
			got := c.Classify(in)
			assert.Equal(t, models.RegimeUnknown, got.Regime)
			assert.Equal(t, 0.0, got.Confidence)
		})
	}
}

func TestClassify_MissingIndicatorsReported(t *testing.T) {
	c := newClassifier()

	got := c.Classify(models.IndicatorSet{models.IndicatorPMI: 56})

	assert.Equal(t, []models.IndicatorName{models.IndicatorPMI}, got.Considered)
	assert.Equal(t, []models.IndicatorName{models.IndicatorGDPGrowth, models.IndicatorUnemployment}, got.Missing)
}

func TestClassify_TieGoesToFirstEvaluatedIndicator(t *testing.T) {
	cfg := config.DefaultEngine()
	cfg.IndicatorWeights = map[models.IndicatorName]float64{
		models.IndicatorPMI:       0.5,
		models.IndicatorGDPGrowth: 0.5,
	}
	cfg.RegimeThresholds.Voting = map[models.IndicatorName][]config.VotingRule{
		models.IndicatorPMI:       {{Regime: models.RegimeSlowdown, Strength: 0.8}},
		models.IndicatorGDPGrowth: {{Regime: models.RegimeExpansion, Strength: 0.8}},
	}
	c := New(cfg)

	got := c.Classify(models.IndicatorSet{models.IndicatorPMI: 50, models.IndicatorGDPGrowth: 2})

	assert.Equal(t, got.Scores[models.RegimeSlowdown], got.Scores[models.RegimeExpansion])
	assert.Equal(t, models.RegimeSlowdown, got.Regime)
}

func TestClassify_PMIMonotonicity(t *testing.T) {
	c := newClassifier()

	prevExpansion, prevContraction := -1.0, 2.0
	var last models.RegimeScoreResult
	for pmi := 44.0; pmi <= 56; pmi++ {
		last = c.Classify(models.IndicatorSet{
			models.IndicatorPMI:          pmi,
			models.IndicatorGDPGrowth:    1.0,
			models.IndicatorUnemployment: 5.0,
		})
		exp := last.Scores[models.RegimeExpansion]
		con := last.Scores[models.RegimeContraction]
		assert.GreaterOrEqual(t, exp, prevExpansion, "pmi=%v", pmi)
		assert.LessOrEqual(t, con, prevContraction, "pmi=%v", pmi)
		prevExpansion, prevContraction = exp, con
	}
	assert.Equal(t, models.RegimeExpansion, last.Regime)
}

func TestClassify_ResultAlwaysInRange(t *testing.T) {
	c := newClassifier()
	r := rand.New(rand.NewPCG(7, 11))

	for i := 0; i < 500; i++ {
		in := models.IndicatorSet{}
		if r.IntN(4) > 0 {
			in[models.IndicatorPMI] = 30 + r.Float64()*40
		}
		if r.IntN(4) > 0 {
			in[models.IndicatorGDPGrowth] = -5 + r.Float64()*10
		}
		if r.IntN(4) > 0 {
			in[models.IndicatorUnemployment] = r.Float64() * 15
		}

		got := c.Classify(in)
		assert.GreaterOrEqual(t, got.Confidence, 0.0)
		assert.LessOrEqual(t, got.Confidence, 1.0)
		if len(in) == 0 {
			assert.Equal(t, models.RegimeUnknown, got.Regime)
		} else {
			assert.Contains(t, models.KnownRegimes, got.Regime)
		}
	}
}
