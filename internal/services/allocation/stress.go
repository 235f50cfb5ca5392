package allocation

import (
	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/services/features"
)

const (
	baselineStress = 0.2
	maxStress      = 0.8
)

// stressSignals are the readings that indicate market stress, with their severity.
var stressSignals = map[models.IndicatorName]struct {
	signal   models.Signal
	severity float64
}{
	models.IndicatorGoldPrice:      {models.SignalHigh, 0.8},
	models.IndicatorOilPrice:       {models.SignalHigh, 0.7},
	models.IndicatorCopperPrice:    {models.SignalLow, 0.6},
	models.IndicatorBalticDryIndex: {models.SignalLow, 0.5},
}

// MarketStress scores 0-100 from the weighted severity of stress signals,
// relative to the worst attainable severity over the indicators present.
func MarketStress(contributions []models.IndicatorContribution) models.MarketStress {
	var sum, weights float64
	for _, c := range contributions {
		severity := baselineStress
		if s, ok := stressSignals[c.Indicator]; ok && s.signal == c.Signal {
			severity = s.severity
		}
		sum += c.Weight * severity
		weights += c.Weight
	}

	var score float64
	if weights > 0 {
		score = features.Clamp(sum/(weights*maxStress)*100, 0, 100)
	}
	return models.MarketStress{Score: score, Level: stressLevel(score)}
}

func stressLevel(score float64) string {
	switch {
	case score >= 70:
		return "EXTREME"
	case score >= 50:
		return "HIGH"
	case score >= 30:
		return "MODERATE"
	}
	return "LOW"
}
