package features

import (
	"math"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

// Normalize maps a raw reading onto a ratio around 1.0: (v+shift)/baseline, capped.
// A zero cap means no cap.
func Normalize(v float64, p config.PhysicalIndicator) float64 {
	if p.Baseline <= 0 {
		return 0
	}
	n := (v + p.Shift) / p.Baseline
	if p.Cap > 0 && n > p.Cap {
		n = p.Cap
	}
	return n
}

// CompositeScore is the weight-averaged normalized value over the indicators present.
// It returns 1 (neutral) when nothing usable is available.
func CompositeScore(indicators models.IndicatorSet, table map[models.IndicatorName]config.PhysicalIndicator) float64 {
	var sum, weights float64
	for _, name := range models.AllIndicators {
		p, ok := table[name]
		if !ok || p.Weight <= 0 {
			continue
		}
		v, ok := indicators.Get(name)
		if !ok {
			continue
		}
		sum += Normalize(v, p) * p.Weight
		weights += p.Weight
	}
	if weights == 0 {
		return 1
	}
	return sum / weights
}

// Classify labels a reading HIGH, LOW or NEUTRAL against its thresholds.
func Classify(v float64, p config.PhysicalIndicator) models.Signal {
	switch {
	case v >= p.High:
		return models.SignalHigh
	case v <= p.Low:
		return models.SignalLow
	}
	return models.SignalNeutral
}

// Strength is the signed intensity of a reading. Index-like indicators
// (positive Scale) measure distance from their neutral level; the others
// share the composite deviation from 1.
func Strength(v float64, p config.PhysicalIndicator, composite float64) float64 {
	if p.Scale > 0 {
		return (v - p.Neutral) / p.Scale
	}
	return composite - 1
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
