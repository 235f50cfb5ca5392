package regime

import (
	"math"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

const (
	pmiAxisWeight  = 0.7
	elecAxisWeight = 0.3
	pmiFalloff     = 10.0
	elecFalloff    = 5.0
	coherenceBonus = 0.1
)

// ClassifyMatrix places PMI and electricity growth on a two-axis grid and picks
// the regime whose ranges fit best. Both indicators are required.
func (c *Classifier) ClassifyMatrix(indicators models.IndicatorSet) models.RegimeScoreResult {
	pmi, okPMI := indicators.Get(models.IndicatorPMI)
	elec, okElec := indicators.Get(models.IndicatorElectricityGrowth)
	if !okPMI || !okElec || len(c.matrix) == 0 {
		res := models.UnknownResult(models.ModeMatrix)
		if !okPMI {
			res.Missing = append(res.Missing, models.IndicatorPMI)
		}
		if !okElec {
			res.Missing = append(res.Missing, models.IndicatorElectricityGrowth)
		}
		return res
	}

	scores := make(map[models.Regime]float64, len(c.matrix))
	best := c.matrix[0]
	for i, rule := range c.matrix {
		s := pmiAxisWeight*rangeFit(pmi, rule.PMIRange, pmiFalloff) +
			elecAxisWeight*rangeFit(elec, rule.ElectricityRange, elecFalloff)
		scores[rule.Regime] = s
		if i > 0 && s > scores[best.Regime] {
			best = rule
		}
	}

	res := c.result(best.Regime, matrixConfidence(pmi, elec, best), scores, models.ModeMatrix)
	res.Considered = []models.IndicatorName{models.IndicatorPMI, models.IndicatorElectricityGrowth}
	pos := Position(pmi, elec)
	res.Position = &pos
	return res
}

// rangeFit is 1 inside [lo,hi] and decays linearly with distance to the nearest bound.
func rangeFit(v float64, r [2]float64, falloff float64) float64 {
	if v >= r[0] && v <= r[1] {
		return 1
	}
	d := math.Min(math.Abs(v-r[0]), math.Abs(v-r[1]))
	return math.Max(0, 1-d/falloff)
}

// centerFit is 1 at the range midpoint and 0 at or beyond the bounds.
func centerFit(v float64, r [2]float64) float64 {
	half := (r[1] - r[0]) / 2
	if half <= 0 {
		return 0
	}
	center := r[0] + half
	return math.Max(0, 1-math.Abs(v-center)/half)
}

func matrixConfidence(pmi, elec float64, rule config.MatrixRule) float64 {
	conf := pmiAxisWeight*centerFit(pmi, rule.PMIRange) + elecAxisWeight*centerFit(elec, rule.ElectricityRange)
	// PMI trend and electricity momentum pointing the same way
	if (pmi > 48) == (elec > 0) {
		conf += coherenceBonus
	}
	return math.Min(1, conf)
}

// Position returns the quadrant of the PMI x electricity-growth grid.
func Position(pmi, elec float64) models.MatrixPosition {
	p := models.MatrixPosition{
		X: round2((pmi - 40) / 20),
		Y: round2((elec + 10) / 20),
	}
	switch {
	case pmi >= 50 && elec >= 0:
		p.Quadrant, p.Position = models.RegimeExpansion, "top_right"
	case pmi >= 50:
		p.Quadrant, p.Position = models.RegimeSlowdown, "top_left"
	case elec < 0:
		p.Quadrant, p.Position = models.RegimeContraction, "bottom_left"
	default:
		p.Quadrant, p.Position = models.RegimeRecovery, "bottom_right"
	}

	switch {
	case pmi >= 55:
		p.PMILevel = "strong"
	case pmi >= 50:
		p.PMILevel = "expanding"
	case pmi >= 45:
		p.PMILevel = "contracting"
	default:
		p.PMILevel = "weak"
	}

	switch {
	case elec > 2:
		p.GrowthDirection = "accelerating"
	case elec >= -2:
		p.GrowthDirection = "flat"
	default:
		p.GrowthDirection = "decelerating"
	}
	return p
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
