package regime

import (
	"math"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
)

const defaultReliability = 0.6

// Classifier scores regimes from indicator thresholds. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	rules      map[models.IndicatorName][]config.VotingRule
	weights    map[models.IndicatorName]float64
	matrix     []config.MatrixRule
	profiles   map[models.Regime]models.RegimeProfile
	thresholds map[models.Regime]float64
}

func New(cfg config.EngineConfig) *Classifier {
	c := &Classifier{
		rules:      cfg.RegimeThresholds.Voting,
		weights:    cfg.IndicatorWeights,
		matrix:     cfg.RegimeThresholds.Matrix,
		profiles:   cfg.RegimeProfiles,
		thresholds: make(map[models.Regime]float64, len(cfg.RegimeThresholds.Matrix)),
	}
	for _, m := range cfg.RegimeThresholds.Matrix {
		c.thresholds[m.Regime] = m.ConfidenceThreshold
	}
	return c
}

// Classify runs weighted threshold voting. Indicators are evaluated in
// enumeration order and each casts one vote through its first matching rule.
// Confidence is the winner's score over the total weight of indicators that voted.
func (c *Classifier) Classify(indicators models.IndicatorSet) models.RegimeScoreResult {
	scores := make(map[models.Regime]float64)
	var (
		seen       []models.Regime
		considered []models.IndicatorName
		missing    []models.IndicatorName
		weightSum  float64
	)

	for _, name := range models.AllIndicators {
		rules := c.rules[name]
		w := c.weights[name]
		if len(rules) == 0 || w <= 0 {
			continue
		}
		v, ok := indicators.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		for _, r := range rules {
			if !r.Matches(v) {
				continue
			}
			if _, voted := scores[r.Regime]; !voted {
				seen = append(seen, r.Regime)
			}
			scores[r.Regime] += r.Strength * w
			weightSum += w
			considered = append(considered, name)
			break
		}
	}

	if weightSum == 0 {
		res := models.UnknownResult(models.ModeVoting)
		res.Missing = missing
		return res
	}

	// first seen wins ties
	winner := seen[0]
	for _, r := range seen[1:] {
		if scores[r] > scores[winner] {
			winner = r
		}
	}

	res := c.result(winner, math.Min(1, scores[winner]/weightSum), scores, models.ModeVoting)
	res.Considered = considered
	res.Missing = missing
	return res
}

func (c *Classifier) result(winner models.Regime, confidence float64, scores map[models.Regime]float64, mode models.ClassificationMode) models.RegimeScoreResult {
	res := models.RegimeScoreResult{
		Regime:     winner,
		Confidence: confidence,
		Scores:     scores,
		Mode:       mode,
		Reliable:   confidence >= c.threshold(winner),
	}
	if p, ok := c.profiles[winner]; ok {
		res.Profile = &p
	}
	return res
}

func (c *Classifier) threshold(r models.Regime) float64 {
	if t, ok := c.thresholds[r]; ok {
		return t
	}
	return defaultReliability
}
