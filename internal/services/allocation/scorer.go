package allocation

import (
	"fmt"
	"strings"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/services/features"
	"OraclePortfolio/pkg/config"
	"OraclePortfolio/pkg/logger"
)

// riskAssets receive indicator tilts. Cash only moves through normalization and country nudges.
var riskAssets = []models.AssetClass{models.AssetStocks, models.AssetBonds, models.AssetCommodities}

type Option func(*Scorer)

func WithLogger(l *logger.Logger) Option {
	return func(s *Scorer) { s.log = l }
}

// Scorer translates a regime and physical indicators into portfolio weights.
// It is deterministic and safe for concurrent use.
type Scorer struct {
	base     map[models.Regime]models.AllocationWeights
	profiles map[models.RiskProfile]config.RiskProfileConfig
	physical map[models.IndicatorName]config.PhysicalIndicator
	corr     map[models.IndicatorName]map[models.AssetClass]float64
	country  map[string]map[models.AssetClass]float64
	log      *logger.Logger
}

func New(cfg config.EngineConfig, opts ...Option) *Scorer {
	s := &Scorer{
		base:     cfg.BaseAllocations,
		profiles: cfg.RiskProfiles,
		physical: cfg.PhysicalIndicators,
		corr:     cfg.CorrelationMatrix,
		country:  cfg.CountryAdjustments,
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Base returns the configured base allocation for a regime.
func (s *Scorer) Base(r models.Regime) (models.AllocationWeights, bool) {
	w, ok := s.base[r]
	return w, ok && r != models.RegimeUnknown
}

func (s *Scorer) Score(regime models.Regime, profile models.RiskProfile, indicators models.IndicatorSet, country string) (models.AllocationResult, error) {
	base, ok := s.Base(regime)
	if !ok {
		return models.AllocationResult{}, models.NewConfigurationError("regime", string(regime), models.ErrUnknownRegime)
	}
	rp, ok := s.profiles[profile]
	if !ok {
		return models.AllocationResult{}, models.NewConfigurationError("risk_profile", string(profile), models.ErrUnknownRiskProfile)
	}
	country = strings.ToUpper(country)

	res := models.AllocationResult{
		Regime:       regime,
		RiskProfile:  profile,
		Country:      country,
		Base:         base,
		MaxDeviation: rp.MaxDeviation,
	}
	bd := &res.Breakdown
	bd.CompositeScore = features.CompositeScore(indicators, s.physical)
	bd.RawAdjustments = make(map[models.AssetClass]float64, len(riskAssets))
	bd.ClampedAdjustments = make(map[models.AssetClass]float64, len(riskAssets))
	bd.SignalCounts = make(map[models.Signal]int, 3)

	var missing []string
	for _, name := range models.AllIndicators {
		p, ok := s.physical[name]
		if !ok {
			continue
		}
		v, ok := indicators.Get(name)
		if !ok {
			missing = append(missing, string(name))
			continue
		}

		c := models.IndicatorContribution{
			Indicator:  name,
			Value:      v,
			Normalized: features.Normalize(v, p),
			Signal:     features.Classify(v, p),
			Strength:   features.Strength(v, p, bd.CompositeScore),
			Weight:     p.Weight,
		}
		for _, asset := range riskAssets {
			bd.RawAdjustments[asset] += c.Strength * s.corr[name][asset] * p.Weight
		}
		bd.SignalCounts[c.Signal]++
		bd.Contributions = append(bd.Contributions, c)
	}
	if len(missing) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%v: %s", models.ErrMissingIndicator, strings.Join(missing, ", ")))
	}
	bd.DominantSignal = dominantSignal(bd.SignalCounts)
	bd.Stress = MarketStress(bd.Contributions)

	final := base
	for _, asset := range riskAssets {
		adj := features.Clamp(bd.RawAdjustments[asset], -rp.MaxDeviation, rp.MaxDeviation)
		bd.ClampedAdjustments[asset] = adj
		final.Set(asset, max(0, base.Get(asset)+adj))
	}

	if nudges, ok := s.country[country]; ok {
		bd.CountryAdjustments = make(map[models.AssetClass]float64, len(nudges))
		for asset, d := range nudges {
			final.Set(asset, features.Clamp(final.Get(asset)+d, 0, 1))
			bd.CountryAdjustments[asset] = d
		}
	}

	normalized, ok := final.Normalize()
	if !ok {
		s.log.Warn("allocation fell back to base weights",
			logger.String("regime", string(regime)),
			logger.String("risk_profile", string(profile)),
			logger.Float64("sum", final.Sum()))
		res.Degraded = true
		res.Warnings = append(res.Warnings, models.ErrInvalidAllocationSum.Error())
		normalized, _ = base.Normalize()
	}
	res.Allocation = normalized
	return res, nil
}

func dominantSignal(counts map[models.Signal]int) models.Signal {
	dominant := models.SignalNeutral
	best := counts[models.SignalNeutral]
	for _, sig := range []models.Signal{models.SignalHigh, models.SignalLow} {
		if counts[sig] > best {
			dominant, best = sig, counts[sig]
		}
	}
	return dominant
}
