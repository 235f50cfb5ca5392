package seasonal

import (
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/config"
	"OraclePortfolio/pkg/logger"
	"OraclePortfolio/pkg/util"
)

// familyOf maps indicators to the seasonal family whose pattern applies to them.
var familyOf = map[models.IndicatorName]models.IndicatorFamily{
	models.IndicatorElectricityGrowth: models.FamilyElectricity,
	models.IndicatorPMI:               models.FamilyPMI,
	models.IndicatorBalticDryIndex:    models.FamilyMaritime,
	models.IndicatorCopperPrice:       models.FamilyCommodity,
	models.IndicatorOilPrice:          models.FamilyCommodity,
	models.IndicatorGoldPrice:         models.FamilyCommodity,
	models.IndicatorSteelPrice:        models.FamilyCommodity,
	models.IndicatorAgriculturalIndex: models.FamilyCommodity,
	models.IndicatorLumberPrice:       models.FamilyCommodity,
}

const (
	pmiFloor   = 20
	pmiCeiling = 80
)

type Option func(*Adjuster)

// WithRandSource pins the jitter source used for transition months.
func WithRandSource(src rand.Source) Option {
	return func(a *Adjuster) {
		r := rand.New(src)
		var mu sync.Mutex
		a.uniform = func() float64 {
			mu.Lock()
			defer mu.Unlock()
			return r.Float64()
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Adjuster) { a.log = l }
}

// Adjuster applies monthly seasonal factors per indicator family with optional
// country corrections. It never fails: bad input passes through untouched.
type Adjuster struct {
	patterns    map[models.IndicatorFamily]models.SeasonalPattern
	corrections map[string]map[models.IndicatorFamily][]models.SeasonalCorrection
	uniform     func() float64
	log         *logger.Logger
}

func New(cfg config.EngineConfig, opts ...Option) *Adjuster {
	a := &Adjuster{
		patterns:    cfg.SeasonalPatterns,
		corrections: cfg.SeasonalCorrections,
		uniform:     rand.Float64,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Adjust deseasonalizes a single raw value.
func (a *Adjuster) Adjust(family models.IndicatorFamily, raw float64, country string, month int) models.AdjustedValue {
	out := models.AdjustedValue{
		Family:  family,
		Country: country,
		Month:   month,
		Raw:     raw,
		Value:   raw,
		Factor:  1,
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return out
	}
	f, ok := a.factor(family, country, month)
	if !ok {
		a.log.Debug("seasonal adjustment skipped",
			logger.String("family", string(family)),
			logger.Int("month", month))
		return out
	}
	if f.value <= 0 {
		a.log.Warn("seasonal factor not positive, value left raw",
			logger.String("family", string(family)),
			logger.String("country", country),
			logger.Int("month", month),
			logger.Float64("factor", f.value))
		return out
	}

	out.Factor = f.value
	out.Phase = f.phase
	out.Applied = f.applied
	out.Value = applyFactor(family, raw, f.value)
	out.Confidence = Confidence(f.value)
	return out
}

type factorResult struct {
	value   float64
	phase   models.SeasonalPhase
	applied []string
}

func (a *Adjuster) factor(family models.IndicatorFamily, country string, month int) (factorResult, bool) {
	pattern, ok := a.patterns[family]
	if !ok || !util.ValidMonth(month) {
		return factorResult{}, false
	}

	var res factorResult
	switch {
	case slices.Contains(pattern.PeakMonths, month):
		res.value = 1 + pattern.Amplitude
		res.phase = models.PhasePeak
	case slices.Contains(pattern.LowMonths, month):
		res.value = 1 - pattern.Amplitude
		res.phase = models.PhaseLow
	default:
		// uniform in [-A/3, +A/3]
		res.value = 1 + (a.uniform()*2-1)*pattern.Amplitude/3
		res.phase = models.PhaseTransition
	}

	for _, c := range a.corrections[country][family] {
		for _, key := range util.PeriodKeys(month) {
			if m, ok := c.Factors[key]; ok {
				res.value *= m
				res.applied = append(res.applied, c.Name)
				break
			}
		}
	}
	return res, true
}

func applyFactor(family models.IndicatorFamily, raw, f float64) float64 {
	if family == models.FamilyPMI {
		return clamp(raw-(f-1)*10, pmiFloor, pmiCeiling)
	}
	return raw / f
}

// Confidence buckets how much the adjusted value can be trusted given the size of the factor.
func Confidence(f float64) float64 {
	d := math.Abs(f - 1)
	switch {
	case d < 0.05:
		return 0.95
	case d < 0.15:
		return 0.85
	case d < 0.25:
		return 0.70
	}
	return 0.50
}

// AdjustTrend neutralizes a trend that the seasonal factor alone can explain.
func AdjustTrend(trend models.Trend, f float64) models.Trend {
	switch {
	case math.Abs(f-1) <= 0.05:
		return trend
	case f > 1.1 && trend == models.TrendDeteriorating:
		return models.TrendNeutral
	case f < 0.9 && trend == models.TrendImproving:
		return models.TrendNeutral
	}
	return trend
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
