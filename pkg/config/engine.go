package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"OraclePortfolio/internal/domain/models"
)

const sumTolerance = 1e-6

// VotingRule is one threshold of the voting classifier. A rule with neither
// Above nor Below set always matches and acts as the fallback.
type VotingRule struct {
	Above    *float64      `yaml:"above,omitempty" json:"above,omitempty"`
	Below    *float64      `yaml:"below,omitempty" json:"below,omitempty"`
	Regime   models.Regime `yaml:"regime" json:"regime"`
	Strength float64       `yaml:"strength" json:"strength" validate:"gte=0,lte=1"`
}

// Matches reports whether v satisfies the rule.
func (r VotingRule) Matches(v float64) bool {
	switch {
	case r.Above != nil:
		return v > *r.Above
	case r.Below != nil:
		return v < *r.Below
	}
	return true
}

type MatrixRule struct {
	Regime              models.Regime `yaml:"regime" json:"regime"`
	PMIRange            [2]float64    `yaml:"pmi_range" json:"pmi_range"`
	ElectricityRange    [2]float64    `yaml:"electricity_growth_range" json:"electricity_growth_range"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold" json:"confidence_threshold" validate:"gte=0,lte=1"`
}

type RegimeThresholds struct {
	Voting map[models.IndicatorName][]VotingRule `yaml:"voting" json:"voting"`
	// Matrix order is significant: earlier rules win ties.
	Matrix []MatrixRule `yaml:"matrix" json:"matrix"`
}

// PhysicalIndicator describes how the allocation scorer reads one indicator.
// When Scale is positive the indicator is index-like and its strength is
// (value-Neutral)/Scale; otherwise strength comes from the composite score.
type PhysicalIndicator struct {
	Weight   float64 `yaml:"weight" json:"weight" validate:"gte=0,lte=1"`
	Baseline float64 `yaml:"baseline" json:"baseline" validate:"gt=0"`
	Shift    float64 `yaml:"shift" json:"shift"`
	Cap      float64 `yaml:"cap" json:"cap" validate:"gte=0"`
	High     float64 `yaml:"high" json:"high"`
	Low      float64 `yaml:"low" json:"low"`
	Neutral  float64 `yaml:"neutral" json:"neutral"`
	Scale    float64 `yaml:"scale" json:"scale" validate:"gte=0"`
}

type RiskProfileConfig struct {
	MaxDeviation float64 `yaml:"max_deviation" json:"max_deviation" validate:"gt=0,lte=1"`
	Description  string  `yaml:"description" json:"description"`
}

type BacktestDefaults struct {
	InitialCapital      float64                             `yaml:"initial_capital" json:"initial_capital" validate:"gt=0"`
	TransactionCostRate float64                             `yaml:"transaction_cost_rate" json:"transaction_cost_rate" validate:"gte=0,lt=1"`
	RiskFreeRate        float64                             `yaml:"risk_free_rate" json:"risk_free_rate"`
	Periods             int                                 `yaml:"periods" json:"periods" validate:"gte=1"`
	Reference           string                              `yaml:"reference" json:"reference" validate:"required"`
	Benchmarks          map[string]models.AllocationWeights `yaml:"benchmarks" json:"benchmarks"`
}

// EngineConfig holds every table used by the classification and allocation engine.
// It is loaded once and treated as immutable afterwards.
type EngineConfig struct {
	RegimeThresholds    RegimeThresholds                                                  `yaml:"regime_thresholds" json:"regime_thresholds"`
	IndicatorWeights    map[models.IndicatorName]float64                                  `yaml:"indicator_weights" json:"indicator_weights"`
	CorrelationMatrix   map[models.IndicatorName]map[models.AssetClass]float64            `yaml:"correlation_matrix" json:"correlation_matrix"`
	PhysicalIndicators  map[models.IndicatorName]PhysicalIndicator                        `yaml:"physical_indicators" json:"physical_indicators"`
	SeasonalPatterns    map[models.IndicatorFamily]models.SeasonalPattern                 `yaml:"seasonal_patterns" json:"seasonal_patterns"`
	SeasonalCorrections map[string]map[models.IndicatorFamily][]models.SeasonalCorrection `yaml:"seasonal_corrections" json:"seasonal_corrections"`
	RiskProfiles        map[models.RiskProfile]RiskProfileConfig                          `yaml:"risk_profiles" json:"risk_profiles"`
	BaseAllocations     map[models.Regime]models.AllocationWeights                        `yaml:"base_allocations" json:"base_allocations"`
	CountryAdjustments  map[string]map[models.AssetClass]float64                          `yaml:"country_adjustments" json:"country_adjustments"`
	RegimeProfiles      map[models.Regime]models.RegimeProfile                            `yaml:"regime_profiles" json:"regime_profiles"`
	Backtest            BacktestDefaults                                                  `yaml:"backtest" json:"backtest"`
}

func ptr(v float64) *float64 { return &v }

// DefaultEngine returns the built-in engine tables.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		RegimeThresholds: RegimeThresholds{
			Voting: map[models.IndicatorName][]VotingRule{
				models.IndicatorPMI: {
					{Above: ptr(55), Regime: models.RegimeExpansion, Strength: 0.9},
					{Above: ptr(50), Regime: models.RegimeSlowdown, Strength: 0.7},
					{Above: ptr(45), Regime: models.RegimeContraction, Strength: 0.8},
					{Regime: models.RegimeContraction, Strength: 0.9},
				},
				models.IndicatorGDPGrowth: {
					{Above: ptr(2.5), Regime: models.RegimeExpansion, Strength: 0.8},
					{Above: ptr(0), Regime: models.RegimeSlowdown, Strength: 0.7},
					{Regime: models.RegimeContraction, Strength: 0.9},
				},
				models.IndicatorUnemployment: {
					{Below: ptr(4), Regime: models.RegimeExpansion, Strength: 0.8},
					{Below: ptr(7), Regime: models.RegimeSlowdown, Strength: 0.6},
					{Regime: models.RegimeContraction, Strength: 0.8},
				},
			},
			Matrix: []MatrixRule{
				{Regime: models.RegimeExpansion, PMIRange: [2]float64{52, 100}, ElectricityRange: [2]float64{2, 15}, ConfidenceThreshold: 0.75},
				{Regime: models.RegimeSlowdown, PMIRange: [2]float64{48, 52}, ElectricityRange: [2]float64{-2, 2}, ConfidenceThreshold: 0.65},
				{Regime: models.RegimeContraction, PMIRange: [2]float64{0, 48}, ElectricityRange: [2]float64{-15, -2}, ConfidenceThreshold: 0.70},
				{Regime: models.RegimeRecovery, PMIRange: [2]float64{48, 55}, ElectricityRange: [2]float64{0, 8}, ConfidenceThreshold: 0.60},
			},
		},
		IndicatorWeights: map[models.IndicatorName]float64{
			models.IndicatorPMI:               0.35,
			models.IndicatorGDPGrowth:         0.25,
			models.IndicatorUnemployment:      0.20,
			models.IndicatorElectricityGrowth: 0.20,
		},
		CorrelationMatrix: map[models.IndicatorName]map[models.AssetClass]float64{
			models.IndicatorPMI:               {models.AssetStocks: 0.75, models.AssetBonds: -0.40, models.AssetCommodities: 0.30},
			models.IndicatorElectricityGrowth: {models.AssetStocks: 0.65, models.AssetBonds: -0.30, models.AssetCommodities: 0.40},
			models.IndicatorCopperPrice:       {models.AssetStocks: 0.70, models.AssetBonds: -0.25, models.AssetCommodities: 0.85},
			models.IndicatorOilPrice:          {models.AssetStocks: 0.45, models.AssetBonds: -0.20, models.AssetCommodities: 0.90},
			models.IndicatorGoldPrice:         {models.AssetStocks: -0.20, models.AssetBonds: 0.10, models.AssetCommodities: 0.60},
			models.IndicatorBalticDryIndex:    {models.AssetStocks: 0.55, models.AssetBonds: -0.20, models.AssetCommodities: 0.60},
			models.IndicatorSteelPrice:        {models.AssetStocks: 0.60, models.AssetBonds: -0.20, models.AssetCommodities: 0.55},
			models.IndicatorAgriculturalIndex: {models.AssetStocks: -0.10, models.AssetBonds: -0.20, models.AssetCommodities: 0.70},
			models.IndicatorLumberPrice:       {models.AssetStocks: 0.50, models.AssetBonds: -0.20, models.AssetCommodities: 0.45},
		},
		PhysicalIndicators: map[models.IndicatorName]PhysicalIndicator{
			models.IndicatorPMI:               {Weight: 0.15, Baseline: 50, High: 52, Low: 48, Neutral: 50, Scale: 10},
			models.IndicatorElectricityGrowth: {Weight: 0.15, Baseline: 100, Shift: 100, Cap: 1.5, High: 2, Low: -2},
			models.IndicatorCopperPrice:       {Weight: 0.15, Baseline: 3.6, Cap: 1.5, High: 4.0, Low: 2.5},
			models.IndicatorOilPrice:          {Weight: 0.15, Baseline: 70, Cap: 1.5, High: 80, Low: 50},
			models.IndicatorGoldPrice:         {Weight: 0.10, Baseline: 1900, Cap: 1.2, High: 2000, Low: 1500},
			models.IndicatorBalticDryIndex:    {Weight: 0.10, Baseline: 1500, Cap: 1.5, High: 2000, Low: 800},
			models.IndicatorSteelPrice:        {Weight: 0.08, Baseline: 600, Cap: 1.5, High: 800, Low: 400},
			models.IndicatorAgriculturalIndex: {Weight: 0.06, Baseline: 105, Cap: 1.3, High: 120, Low: 90},
			models.IndicatorLumberPrice:       {Weight: 0.06, Baseline: 450, Cap: 1.5, High: 600, Low: 300},
		},
		SeasonalPatterns: map[models.IndicatorFamily]models.SeasonalPattern{
			models.FamilyElectricity: {PeakMonths: []int{12, 1, 2}, LowMonths: []int{5, 6, 7, 8, 9}, Amplitude: 0.25},
			models.FamilyPMI:         {PeakMonths: []int{3, 4, 10, 11}, LowMonths: []int{1, 7, 8}, Amplitude: 0.08},
			models.FamilyMaritime:    {PeakMonths: []int{9, 10, 11}, LowMonths: []int{1, 2}, Amplitude: 0.15},
			models.FamilyCommodity:   {PeakMonths: []int{6, 7, 8}, LowMonths: []int{11, 12, 1}, Amplitude: 0.12},
		},
		SeasonalCorrections: map[string]map[models.IndicatorFamily][]models.SeasonalCorrection{
			"FRA": {
				models.FamilyElectricity: {
					{Name: "winter_heating", Factors: map[string]float64{"winter": 1.3}},
					{Name: "summer_cooling", Factors: map[string]float64{"summer": 0.8}},
				},
				models.FamilyPMI: {
					{Name: "august_shutdown", Factors: map[string]float64{"august": 0.85}},
					{Name: "september_restart", Factors: map[string]float64{"september": 1.1}},
				},
			},
			"DEU": {
				models.FamilyElectricity: {
					{Name: "industrial_shutdown", Factors: map[string]float64{"july": 0.9, "august": 0.85}},
				},
				models.FamilyPMI: {
					{Name: "export_seasonality", Factors: map[string]float64{"q4": 1.1, "q1": 0.95}},
				},
			},
			"GBR": {
				models.FamilyElectricity: {
					{Name: "heating_demand", Factors: map[string]float64{"winter": 1.4, "summer": 0.7}},
				},
				models.FamilyPMI: {
					{Name: "brexit_uncertainty", Factors: map[string]float64{"q1": 0.95, "q4": 1.05}},
				},
			},
			"USA": {
				models.FamilyElectricity: {
					{Name: "cooling_demand", Factors: map[string]float64{"summer": 1.3, "winter": 0.9}},
				},
				models.FamilyPMI: {
					{Name: "holiday_impact", Factors: map[string]float64{"november": 0.9, "december": 0.85}},
				},
			},
			"JPN": {
				models.FamilyElectricity: {
					{Name: "typhoon_season", Factors: map[string]float64{"summer": 0.9, "autumn": 1.1}},
				},
				models.FamilyPMI: {
					{Name: "golden_week", Factors: map[string]float64{"may": 0.8}},
					{Name: "year_end", Factors: map[string]float64{"december": 0.9}},
				},
			},
		},
		RiskProfiles: map[models.RiskProfile]RiskProfileConfig{
			models.RiskConservative: {MaxDeviation: 0.15, Description: "capital preservation, limited tilts"},
			models.RiskModerate:     {MaxDeviation: 0.20, Description: "balanced growth and protection"},
			models.RiskAggressive:   {MaxDeviation: 0.25, Description: "growth seeking, wide tilts"},
		},
		BaseAllocations: map[models.Regime]models.AllocationWeights{
			models.RegimeExpansion:   {Stocks: 0.70, Bonds: 0.20, Commodities: 0.10},
			models.RegimeSlowdown:    {Stocks: 0.50, Bonds: 0.40, Commodities: 0.10},
			models.RegimeContraction: {Stocks: 0.30, Bonds: 0.60, Commodities: 0.10},
			models.RegimeRecovery:    {Stocks: 0.65, Bonds: 0.25, Commodities: 0.10},
			models.RegimeStagflation: {Stocks: 0.40, Bonds: 0.20, Commodities: 0.35, Cash: 0.05},
			models.RegimeBoom:        {Stocks: 0.75, Bonds: 0.15, Commodities: 0.05, Cash: 0.05},
		},
		CountryAdjustments: map[string]map[models.AssetClass]float64{
			"JPN": {models.AssetBonds: 0.05, models.AssetStocks: -0.05},
			"USA": {models.AssetStocks: 0.05, models.AssetBonds: -0.05},
			"DEU": {models.AssetCommodities: 0.02, models.AssetStocks: -0.02},
		},
		RegimeProfiles: map[models.Regime]models.RegimeProfile{
			models.RegimeExpansion:   {RiskLevel: "moderate_high", RebalancingFrequency: "quarterly", Description: "strong growth, rising industrial activity"},
			models.RegimeSlowdown:    {RiskLevel: "moderate", RebalancingFrequency: "monthly", Description: "growth decelerating, prefer quality"},
			models.RegimeContraction: {RiskLevel: "low", RebalancingFrequency: "monthly", Description: "falling activity, defensive positioning"},
			models.RegimeRecovery:    {RiskLevel: "moderate_high", RebalancingFrequency: "bi_monthly", Description: "activity turning up from a trough"},
			models.RegimeStagflation: {RiskLevel: "high", RebalancingFrequency: "monthly", Description: "weak growth with rising prices"},
			models.RegimeBoom:        {RiskLevel: "high", RebalancingFrequency: "quarterly", Description: "overheating growth"},
		},
		Backtest: BacktestDefaults{
			InitialCapital:      100000,
			TransactionCostRate: 0.001,
			RiskFreeRate:        0.02,
			Periods:             24,
			Reference:           "static_moderate",
			Benchmarks: map[string]models.AllocationWeights{
				"static_conservative": {Stocks: 0.40, Bonds: 0.55, Commodities: 0.05},
				"static_moderate":     {Stocks: 0.60, Bonds: 0.35, Commodities: 0.05},
				"static_aggressive":   {Stocks: 0.80, Bonds: 0.15, Commodities: 0.05},
				"equal_weight":        {Stocks: 0.33, Bonds: 0.33, Commodities: 0.34},
			},
		},
	}
}

var periodKeys = map[string]struct{}{
	"january": {}, "february": {}, "march": {}, "april": {}, "may": {}, "june": {},
	"july": {}, "august": {}, "september": {}, "october": {}, "november": {}, "december": {},
	"winter": {}, "spring": {}, "summer": {}, "autumn": {},
	"q1": {}, "q2": {}, "q3": {}, "q4": {},
}

// Validate checks structural tags and the cross-field invariants of the engine tables.
func (e *EngineConfig) Validate() error {
	v := validator.New()
	var errs []error

	if err := validateWeights("indicator_weights", e.IndicatorWeights); err != nil {
		errs = append(errs, err)
	}

	for name, rules := range e.RegimeThresholds.Voting {
		if !name.Valid() {
			errs = append(errs, fmt.Errorf("regime_thresholds.voting: unknown indicator %q", name))
		}
		for i, r := range rules {
			if !knownRegime(r.Regime) {
				errs = append(errs, fmt.Errorf("regime_thresholds.voting.%s[%d]: unknown regime %q", name, i, r.Regime))
			}
			if err := v.Struct(r); err != nil {
				errs = append(errs, fmt.Errorf("regime_thresholds.voting.%s[%d]: %w", name, i, err))
			}
		}
	}
	for i, m := range e.RegimeThresholds.Matrix {
		if !knownRegime(m.Regime) {
			errs = append(errs, fmt.Errorf("regime_thresholds.matrix[%d]: unknown regime %q", i, m.Regime))
		}
		if m.PMIRange[0] > m.PMIRange[1] || m.ElectricityRange[0] > m.ElectricityRange[1] {
			errs = append(errs, fmt.Errorf("regime_thresholds.matrix[%d]: range bounds out of order", i))
		}
		if err := v.Struct(m); err != nil {
			errs = append(errs, fmt.Errorf("regime_thresholds.matrix[%d]: %w", i, err))
		}
	}

	physWeights := make(map[models.IndicatorName]float64, len(e.PhysicalIndicators))
	for name, p := range e.PhysicalIndicators {
		if !name.Valid() {
			errs = append(errs, fmt.Errorf("physical_indicators: unknown indicator %q", name))
		}
		if err := v.Struct(p); err != nil {
			errs = append(errs, fmt.Errorf("physical_indicators.%s: %w", name, err))
		}
		if p.Low > p.High {
			errs = append(errs, fmt.Errorf("physical_indicators.%s: low %.4g above high %.4g", name, p.Low, p.High))
		}
		physWeights[name] = p.Weight
	}
	if err := validateWeights("physical_indicators weights", physWeights); err != nil {
		errs = append(errs, err)
	}
	for name := range e.CorrelationMatrix {
		if !name.Valid() {
			errs = append(errs, fmt.Errorf("correlation_matrix: unknown indicator %q", name))
		}
	}

	for family, p := range e.SeasonalPatterns {
		if err := v.Struct(p); err != nil {
			errs = append(errs, fmt.Errorf("seasonal_patterns.%s: %w", family, err))
		}
	}
	for country, families := range e.SeasonalCorrections {
		for family, corrections := range families {
			for _, c := range corrections {
				for key, factor := range c.Factors {
					if _, ok := periodKeys[key]; !ok {
						errs = append(errs, fmt.Errorf("seasonal_corrections.%s.%s.%s: unknown period %q", country, family, c.Name, key))
					}
					if factor <= 0 {
						errs = append(errs, fmt.Errorf("seasonal_corrections.%s.%s.%s: factor must be positive", country, family, c.Name))
					}
				}
			}
		}
	}

	for _, p := range []models.RiskProfile{models.RiskConservative, models.RiskModerate, models.RiskAggressive} {
		rp, ok := e.RiskProfiles[p]
		if !ok {
			errs = append(errs, fmt.Errorf("risk_profiles: missing %q", p))
			continue
		}
		if err := v.Struct(rp); err != nil {
			errs = append(errs, fmt.Errorf("risk_profiles.%s: %w", p, err))
		}
	}

	for _, r := range []models.Regime{models.RegimeExpansion, models.RegimeSlowdown, models.RegimeContraction, models.RegimeRecovery} {
		if _, ok := e.BaseAllocations[r]; !ok {
			errs = append(errs, fmt.Errorf("base_allocations: missing %s", r))
		}
	}
	for r, w := range e.BaseAllocations {
		if err := validateAllocation(fmt.Sprintf("base_allocations.%s", r), w); err != nil {
			errs = append(errs, err)
		}
	}

	if err := v.Struct(e.Backtest); err != nil {
		errs = append(errs, fmt.Errorf("backtest: %w", err))
	}
	for name, w := range e.Backtest.Benchmarks {
		if err := validateAllocation("backtest.benchmarks."+name, w); err != nil {
			errs = append(errs, err)
		}
	}
	if _, ok := e.Backtest.Benchmarks[e.Backtest.Reference]; !ok {
		errs = append(errs, fmt.Errorf("backtest.reference %q is not a configured benchmark", e.Backtest.Reference))
	}

	return errors.Join(errs...)
}

func validateWeights(field string, weights map[models.IndicatorName]float64) error {
	var sum float64
	for name, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s: negative weight for %s", field, name)
		}
		sum += w
	}
	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%s must sum to 1, got %.6f", field, sum)
	}
	return nil
}

func validateAllocation(field string, w models.AllocationWeights) error {
	for _, a := range models.AssetClasses {
		if w.Get(a) < 0 {
			return fmt.Errorf("%s: negative %s weight", field, a)
		}
	}
	if math.Abs(w.Sum()-1) > sumTolerance {
		return fmt.Errorf("%s must sum to 1, got %.6f", field, w.Sum())
	}
	return nil
}

func knownRegime(r models.Regime) bool {
	for _, known := range models.KnownRegimes {
		if r == known {
			return true
		}
	}
	return false
}
