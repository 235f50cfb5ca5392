package models

import (
	"fmt"
	"strings"
)

type AssetClass string

const (
	AssetStocks      AssetClass = "stocks"
	AssetBonds       AssetClass = "bonds"
	AssetCommodities AssetClass = "commodities"
	AssetCash        AssetClass = "cash"
)

var AssetClasses = []AssetClass{AssetStocks, AssetBonds, AssetCommodities, AssetCash}

// AllocationWeights are portfolio fractions per asset class.
type AllocationWeights struct {
	Stocks      float64 `json:"stocks" yaml:"stocks"`
	Bonds       float64 `json:"bonds" yaml:"bonds"`
	Commodities float64 `json:"commodities" yaml:"commodities"`
	Cash        float64 `json:"cash" yaml:"cash"`
}

func (w AllocationWeights) Sum() float64 {
	return w.Stocks + w.Bonds + w.Commodities + w.Cash
}

func (w AllocationWeights) Get(asset AssetClass) float64 {
	switch asset {
	case AssetStocks:
		return w.Stocks
	case AssetBonds:
		return w.Bonds
	case AssetCommodities:
		return w.Commodities
	case AssetCash:
		return w.Cash
	}
	return 0
}

func (w *AllocationWeights) Set(asset AssetClass, v float64) {
	switch asset {
	case AssetStocks:
		w.Stocks = v
	case AssetBonds:
		w.Bonds = v
	case AssetCommodities:
		w.Commodities = v
	case AssetCash:
		w.Cash = v
	}
}

// Normalize rescales to sum 1. It reports false when the sum is not positive.
func (w AllocationWeights) Normalize() (AllocationWeights, bool) {
	total := w.Sum()
	if total <= 0 {
		return w, false
	}
	return AllocationWeights{
		Stocks:      w.Stocks / total,
		Bonds:       w.Bonds / total,
		Commodities: w.Commodities / total,
		Cash:        w.Cash / total,
	}, true
}

// Turnover is the sum of absolute weight changes between two allocations.
func (w AllocationWeights) Turnover(prev AllocationWeights) float64 {
	var total float64
	for _, a := range AssetClasses {
		d := w.Get(a) - prev.Get(a)
		if d < 0 {
			d = -d
		}
		total += d
	}
	return total
}

type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskModerate     RiskProfile = "moderate"
	RiskAggressive   RiskProfile = "aggressive"
)

func ParseRiskProfile(s string) (RiskProfile, error) {
	p := RiskProfile(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case RiskConservative, RiskModerate, RiskAggressive:
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRiskProfile, s)
}

type Signal string

const (
	SignalHigh    Signal = "HIGH"
	SignalLow     Signal = "LOW"
	SignalNeutral Signal = "NEUTRAL"
)

// IndicatorContribution describes how one indicator moved the allocation.
type IndicatorContribution struct {
	Indicator  IndicatorName `json:"indicator"`
	Value      float64       `json:"value"`
	Normalized float64       `json:"normalized"`
	Signal     Signal        `json:"signal"`
	Strength   float64       `json:"strength"`
	Weight     float64       `json:"weight"`
}

type MarketStress struct {
	Score float64 `json:"score"`
	Level string  `json:"level"`
}

type AllocationBreakdown struct {
	Contributions      []IndicatorContribution `json:"contributions"`
	CompositeScore     float64                 `json:"composite_score"`
	RawAdjustments     map[AssetClass]float64  `json:"raw_adjustments"`
	ClampedAdjustments map[AssetClass]float64  `json:"clamped_adjustments"`
	CountryAdjustments map[AssetClass]float64  `json:"country_adjustments,omitempty"`
	SignalCounts       map[Signal]int          `json:"signal_counts"`
	DominantSignal     Signal                  `json:"dominant_signal"`
	Stress             MarketStress            `json:"market_stress"`
}

type AllocationResult struct {
	Regime       Regime            `json:"regime"`
	RiskProfile  RiskProfile       `json:"risk_profile"`
	Country      string            `json:"country,omitempty"`
	Base         AllocationWeights `json:"base"`
	Allocation   AllocationWeights `json:"allocation"`
	MaxDeviation float64           `json:"max_deviation"`
	// Degraded is set when normalization failed and the base allocation was returned.
	Degraded  bool                `json:"degraded"`
	Breakdown AllocationBreakdown `json:"breakdown"`
	Warnings  []string            `json:"warnings,omitempty"`
}
