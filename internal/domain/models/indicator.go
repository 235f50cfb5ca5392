package models

import (
	"math"
	"sort"
	"time"
)

// IndicatorName identifies one macroeconomic or physical market indicator.
type IndicatorName string

const (
	IndicatorPMI               IndicatorName = "pmi"
	IndicatorGDPGrowth         IndicatorName = "gdp_growth"
	IndicatorUnemployment      IndicatorName = "unemployment"
	IndicatorElectricityGrowth IndicatorName = "electricity_growth"
	IndicatorCopperPrice       IndicatorName = "copper_price"
	IndicatorOilPrice          IndicatorName = "oil_price"
	IndicatorGoldPrice         IndicatorName = "gold_price"
	IndicatorBalticDryIndex    IndicatorName = "baltic_dry_index"
	IndicatorSteelPrice        IndicatorName = "steel_price"
	IndicatorAgriculturalIndex IndicatorName = "agricultural_index"
	IndicatorLumberPrice       IndicatorName = "lumber_price"
)

// AllIndicators is the enumeration order, also used to break ties deterministically.
var AllIndicators = []IndicatorName{
	IndicatorPMI,
	IndicatorGDPGrowth,
	IndicatorUnemployment,
	IndicatorElectricityGrowth,
	IndicatorCopperPrice,
	IndicatorOilPrice,
	IndicatorGoldPrice,
	IndicatorBalticDryIndex,
	IndicatorSteelPrice,
	IndicatorAgriculturalIndex,
	IndicatorLumberPrice,
}

func (n IndicatorName) Valid() bool {
	for _, known := range AllIndicators {
		if n == known {
			return true
		}
	}
	return false
}

// IndicatorSet maps indicator names to their latest values. Absent keys mean unavailable.
type IndicatorSet map[IndicatorName]float64

// Get returns the value and whether it is usable. NaN and Inf count as unavailable.
func (s IndicatorSet) Get(name IndicatorName) (float64, bool) {
	v, ok := s[name]
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func (s IndicatorSet) Clone() IndicatorSet {
	out := make(IndicatorSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Names returns the usable indicator names in enumeration order.
func (s IndicatorSet) Names() []IndicatorName {
	names := make([]IndicatorName, 0, len(s))
	for _, name := range AllIndicators {
		if _, ok := s.Get(name); ok {
			names = append(names, name)
		}
	}
	return names
}

// IndicatorSetFromMap converts loosely typed input, returning the keys it did not recognize.
func IndicatorSetFromMap(raw map[string]float64) (IndicatorSet, []string) {
	set := make(IndicatorSet, len(raw))
	var unknown []string
	for k, v := range raw {
		name := IndicatorName(k)
		if !name.Valid() {
			unknown = append(unknown, k)
			continue
		}
		set[name] = v
	}
	sort.Strings(unknown)
	return set, unknown
}

// IndicatorSnapshot is a dated set of observations for one country.
type IndicatorSnapshot struct {
	Country    string       `json:"country"`
	Indicators IndicatorSet `json:"indicators"`
	ObservedAt time.Time    `json:"observed_at"`
	Source     string       `json:"source,omitempty"`
}
