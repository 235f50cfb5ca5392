package models

import (
	"fmt"
	"strings"
)

type Regime string

const (
	RegimeExpansion   Regime = "EXPANSION"
	RegimeSlowdown    Regime = "SLOWDOWN"
	RegimeContraction Regime = "CONTRACTION"
	RegimeRecovery    Regime = "RECOVERY"
	RegimeStagflation Regime = "STAGFLATION"
	RegimeBoom        Regime = "BOOM"
	RegimeUnknown     Regime = "UNKNOWN"
)

// KnownRegimes lists every classifiable regime. UNKNOWN is deliberately absent.
var KnownRegimes = []Regime{
	RegimeExpansion,
	RegimeSlowdown,
	RegimeContraction,
	RegimeRecovery,
	RegimeStagflation,
	RegimeBoom,
}

func ParseRegime(s string) (Regime, error) {
	r := Regime(strings.ToUpper(strings.TrimSpace(s)))
	if r == RegimeUnknown {
		return r, nil
	}
	for _, known := range KnownRegimes {
		if r == known {
			return r, nil
		}
	}
	return RegimeUnknown, fmt.Errorf("%w: %q", ErrUnknownRegime, s)
}

type ClassificationMode string

const (
	ModeVoting ClassificationMode = "voting"
	ModeMatrix ClassificationMode = "matrix"
)

// ParseMode defaults an empty string to voting.
func ParseMode(s string) (ClassificationMode, error) {
	switch m := ClassificationMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeVoting, nil
	case ModeVoting, ModeMatrix:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// MatrixPosition places a country on the PMI x electricity-growth grid.
type MatrixPosition struct {
	Quadrant        Regime  `json:"quadrant"`
	Position        string  `json:"position"`
	PMILevel        string  `json:"pmi_level"`
	GrowthDirection string  `json:"growth_direction"`
	X               float64 `json:"x"`
	Y               float64 `json:"y"`
}

// RegimeProfile carries the descriptive attributes of a regime.
type RegimeProfile struct {
	RiskLevel            string `json:"risk_level" yaml:"risk_level"`
	RebalancingFrequency string `json:"rebalancing_frequency" yaml:"rebalancing_frequency"`
	Description          string `json:"description" yaml:"description"`
}

type RegimeScoreResult struct {
	Regime     Regime             `json:"regime"`
	Confidence float64            `json:"confidence"`
	Scores     map[Regime]float64 `json:"scores"`
	Mode       ClassificationMode `json:"mode"`
	// Reliable is set when confidence reaches the regime's configured threshold.
	Reliable   bool            `json:"reliable"`
	Considered []IndicatorName `json:"considered,omitempty"`
	Missing    []IndicatorName `json:"missing,omitempty"`
	Position   *MatrixPosition `json:"position,omitempty"`
	Profile    *RegimeProfile  `json:"profile,omitempty"`
}

// UnknownResult is what every classifier returns when there is nothing to score.
func UnknownResult(mode ClassificationMode) RegimeScoreResult {
	return RegimeScoreResult{
		Regime:     RegimeUnknown,
		Confidence: 0,
		Scores:     map[Regime]float64{},
		Mode:       mode,
	}
}
