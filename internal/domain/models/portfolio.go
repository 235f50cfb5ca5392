package models

import "time"

// PortfolioAnalysis is the full pipeline output for one country.
type PortfolioAnalysis struct {
	Country     Country           `json:"country"`
	Month       int               `json:"month"`
	RiskProfile RiskProfile       `json:"risk_profile"`
	Indicators  IndicatorSet      `json:"indicators"`
	Seasonal    *SeasonalReport   `json:"seasonal,omitempty"`
	Regime      RegimeScoreResult `json:"regime"`
	// Allocation is nil when the regime could not be determined.
	Allocation *AllocationResult `json:"allocation,omitempty"`
	Status     string            `json:"status"`
	Warnings   []string          `json:"warnings,omitempty"`
	AnalyzedAt time.Time         `json:"analyzed_at"`
}

const (
	StatusOK              = "ok"
	StatusDataUnavailable = "data_unavailable"
	StatusUnclassified    = "unclassified"
)

type MultiCountrySummary struct {
	Analyzed          int            `json:"analyzed"`
	DominantRegime    Regime         `json:"dominant_regime"`
	Distribution      map[Regime]int `json:"distribution"`
	ConsensusStrength float64        `json:"consensus_strength"`
	AverageConfidence float64        `json:"average_confidence"`
}

type MultiCountryAnalysis struct {
	Countries map[string]PortfolioAnalysis `json:"countries"`
	Failures  map[string]string            `json:"failures,omitempty"`
	Summary   MultiCountrySummary          `json:"summary"`
}

// AllocationEvent is published whenever a portfolio analysis produces an allocation.
type AllocationEvent struct {
	ID          string            `json:"id"`
	Country     string            `json:"country"`
	Regime      Regime            `json:"regime"`
	Confidence  float64           `json:"confidence"`
	RiskProfile RiskProfile       `json:"risk_profile"`
	Allocation  AllocationWeights `json:"allocation"`
	Degraded    bool              `json:"degraded"`
	Timestamp   time.Time         `json:"timestamp"`
}
