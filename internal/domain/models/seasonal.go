package models

// IndicatorFamily groups indicators sharing one seasonal pattern.
type IndicatorFamily string

const (
	FamilyElectricity IndicatorFamily = "electricity_consumption"
	FamilyPMI         IndicatorFamily = "pmi_manufacturing"
	FamilyMaritime    IndicatorFamily = "maritime_trade"
	FamilyCommodity   IndicatorFamily = "commodity_prices"
)

var IndicatorFamilies = []IndicatorFamily{FamilyElectricity, FamilyPMI, FamilyMaritime, FamilyCommodity}

type SeasonalPattern struct {
	PeakMonths []int   `json:"peak_months" yaml:"peak_months" validate:"dive,gte=1,lte=12"`
	LowMonths  []int   `json:"low_months" yaml:"low_months" validate:"dive,gte=1,lte=12"`
	Amplitude  float64 `json:"amplitude" yaml:"amplitude" validate:"gte=0,lte=1"`
}

// SeasonalCorrection is a named country-specific multiplier keyed by period.
// Period keys are lowercase month names, seasons (winter, spring, summer, autumn) or quarters (q1..q4).
type SeasonalCorrection struct {
	Name    string             `json:"name" yaml:"name"`
	Factors map[string]float64 `json:"factors" yaml:"factors"`
}

type SeasonalPhase string

const (
	PhasePeak       SeasonalPhase = "peak"
	PhaseLow        SeasonalPhase = "low"
	PhaseTransition SeasonalPhase = "transition"
)

type AdjustedValue struct {
	Family     IndicatorFamily `json:"family"`
	Country    string          `json:"country,omitempty"`
	Month      int             `json:"month"`
	Raw        float64         `json:"raw"`
	Value      float64         `json:"value"`
	Factor     float64         `json:"factor"`
	Confidence float64         `json:"confidence"`
	Phase      SeasonalPhase   `json:"phase,omitempty"`
	Applied    []string        `json:"applied_corrections,omitempty"`
}

type Trend string

const (
	TrendImproving     Trend = "improving"
	TrendDeteriorating Trend = "deteriorating"
	TrendStable        Trend = "stable"
	TrendNeutral       Trend = "neutral"
)

// IndicatorAdjustment is the per-indicator line of a SeasonalReport.
type IndicatorAdjustment struct {
	Indicator      IndicatorName   `json:"indicator"`
	Family         IndicatorFamily `json:"family,omitempty"`
	Raw            float64         `json:"raw"`
	Adjusted       float64         `json:"adjusted"`
	Factor         float64         `json:"factor"`
	Confidence     float64         `json:"confidence"`
	Score          *float64        `json:"score,omitempty"`
	Interpretation string          `json:"interpretation,omitempty"`
}

type SeasonalReport struct {
	Country  string                `json:"country"`
	Month    int                   `json:"month"`
	Season   string                `json:"season"`
	Adjusted IndicatorSet          `json:"adjusted"`
	Details  []IndicatorAdjustment `json:"details"`
	// AverageMagnitude is the mean |factor-1| in percent over adjusted families.
	AverageMagnitude float64  `json:"average_magnitude"`
	Recommendations  []string `json:"recommendations"`
}
