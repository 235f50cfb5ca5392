package models

// Requests for the HTTP API. Kept in domain so the CLI can decode the same payloads.

type ClassifyRequest struct {
	Indicators map[string]float64 `json:"indicators" validate:"required"`
	Mode       string             `json:"mode" default:"voting" validate:"oneof=voting matrix"`
}

type RegimeQuery struct {
	Country string `query:"country" validate:"required,len=3"`
	Mode    string `query:"mode" default:"voting" validate:"oneof=voting matrix"`
	Month   int    `query:"month" validate:"omitempty,gte=1,lte=12"`
	// Raw skips seasonal adjustment.
	Raw bool `query:"raw"`
}

type SeasonalAdjustRequest struct {
	Family  string  `json:"family" validate:"required,oneof=electricity_consumption pmi_manufacturing maritime_trade commodity_prices"`
	Value   float64 `json:"value"`
	Country string  `json:"country" validate:"omitempty,len=3"`
	Month   int     `json:"month" validate:"required,gte=1,lte=12"`
	Trend   string  `json:"trend" validate:"omitempty,oneof=improving deteriorating stable"`
}

type SeasonalIndicatorsRequest struct {
	Country    string             `json:"country" validate:"required,len=3"`
	Month      int                `json:"month" validate:"required,gte=1,lte=12"`
	Indicators map[string]float64 `json:"indicators" validate:"required"`
}

type AllocationRequest struct {
	Regime      string             `json:"regime" validate:"required"`
	RiskProfile string             `json:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Indicators  map[string]float64 `json:"indicators"`
	Country     string             `json:"country" validate:"omitempty,len=3"`
}

type PortfolioQuery struct {
	Country     string `query:"country" validate:"required,len=3"`
	RiskProfile string `query:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Mode        string `query:"mode" default:"voting" validate:"oneof=voting matrix"`
	Month       int    `query:"month" validate:"omitempty,gte=1,lte=12"`
}

type MultiCountryQuery struct {
	Countries   string `query:"countries" default:"FRA,DEU,GBR,USA,JPN"`
	RiskProfile string `query:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Mode        string `query:"mode" default:"voting" validate:"oneof=voting matrix"`
}

// BacktestRequest takes either allocations with matching returns, or periods.
// Omitted capital and rates fall back to the configured backtest defaults; an
// explicit 0 rate is kept.
type BacktestRequest struct {
	Strategy            string              `json:"strategy" default:"dynamic"`
	Allocations         []AllocationWeights `json:"allocations"`
	Returns             []AssetReturns      `json:"returns"`
	Periods             []BacktestPeriod    `json:"periods" validate:"dive"`
	Country             string              `json:"country" validate:"omitempty,len=3"`
	RiskProfile         string              `json:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Mode                string              `json:"mode" default:"voting" validate:"oneof=voting matrix"`
	InitialCapital      float64             `json:"initial_capital" validate:"omitempty,gt=0"`
	TransactionCostRate *float64            `json:"transaction_cost_rate" validate:"omitnil,gte=0,lt=1"`
	RiskFreeRate        *float64            `json:"risk_free_rate"`
	Benchmarks          []string            `json:"benchmarks"`
}

// CountryPeriods is the monthly history backtested for one country.
type CountryPeriods struct {
	Country string           `json:"country" validate:"required,len=3"`
	Periods []BacktestPeriod `json:"periods" validate:"required,min=1,dive"`
}

// MultiCountryBacktestRequest runs the dynamic strategy over each country's periods.
// Country codes are case-insensitive and must be unique.
type MultiCountryBacktestRequest struct {
	Countries           []CountryPeriods `json:"countries" validate:"required,min=1,dive"`
	RiskProfile         string           `json:"risk_profile" default:"moderate" validate:"oneof=conservative moderate aggressive"`
	Mode                string           `json:"mode" default:"voting" validate:"oneof=voting matrix"`
	InitialCapital      float64          `json:"initial_capital" validate:"omitempty,gt=0"`
	TransactionCostRate *float64         `json:"transaction_cost_rate" validate:"omitnil,gte=0,lt=1"`
	RiskFreeRate        *float64         `json:"risk_free_rate"`
}
