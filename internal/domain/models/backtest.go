package models

import "time"

// AssetReturns holds one month of simple returns per asset class.
type AssetReturns struct {
	Stocks      float64 `json:"stocks"`
	Bonds       float64 `json:"bonds"`
	Commodities float64 `json:"commodities"`
	Cash        float64 `json:"cash"`
}

// Weighted returns the allocation-weighted portfolio return.
func (r AssetReturns) Weighted(w AllocationWeights) float64 {
	return w.Stocks*r.Stocks + w.Bonds*r.Bonds + w.Commodities*r.Commodities + w.Cash*r.Cash
}

type BacktestPeriodResult struct {
	Month          int               `json:"month"`
	Allocation     AllocationWeights `json:"allocation"`
	GrossReturn    float64           `json:"gross_return"`
	Turnover       float64           `json:"turnover"`
	Cost           float64           `json:"cost"`
	MonthlyReturn  float64           `json:"monthly_return"`
	PortfolioValue float64           `json:"portfolio_value"`
}

type BacktestPerformance struct {
	Periods              int     `json:"periods"`
	InitialCapital       float64 `json:"initial_capital"`
	FinalValue           float64 `json:"final_value"`
	TotalReturn          float64 `json:"total_return"`
	AnnualizedReturn     float64 `json:"annualized_return"`
	AnnualizedVolatility float64 `json:"annualized_volatility"`
	// SharpeRatio is nil when volatility is zero.
	SharpeRatio *float64               `json:"sharpe_ratio"`
	MaxDrawdown float64                `json:"max_drawdown"`
	TotalCost   float64                `json:"total_cost"`
	History     []BacktestPeriodResult `json:"history,omitempty"`
}

type BacktestOptions struct {
	InitialCapital      float64 `json:"initial_capital"`
	TransactionCostRate float64 `json:"transaction_cost_rate"`
	RiskFreeRate        float64 `json:"risk_free_rate"`
}

type BenchmarkComparison struct {
	Name            string              `json:"name"`
	Allocation      AllocationWeights   `json:"allocation"`
	Performance     BacktestPerformance `json:"performance"`
	Outperformance  float64             `json:"outperformance"`
	SharpeDelta     *float64            `json:"sharpe_delta"`
	VolatilityDelta float64             `json:"volatility_delta"`
	DrawdownDelta   float64             `json:"drawdown_delta"`
	BeatsReturn     bool                `json:"beats_return"`
	BeatsSharpe     bool                `json:"beats_sharpe"`
	LowerVolatility bool                `json:"lower_volatility"`
	LowerDrawdown   bool                `json:"lower_drawdown"`
}

type RiskMetrics struct {
	Reference        string   `json:"reference"`
	TrackingError    float64  `json:"tracking_error"`
	InformationRatio *float64 `json:"information_ratio"`
	Beta             *float64 `json:"beta"`
	Classification   string   `json:"classification"`
}

type BacktestSummary struct {
	BestBenchmark    string   `json:"best_benchmark,omitempty"`
	BenchmarksBeaten int      `json:"benchmarks_beaten"`
	BenchmarksTotal  int      `json:"benchmarks_total"`
	Strengths        []string `json:"strengths"`
	Improvements     []string `json:"improvements"`
}

type ComparisonReport struct {
	RunID      string                `json:"run_id"`
	CreatedAt  time.Time             `json:"created_at"`
	Strategy   BacktestPerformance   `json:"strategy"`
	Benchmarks []BenchmarkComparison `json:"benchmarks"`
	Risk       RiskMetrics           `json:"risk"`
	Summary    BacktestSummary       `json:"summary"`
}

// BacktestPeriod is one month of a dynamic backtest: observed indicators and realised returns.
type BacktestPeriod struct {
	Month      int          `json:"month" validate:"omitempty,gte=1,lte=12"`
	Indicators IndicatorSet `json:"indicators"`
	Returns    AssetReturns `json:"returns"`
}

// BacktestRecord is the persisted headline of a comparison report.
type BacktestRecord struct {
	RunID            string    `json:"run_id"`
	Strategy         string    `json:"strategy"`
	CreatedAt        time.Time `json:"created_at"`
	Periods          int       `json:"periods"`
	TotalReturn      float64   `json:"total_return"`
	AnnualizedReturn float64   `json:"annualized_return"`
	Volatility       float64   `json:"volatility"`
	// Sharpe is nil when the strategy had no volatility.
	Sharpe      *float64 `json:"sharpe"`
	MaxDrawdown float64  `json:"max_drawdown"`
	FinalValue  float64  `json:"final_value"`
}

// Record extracts the persisted headline for strategy.
func (r ComparisonReport) Record(strategy string) BacktestRecord {
	return BacktestRecord{
		RunID:            r.RunID,
		Strategy:         strategy,
		CreatedAt:        r.CreatedAt,
		Periods:          r.Strategy.Periods,
		TotalReturn:      r.Strategy.TotalReturn,
		AnnualizedReturn: r.Strategy.AnnualizedReturn,
		Volatility:       r.Strategy.AnnualizedVolatility,
		Sharpe:           r.Strategy.SharpeRatio,
		MaxDrawdown:      r.Strategy.MaxDrawdown,
		FinalValue:       r.Strategy.FinalValue,
	}
}

// CountryOutperformance is one country's annualized return edge over the reference benchmark.
type CountryOutperformance struct {
	Country        string  `json:"country"`
	Outperformance float64 `json:"outperformance"`
}

type MultiCountryBacktestSummary struct {
	Reference             string                 `json:"reference"`
	TotalCountries        int                    `json:"total_countries"`
	Successful            int                    `json:"successful_backtests"`
	AverageOutperformance float64                `json:"average_outperformance"`
	Best                  *CountryOutperformance `json:"best_performing_country"`
	Worst                 *CountryOutperformance `json:"worst_performing_country"`
}

// MultiCountryBacktest holds the dynamic backtest of each country. Countries that
// could not be backtested are listed in Failures instead.
type MultiCountryBacktest struct {
	CreatedAt time.Time                   `json:"created_at"`
	Options   BacktestOptions             `json:"options"`
	Countries map[string]ComparisonReport `json:"countries"`
	Failures  map[string]string           `json:"failures,omitempty"`
	Summary   MultiCountryBacktestSummary `json:"summary"`
}
