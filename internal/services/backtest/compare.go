package backtest

import (
	"fmt"
	"math"
	"sort"

	"OraclePortfolio/internal/domain/models"
)

// Compare runs the dynamic path and every static benchmark over the same returns.
// A nil benchmark map uses the configured benchmarks.
func (e *Engine) Compare(dynamic []models.AllocationWeights, returns []models.AssetReturns, benchmarks map[string]models.AllocationWeights, opts models.BacktestOptions) (models.ComparisonReport, error) {
	if opts.InitialCapital <= 0 {
		opts.InitialCapital = e.defaults.InitialCapital
	}
	if len(benchmarks) == 0 {
		benchmarks = e.defaults.Benchmarks
	}

	strategy, err := run(dynamic, returns, opts.InitialCapital, opts.TransactionCostRate, opts.RiskFreeRate)
	if err != nil {
		return models.ComparisonReport{}, fmt.Errorf("run strategy: %w", err)
	}

	names := make([]string, 0, len(benchmarks))
	for name := range benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)

	report := models.ComparisonReport{
		RunID:      e.newID(),
		CreatedAt:  e.now().UTC(),
		Strategy:   strategy,
		Benchmarks: make([]models.BenchmarkComparison, 0, len(names)),
	}

	for _, name := range names {
		w := benchmarks[name]
		perf, err := run(Static(w, len(returns)), returns, opts.InitialCapital, opts.TransactionCostRate, opts.RiskFreeRate)
		if err != nil {
			return models.ComparisonReport{}, fmt.Errorf("run benchmark %s: %w", name, err)
		}
		perf.History = nil
		report.Benchmarks = append(report.Benchmarks, compare(name, w, strategy, perf))
	}

	ref := e.reference(report.Benchmarks)
	report.Risk = riskMetrics(strategy, ref)
	report.Summary = summarize(strategy, ref, report.Benchmarks, opts.InitialCapital)
	return report, nil
}

func (e *Engine) reference(cmps []models.BenchmarkComparison) *models.BenchmarkComparison {
	for i := range cmps {
		if cmps[i].Name == e.defaults.Reference {
			return &cmps[i]
		}
	}
	if len(cmps) > 0 {
		return &cmps[0]
	}
	return nil
}

func compare(name string, w models.AllocationWeights, strategy, bench models.BacktestPerformance) models.BenchmarkComparison {
	c := models.BenchmarkComparison{
		Name:            name,
		Allocation:      w,
		Performance:     bench,
		Outperformance:  strategy.AnnualizedReturn - bench.AnnualizedReturn,
		VolatilityDelta: strategy.AnnualizedVolatility - bench.AnnualizedVolatility,
		DrawdownDelta:   strategy.MaxDrawdown - bench.MaxDrawdown,
	}
	c.BeatsReturn = c.Outperformance > 0
	c.LowerVolatility = c.VolatilityDelta < 0
	c.LowerDrawdown = c.DrawdownDelta < 0
	if strategy.SharpeRatio != nil && bench.SharpeRatio != nil {
		d := *strategy.SharpeRatio - *bench.SharpeRatio
		c.SharpeDelta = &d
		c.BeatsSharpe = d > 0
	}
	return c
}

func riskMetrics(strategy models.BacktestPerformance, ref *models.BenchmarkComparison) models.RiskMetrics {
	m := models.RiskMetrics{Classification: classifyRisk(strategy)}
	if ref == nil {
		return m
	}
	m.Reference = ref.Name
	m.TrackingError = math.Abs(ref.VolatilityDelta)
	if m.TrackingError > volEpsilon {
		ir := ref.Outperformance / m.TrackingError
		m.InformationRatio = &ir
	}
	if ref.Performance.AnnualizedVolatility > volEpsilon {
		beta := strategy.AnnualizedVolatility / ref.Performance.AnnualizedVolatility
		m.Beta = &beta
	}
	return m
}

func classifyRisk(p models.BacktestPerformance) string {
	vol := p.AnnualizedVolatility * 100
	dd := p.MaxDrawdown * 100
	switch {
	case vol < 8 && dd < 10:
		return "Conservative"
	case vol < 12 && dd < 15:
		return "Moderate"
	case vol < 18 && dd < 25:
		return "Aggressive"
	}
	return "Very Aggressive"
}

func summarize(strategy models.BacktestPerformance, ref *models.BenchmarkComparison, cmps []models.BenchmarkComparison, capital float64) models.BacktestSummary {
	s := models.BacktestSummary{
		BenchmarksTotal: len(cmps),
		Strengths:       []string{},
		Improvements:    []string{},
	}

	bestSharpe := math.Inf(-1)
	for _, c := range cmps {
		if c.BeatsReturn {
			s.BenchmarksBeaten++
		}
		if c.Performance.SharpeRatio != nil && *c.Performance.SharpeRatio > bestSharpe {
			bestSharpe = *c.Performance.SharpeRatio
			s.BestBenchmark = c.Name
		}
	}

	if s.BenchmarksTotal > 0 && s.BenchmarksBeaten == s.BenchmarksTotal {
		s.Strengths = append(s.Strengths, "outperformed every static benchmark")
	} else if s.BenchmarksBeaten*2 < s.BenchmarksTotal {
		s.Improvements = append(s.Improvements, "underperformed most static benchmarks")
	}

	if ref != nil {
		if ref.BeatsSharpe {
			s.Strengths = append(s.Strengths, fmt.Sprintf("better risk-adjusted return than %s", ref.Name))
		}
		if ref.LowerDrawdown {
			s.Strengths = append(s.Strengths, fmt.Sprintf("shallower drawdown than %s", ref.Name))
		}
		if ref.VolatilityDelta > 0 {
			s.Improvements = append(s.Improvements, fmt.Sprintf("higher volatility than %s", ref.Name))
		}
	}

	if strategy.TotalCost > capital*0.005 {
		s.Improvements = append(s.Improvements, "transaction costs are material: rebalance less often")
	}
	return s
}
