package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"OraclePortfolio/internal/domain/models"
	domrepo "OraclePortfolio/internal/domain/repository"
	"OraclePortfolio/internal/services/allocation"
	"OraclePortfolio/internal/services/regime"
	"OraclePortfolio/internal/services/seasonal"
	applogger "OraclePortfolio/pkg/logger"
	"OraclePortfolio/pkg/util"
)

// Option configures the use cases in this package.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() string
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithIDGenerator(gen func() string) Option {
	return func(o *options) { o.newID = gen }
}

func applyOptions(opts []Option) options {
	o := options{now: time.Now, newID: uuid.NewString}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PortfolioUseCase runs the provider -> seasonal -> classifier -> scorer pipeline.
type PortfolioUseCase struct {
	provider   domrepo.IndicatorProvider
	classifier *regime.Classifier
	scorer     *allocation.Scorer
	adjuster   *seasonal.Adjuster
	events     domrepo.EventPublisher
	metrics    domrepo.Metrics
	log        *applogger.Logger
	opts       options
}

func NewPortfolioUseCase(
	provider domrepo.IndicatorProvider,
	classifier *regime.Classifier,
	scorer *allocation.Scorer,
	adjuster *seasonal.Adjuster,
	events domrepo.EventPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	opts ...Option,
) *PortfolioUseCase {
	return &PortfolioUseCase{
		provider:   provider,
		classifier: classifier,
		scorer:     scorer,
		adjuster:   adjuster,
		events:     events,
		metrics:    metrics,
		log:        l,
		opts:       applyOptions(opts),
	}
}

// AnalyzeParams selects one country analysis. Month 0 means the current month.
type AnalyzeParams struct {
	Country     string
	RiskProfile string
	Mode        string
	Month       int
	// Raw skips seasonal adjustment.
	Raw bool
}

// Classify scores an indicator set with the requested mode.
func (uc *PortfolioUseCase) Classify(indicators models.IndicatorSet, mode models.ClassificationMode) models.RegimeScoreResult {
	var res models.RegimeScoreResult
	if mode == models.ModeMatrix {
		res = uc.classifier.ClassifyMatrix(indicators)
	} else {
		res = uc.classifier.Classify(indicators)
	}
	uc.metrics.RecordClassification(string(res.Mode), string(res.Regime), res.Confidence)
	return res
}

// ClassifyRaw converts loosely typed input and classifies it. Unrecognized keys are returned as warnings.
func (uc *PortfolioUseCase) ClassifyRaw(raw map[string]float64, mode string) (models.RegimeScoreResult, []string, error) {
	m, err := models.ParseMode(mode)
	if err != nil {
		return models.RegimeScoreResult{}, nil, models.NewConfigurationError("mode", mode, err)
	}
	set, unknown := models.IndicatorSetFromMap(raw)
	return uc.Classify(set, m), unknownWarnings(unknown), nil
}

// Regime classifies a country from provider data without scoring an allocation.
func (uc *PortfolioUseCase) Regime(ctx context.Context, p AnalyzeParams) (models.PortfolioAnalysis, error) {
	return uc.analyze(ctx, p, false)
}

// Analyze runs the whole pipeline for a country and publishes the resulting allocation.
// Missing provider data is not an error: the analysis comes back UNKNOWN with no allocation.
func (uc *PortfolioUseCase) Analyze(ctx context.Context, p AnalyzeParams) (models.PortfolioAnalysis, error) {
	return uc.analyze(ctx, p, true)
}

func (uc *PortfolioUseCase) analyze(ctx context.Context, p AnalyzeParams, allocate bool) (models.PortfolioAnalysis, error) {
	start := uc.opts.now()
	defer func() {
		uc.metrics.RecordLatency("portfolio_analyze", time.Since(start).Seconds())
	}()

	country, ok := models.LookupCountry(p.Country)
	if !ok {
		return models.PortfolioAnalysis{}, fmt.Errorf("%w: %q", models.ErrUnsupportedCountry, p.Country)
	}
	mode, err := models.ParseMode(p.Mode)
	if err != nil {
		return models.PortfolioAnalysis{}, models.NewConfigurationError("mode", p.Mode, err)
	}
	var profile models.RiskProfile
	if allocate {
		if profile, err = models.ParseRiskProfile(orDefault(p.RiskProfile, string(models.RiskModerate))); err != nil {
			return models.PortfolioAnalysis{}, models.NewConfigurationError("risk_profile", p.RiskProfile, err)
		}
	}

	out := models.PortfolioAnalysis{
		Country:     country,
		Month:       util.MonthOrCurrent(p.Month, start),
		RiskProfile: profile,
		AnalyzedAt:  start.UTC(),
	}

	indicators, err := uc.provider.Latest(ctx, country.Code)
	if err != nil {
		if !errors.Is(err, models.ErrDataUnavailable) {
			uc.metrics.RecordError("provider")
			return models.PortfolioAnalysis{}, fmt.Errorf("fetch indicators for %s: %w", country.Code, err)
		}
		uc.log.Warn("no indicator data",
			applogger.String("country", country.Code),
			applogger.String("provider", uc.provider.Name()),
			applogger.Error(err))
		uc.metrics.RecordError("data_unavailable")
		out.Regime = models.UnknownResult(mode)
		out.Status = models.StatusDataUnavailable
		out.Warnings = append(out.Warnings, err.Error())
		return out, nil
	}
	out.Indicators = indicators

	classified := indicators
	if !p.Raw {
		report := uc.adjuster.AdjustIndicators(indicators, country.Code, out.Month)
		out.Seasonal = &report
		classified = report.Adjusted
	}

	out.Regime = uc.Classify(classified, mode)
	if out.Regime.Regime == models.RegimeUnknown {
		out.Status = models.StatusUnclassified
		out.Warnings = append(out.Warnings, "no indicator could be classified")
		return out, nil
	}
	out.Status = models.StatusOK
	if !allocate {
		return out, nil
	}

	res, err := uc.scorer.Score(out.Regime.Regime, profile, classified, country.Code)
	if err != nil {
		uc.metrics.RecordError("allocation")
		return models.PortfolioAnalysis{}, fmt.Errorf("score allocation: %w", err)
	}
	uc.metrics.RecordAllocation(string(res.Regime), string(res.RiskProfile), res.Degraded)
	out.Allocation = &res
	out.Warnings = append(out.Warnings, res.Warnings...)

	uc.publish(ctx, out)
	return out, nil
}

// Allocate scores an allocation for an explicit regime, without provider data.
func (uc *PortfolioUseCase) Allocate(regimeName, riskProfile string, raw map[string]float64, country string) (models.AllocationResult, error) {
	r, err := models.ParseRegime(regimeName)
	if err != nil {
		return models.AllocationResult{}, models.NewConfigurationError("regime", regimeName, err)
	}
	profile, err := models.ParseRiskProfile(orDefault(riskProfile, string(models.RiskModerate)))
	if err != nil {
		return models.AllocationResult{}, models.NewConfigurationError("risk_profile", riskProfile, err)
	}
	set, unknown := models.IndicatorSetFromMap(raw)

	res, err := uc.scorer.Score(r, profile, set, country)
	if err != nil {
		uc.metrics.RecordError("allocation")
		return models.AllocationResult{}, err
	}
	uc.metrics.RecordAllocation(string(res.Regime), string(res.RiskProfile), res.Degraded)
	res.Warnings = append(res.Warnings, unknownWarnings(unknown)...)
	return res, nil
}

// AdjustValue seasonally adjusts one reading and, when given, its trend.
func (uc *PortfolioUseCase) AdjustValue(family models.IndicatorFamily, value float64, country string, month int, trend models.Trend) (models.AdjustedValue, models.Trend) {
	adj := uc.adjuster.Adjust(family, value, strings.ToUpper(country), month)
	if trend == "" {
		return adj, ""
	}
	return adj, seasonal.AdjustTrend(trend, adj.Factor)
}

// AdjustIndicators seasonally adjusts a loosely typed indicator map.
func (uc *PortfolioUseCase) AdjustIndicators(raw map[string]float64, country string, month int) models.SeasonalReport {
	set, unknown := models.IndicatorSetFromMap(raw)
	report := uc.adjuster.AdjustIndicators(set, strings.ToUpper(country), month)
	report.Recommendations = append(report.Recommendations, unknownWarnings(unknown)...)
	return report
}

func (uc *PortfolioUseCase) publish(ctx context.Context, a models.PortfolioAnalysis) {
	if uc.events == nil || a.Allocation == nil {
		return
	}
	ev := models.AllocationEvent{
		ID:          uc.opts.newID(),
		Country:     a.Country.Code,
		Regime:      a.Regime.Regime,
		Confidence:  a.Regime.Confidence,
		RiskProfile: a.RiskProfile,
		Allocation:  a.Allocation.Allocation,
		Degraded:    a.Allocation.Degraded,
		Timestamp:   a.AnalyzedAt,
	}
	if err := uc.events.PublishAllocation(ctx, ev); err != nil {
		uc.metrics.RecordError("publish")
		uc.log.Warn("publish allocation event",
			applogger.String("country", ev.Country),
			applogger.String("event_id", ev.ID),
			applogger.Error(err))
	}
}

func unknownWarnings(keys []string) []string {
	if len(keys) == 0 {
		return nil
	}
	return []string{"ignored unknown indicators: " + strings.Join(keys, ", ")}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
