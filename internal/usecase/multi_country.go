package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/pkg/util"
)

// MaxCountries bounds one multi-country request.
const MaxCountries = 10

var (
	ErrNoCountries      = errors.New("at least one country is required")
	ErrTooManyCountries = fmt.Errorf("at most %d countries per request", MaxCountries)
)

// MultiCountryUseCase analyzes several countries concurrently and summarizes the regimes.
type MultiCountryUseCase struct {
	portfolio *PortfolioUseCase
	timeout   time.Duration
}

func NewMultiCountryUseCase(portfolio *PortfolioUseCase) *MultiCountryUseCase {
	return &MultiCountryUseCase{portfolio: portfolio, timeout: 15 * time.Second}
}

type MultiCountryParams struct {
	Countries   []string
	RiskProfile string
	Mode        string
}

func (uc *MultiCountryUseCase) Analyze(ctx context.Context, p MultiCountryParams) (models.MultiCountryAnalysis, error) {
	codes, err := countryCodes(p.Countries)
	if err != nil {
		return models.MultiCountryAnalysis{}, err
	}

	results := fanOut(ctx, uc.timeout, codes, func(ctx context.Context, code string) (models.PortfolioAnalysis, error) {
		return uc.portfolio.Analyze(ctx, AnalyzeParams{
			Country:     code,
			RiskProfile: p.RiskProfile,
			Mode:        p.Mode,
		})
	})

	out := models.MultiCountryAnalysis{
		Countries: make(map[string]models.PortfolioAnalysis, len(codes)),
		Failures:  map[string]string{},
	}
	var ordered []models.PortfolioAnalysis
	for _, it := range results {
		if it.err != nil {
			// configuration errors apply to every country alike
			var cfgErr *models.ConfigurationError
			if errors.As(it.err, &cfgErr) {
				return models.MultiCountryAnalysis{}, it.err
			}
			out.Failures[it.code] = it.err.Error()
			continue
		}
		out.Countries[it.value.Country.Code] = it.value
		ordered = append(ordered, it.value)
	}
	if len(out.Failures) == 0 {
		out.Failures = nil
	}
	out.Summary = Summarize(ordered)
	return out, nil
}

// countryCodes normalizes and dedupes codes, then enforces the per-request bounds.
func countryCodes(raw []string) ([]string, error) {
	codes := util.NormalizeCodes(raw)
	if len(codes) == 0 {
		return nil, ErrNoCountries
	}
	if len(codes) > MaxCountries {
		return nil, fmt.Errorf("%w: got %d", ErrTooManyCountries, len(codes))
	}
	return codes, nil
}

type countryResult[T any] struct {
	code  string
	value T
	err   error
}

// fanOut runs fn once per code concurrently under a shared timeout. Results come
// back in code order so summaries do not depend on goroutine timing.
func fanOut[T any](ctx context.Context, timeout time.Duration, codes []string, fn func(context.Context, string) (T, error)) []countryResult[T] {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]countryResult[T], len(codes))
	var wg sync.WaitGroup
	for i, code := range codes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn(ctx, code)
			results[i] = countryResult[T]{code: code, value: v, err: err}
		}()
	}
	wg.Wait()
	return results
}

// Summarize computes the regime distribution over analyzed countries.
// The dominant regime is the most frequent; ties go to the one seen first.
func Summarize(analyses []models.PortfolioAnalysis) models.MultiCountrySummary {
	s := models.MultiCountrySummary{
		Analyzed:       len(analyses),
		DominantRegime: models.RegimeUnknown,
		Distribution:   make(map[models.Regime]int),
	}
	if len(analyses) == 0 {
		return s
	}

	var (
		order      []models.Regime
		confidence float64
	)
	for _, a := range analyses {
		r := a.Regime.Regime
		if _, seen := s.Distribution[r]; !seen {
			order = append(order, r)
		}
		s.Distribution[r]++
		confidence += a.Regime.Confidence
	}

	best := 0
	for _, r := range order {
		if n := s.Distribution[r]; n > best {
			best = n
			s.DominantRegime = r
		}
	}
	s.ConsensusStrength = float64(best) / float64(len(analyses))
	s.AverageConfidence = confidence / float64(len(analyses))
	return s
}
