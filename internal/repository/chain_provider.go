package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"OraclePortfolio/internal/domain/models"
	domrepo "OraclePortfolio/internal/domain/repository"
	applogger "OraclePortfolio/pkg/logger"
)

// ChainProvider tries providers in order and returns the first usable set.
type ChainProvider struct {
	providers []domrepo.IndicatorProvider
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

func NewChainProvider(metrics domrepo.Metrics, l *applogger.Logger, providers ...domrepo.IndicatorProvider) *ChainProvider {
	return &ChainProvider{providers: providers, metrics: metrics, l: l}
}

func (c *ChainProvider) Name() string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return "chain(" + strings.Join(names, ",") + ")"
}

// Latest returns models.ErrDataUnavailable when every provider fails.
func (c *ChainProvider) Latest(ctx context.Context, country string) (models.IndicatorSet, error) {
	var errs []error
	for _, p := range c.providers {
		set, err := p.Latest(ctx, country)
		if err == nil && len(set) > 0 {
			c.metrics.RecordProviderFetch(p.Name(), "ok")
			return set, nil
		}
		if err == nil {
			err = fmt.Errorf("%s: empty result", p.Name())
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		result := "error"
		if errors.Is(err, models.ErrDataUnavailable) {
			result = "miss"
		} else {
			c.l.Warn("indicator provider failed",
				applogger.String("provider", p.Name()),
				applogger.String("country", country),
				applogger.Error(err))
		}
		c.metrics.RecordProviderFetch(p.Name(), result)
		errs = append(errs, err)
	}
	return nil, fmt.Errorf("%w for %s: %w", models.ErrDataUnavailable, country, errors.Join(errs...))
}
