package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"OraclePortfolio/internal/domain/models"
	domrepo "OraclePortfolio/internal/domain/repository"
	"OraclePortfolio/pkg/cache"
	applogger "OraclePortfolio/pkg/logger"
)

const indicatorKeyPrefix = "indicators"

// CachedProvider memoizes another provider's results per country.
type CachedProvider struct {
	next  domrepo.IndicatorProvider
	cache cache.Service
	ttl   time.Duration
	l     *applogger.Logger
}

func NewCachedProvider(next domrepo.IndicatorProvider, c cache.Service, ttl time.Duration, l *applogger.Logger) *CachedProvider {
	return &CachedProvider{next: next, cache: c, ttl: ttl, l: l}
}

func (p *CachedProvider) Name() string { return p.next.Name() }

func (p *CachedProvider) Latest(ctx context.Context, country string) (models.IndicatorSet, error) {
	key := indicatorKey(country)
	set, err := cache.GetTyped[models.IndicatorSet](ctx, p.cache, key)
	if err == nil && len(set) > 0 {
		return set, nil
	}
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		p.l.Warn("indicator cache read failed", applogger.String("key", key), applogger.Error(err))
	}

	set, err = p.next.Latest(ctx, country)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, key, set, p.ttl); err != nil {
		p.l.Warn("indicator cache write failed", applogger.String("key", key), applogger.Error(err))
	}
	return set, nil
}

// Invalidate drops the cached entry for country, or every entry when country is empty.
func (p *CachedProvider) Invalidate(ctx context.Context, country string) error {
	if country == "" {
		return p.cache.DeleteByPattern(ctx, cache.BuildPattern(indicatorKeyPrefix+":"))
	}
	return p.cache.Delete(ctx, indicatorKey(country))
}

func indicatorKey(country string) string {
	return cache.GenerateKey(indicatorKeyPrefix, strings.ToUpper(country))
}
