package repository

import (
	"context"
	"time"

	"OraclePortfolio/internal/domain/models"
)

// IndicatorProvider returns the latest indicators for a country.
// Implementations return models.ErrDataUnavailable when nothing can be sourced.
type IndicatorProvider interface {
	Latest(ctx context.Context, country string) (models.IndicatorSet, error)
	Name() string
}

// IndicatorStore persists indicator observations.
type IndicatorStore interface {
	Init(ctx context.Context) error
	StoreSnapshot(ctx context.Context, snap models.IndicatorSnapshot) error
	Latest(ctx context.Context, country string) (models.IndicatorSet, error)
	History(ctx context.Context, country string, from, to time.Time) ([]models.IndicatorSnapshot, error)
	Health(ctx context.Context) error
}

// ReportStore persists backtest report headlines.
type ReportStore interface {
	SaveReport(ctx context.Context, record models.BacktestRecord) error
	RecentReports(ctx context.Context, limit int) ([]models.BacktestRecord, error)
}

// EventPublisher fans allocation events out to subscribers.
type EventPublisher interface {
	PublishAllocation(ctx context.Context, ev models.AllocationEvent) error
	Close() error
}

type Metrics interface {
	RecordClassification(mode, regime string, confidence float64)
	RecordAllocation(regime, profile string, degraded bool)
	RecordProviderFetch(provider, result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
