package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/services/allocation"
	"OraclePortfolio/internal/services/backtest"
	"OraclePortfolio/internal/services/regime"
	"OraclePortfolio/internal/services/seasonal"
	"OraclePortfolio/pkg/config"
	applogger "OraclePortfolio/pkg/logger"
)

var fixedNow = time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)

type mapProvider struct {
	data map[string]models.IndicatorSet
	err  error
}

func (p *mapProvider) Name() string { return "fake" }

func (p *mapProvider) Latest(_ context.Context, country string) (models.IndicatorSet, error) {
	if p.err != nil {
		return nil, p.err
	}
	set, ok := p.data[country]
	if !ok {
		return nil, models.ErrDataUnavailable
	}
	return set.Clone(), nil
}

type recordingMetrics struct {
	mu              sync.Mutex
	classifications int
	allocations     int
	errors          []string
}

func (m *recordingMetrics) RecordClassification(string, string, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifications++
}

func (m *recordingMetrics) RecordAllocation(string, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations++
}

func (m *recordingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *recordingMetrics) RecordProviderFetch(string, string) {}
func (m *recordingMetrics) RecordLatency(string, float64)      {}

type capturePublisher struct {
	mu     sync.Mutex
	events []models.AllocationEvent
	err    error
}

func (p *capturePublisher) PublishAllocation(_ context.Context, ev models.AllocationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

type memoryReports struct {
	saved []models.BacktestRecord
	err   error
}

func (r *memoryReports) SaveReport(_ context.Context, rec models.BacktestRecord) error {
	if r.err != nil {
		return r.err
	}
	r.saved = append(r.saved, rec)
	return nil
}

func (r *memoryReports) RecentReports(_ context.Context, limit int) ([]models.BacktestRecord, error) {
	if limit > len(r.saved) {
		limit = len(r.saved)
	}
	return r.saved[:limit], nil
}

type memoryStore struct {
	snaps []models.IndicatorSnapshot
	err   error
}

func (s *memoryStore) Init(context.Context) error   { return nil }
func (s *memoryStore) Health(context.Context) error { return nil }

func (s *memoryStore) StoreSnapshot(_ context.Context, snap models.IndicatorSnapshot) error {
	if s.err != nil {
		return s.err
	}
	s.snaps = append(s.snaps, snap)
	return nil
}

func (s *memoryStore) Latest(context.Context, string) (models.IndicatorSet, error) {
	return nil, models.ErrDataUnavailable
}

func (s *memoryStore) History(context.Context, string, time.Time, time.Time) ([]models.IndicatorSnapshot, error) {
	return nil, errors.New("not implemented")
}

type invalidations struct{ countries []string }

func (i *invalidations) Invalidate(_ context.Context, country string) error {
	i.countries = append(i.countries, country)
	return nil
}

var (
	expansionSet = models.IndicatorSet{
		models.IndicatorPMI:          58,
		models.IndicatorGDPGrowth:    3.0,
		models.IndicatorUnemployment: 3.5,
	}
	contractionSet = models.IndicatorSet{
		models.IndicatorPMI:          44,
		models.IndicatorGDPGrowth:    -1.0,
		models.IndicatorUnemployment: 9.0,
	}
)

type fixture struct {
	provider  *mapProvider
	metrics   *recordingMetrics
	events    *capturePublisher
	portfolio *PortfolioUseCase
}

func newFixture() *fixture {
	cfg := config.DefaultEngine()
	f := &fixture{
		provider: &mapProvider{data: map[string]models.IndicatorSet{
			"FRA": expansionSet,
			"DEU": contractionSet,
			"USA": expansionSet,
			"JPN": {models.IndicatorLumberPrice: 400},
		}},
		metrics: &recordingMetrics{},
		events:  &capturePublisher{},
	}
	f.portfolio = NewPortfolioUseCase(
		f.provider,
		regime.New(cfg),
		allocation.New(cfg),
		seasonal.New(cfg, seasonal.WithRandSource(rand.NewPCG(1, 2))),
		f.events,
		f.metrics,
		applogger.Nop(),
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return "ev-1" }),
	)
	return f
}

func newEngine() *backtest.Engine {
	return backtest.New(config.DefaultEngine().Backtest,
		backtest.WithClock(func() time.Time { return fixedNow }),
		backtest.WithIDGenerator(func() string { return "run-1" }))
}
