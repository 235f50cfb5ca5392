package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
	applogger "OraclePortfolio/pkg/logger"
)

type countingMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newCountingMetrics() *countingMetrics { return &countingMetrics{errors: map[string]int{}} }

func (m *countingMetrics) RecordClassification(string, string, float64) {}
func (m *countingMetrics) RecordAllocation(string, string, bool)        {}
func (m *countingMetrics) RecordProviderFetch(string, string)           {}
func (m *countingMetrics) RecordLatency(string, float64)                {}
func (m *countingMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *countingMetrics) count(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type flakySink struct {
	mu       sync.Mutex
	failures int
	got      []models.AllocationEvent
	closed   bool
}

func (s *flakySink) PublishAllocation(_ context.Context, ev models.AllocationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("broker unavailable")
	}
	s.got = append(s.got, ev)
	return nil
}

func (s *flakySink) Close() error {
	s.closed = true
	return nil
}

func (s *flakySink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func event(country string) models.AllocationEvent {
	return models.AllocationEvent{
		ID:          "ev-" + country,
		Country:     country,
		Regime:      models.RegimeExpansion,
		Confidence:  0.8,
		RiskProfile: models.RiskModerate,
		Allocation:  models.AllocationWeights{Stocks: 0.6, Bonds: 0.3, Commodities: 0.1},
		Timestamp:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func noWait() backoff.BackOff { return &backoff.ZeroBackOff{} }

func TestEventPipeline_FansOut(t *testing.T) {
	a, b := &flakySink{}, &flakySink{}
	p := NewEventPipeline(newCountingMetrics(), applogger.Nop(), WithSink("kafka", a), WithSink("ws", b), WithThrottle(0))

	require.NoError(t, p.PublishAllocation(context.Background(), event("FRA")))
	assert.Equal(t, 1, a.delivered())
	assert.Equal(t, 1, b.delivered())

	require.NoError(t, p.Close())
	assert.True(t, a.closed)
}

func TestEventPipeline_ThrottlesPerCountry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := &flakySink{}
	m := newCountingMetrics()
	p := NewEventPipeline(m, applogger.Nop(),
		WithSink("ws", sink),
		WithThrottle(time.Second),
		WithPipelineClock(func() time.Time { return now }))

	ctx := context.Background()
	require.NoError(t, p.PublishAllocation(ctx, event("FRA")))
	require.NoError(t, p.PublishAllocation(ctx, event("FRA")))
	require.NoError(t, p.PublishAllocation(ctx, event("DEU")))
	assert.Equal(t, 2, sink.delivered())
	assert.Equal(t, 1, m.count("pipeline_throttle"))

	now = now.Add(time.Second)
	require.NoError(t, p.PublishAllocation(ctx, event("FRA")))
	assert.Equal(t, 3, sink.delivered())
}

func TestEventPipeline_RejectsInvalidEvents(t *testing.T) {
	p := NewEventPipeline(newCountingMetrics(), applogger.Nop(), WithSink("ws", &flakySink{}))

	ev := event("FRA")
	ev.Regime = models.RegimeUnknown
	assert.ErrorIs(t, p.PublishAllocation(context.Background(), ev), models.ErrUnknownRegime)

	ev = event("FRA")
	ev.Allocation.Cash = 0.5
	assert.ErrorIs(t, p.PublishAllocation(context.Background(), ev), models.ErrInvalidAllocationSum)
}

func TestEventPipeline_RetriesFailedSink(t *testing.T) {
	sink := &flakySink{failures: 2}
	p := NewEventPipeline(newCountingMetrics(), applogger.Nop(),
		WithSink("kafka", sink),
		WithThrottle(0),
		WithMaxRetries(5),
		WithRetryBackOff(noWait))
	p.Start(context.Background())
	defer p.Close()

	err := p.PublishAllocation(context.Background(), event("USA"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka")

	assert.Eventually(t, func() bool { return sink.delivered() == 1 }, time.Second, 5*time.Millisecond)
}

func TestEventPipeline_DropsAfterMaxRetries(t *testing.T) {
	sink := &flakySink{failures: 100}
	m := newCountingMetrics()
	p := NewEventPipeline(m, applogger.Nop(),
		WithSink("kafka", sink),
		WithThrottle(0),
		WithMaxRetries(2),
		WithRetryBackOff(noWait))
	p.Start(context.Background())
	defer p.Close()

	_ = p.PublishAllocation(context.Background(), event("JPN"))
	assert.Eventually(t, func() bool { return m.count("pipeline_buffer_drop") == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, sink.delivered())
}
