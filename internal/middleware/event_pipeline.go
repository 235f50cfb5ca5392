package middleware

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"OraclePortfolio/internal/domain/models"
	domrepo "OraclePortfolio/internal/domain/repository"
	applogger "OraclePortfolio/pkg/logger"
)

// Sink receives allocation events, e.g. Kafka or the websocket hub.
type Sink interface {
	PublishAllocation(ctx context.Context, ev models.AllocationEvent) error
}

type namedSink struct {
	name string
	sink Sink
}

type pending struct {
	ev       models.AllocationEvent
	to       namedSink
	attempts int
}

// EventPipeline sits between the use cases and the event sinks.
// It validates and throttles per country, then fans out. Failed deliveries
// are buffered and retried per sink with capped exponential backoff.
type EventPipeline struct {
	sinks      []namedSink
	metrics    domrepo.Metrics
	log        *applogger.Logger
	throttle   time.Duration
	maxRetries int
	bufCh      chan pending
	stopCh     chan struct{}
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
	now        func() time.Time
	retry      func() backoff.BackOff

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

type PipelineOption func(*EventPipeline)

// WithThrottle sets the minimum interval between two events of the same country.
func WithThrottle(d time.Duration) PipelineOption {
	return func(p *EventPipeline) { p.throttle = d }
}

// WithBufferSize sets the retry buffer size.
func WithBufferSize(n int) PipelineOption {
	return func(p *EventPipeline) {
		if n > 0 {
			p.bufCh = make(chan pending, n)
		}
	}
}

// WithMaxRetries caps redelivery attempts per sink.
func WithMaxRetries(n int) PipelineOption {
	return func(p *EventPipeline) { p.maxRetries = n }
}

// WithSink adds a named sink.
func WithSink(name string, s Sink) PipelineOption {
	return func(p *EventPipeline) {
		if s != nil {
			p.sinks = append(p.sinks, namedSink{name: name, sink: s})
		}
	}
}

func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *EventPipeline) { p.now = now }
}

// WithRetryBackOff replaces the redelivery backoff policy.
func WithRetryBackOff(fn func() backoff.BackOff) PipelineOption {
	return func(p *EventPipeline) { p.retry = fn }
}

func NewEventPipeline(metrics domrepo.Metrics, l *applogger.Logger, opts ...PipelineOption) *EventPipeline {
	p := &EventPipeline{
		metrics:    metrics,
		log:        l,
		throttle:   time.Second,
		maxRetries: 3,
		bufCh:      make(chan pending, 256),
		stopCh:     make(chan struct{}),
		now:        time.Now,
		lastSeen:   make(map[string]time.Time),
		retry: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start launches the redelivery loop.
func (p *EventPipeline) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		p.wg.Add(1)
		go p.redeliver(ctx)
	})
}

// PublishAllocation validates, throttles and forwards ev to every sink.
// Throttled events are dropped without error.
func (p *EventPipeline) PublishAllocation(ctx context.Context, ev models.AllocationEvent) error {
	start := time.Now()
	if err := ValidateEvent(ev); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if !p.allow(ev.Country) {
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	var errs []error
	for _, s := range p.sinks {
		if err := s.sink.PublishAllocation(ctx, ev); err != nil {
			p.metrics.RecordError("pipeline_" + s.name)
			p.enqueue(pending{ev: ev, to: s, attempts: 1})
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("pipeline downstream: %w", errors.Join(errs...))
	}
	p.metrics.RecordLatency("pipeline_publish", time.Since(start).Seconds())
	return nil
}

// Pending reports how many deliveries wait for a retry.
func (p *EventPipeline) Pending() int { return len(p.bufCh) }

// Close stops the redelivery loop and closes sinks that can be closed.
func (p *EventPipeline) Close() error {
	var errs []error
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		if n := len(p.bufCh); n > 0 {
			p.log.Warn("dropping undelivered allocation events", applogger.Int("count", n))
		}
		for _, s := range p.sinks {
			if c, ok := s.sink.(interface{ Close() error }); ok {
				if err := c.Close(); err != nil {
					errs = append(errs, fmt.Errorf("close %s: %w", s.name, err))
				}
			}
		}
	})
	return errors.Join(errs...)
}

func (p *EventPipeline) enqueue(item pending) {
	select {
	case p.bufCh <- item:
	default:
		p.metrics.RecordError("pipeline_buffer_full")
	}
}

func (p *EventPipeline) redeliver(ctx context.Context) {
	defer p.wg.Done()
	b := p.retry()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case item := <-p.bufCh:
			err := item.to.sink.PublishAllocation(ctx, item.ev)
			if err == nil {
				b.Reset()
				continue
			}
			p.metrics.RecordError("pipeline_flush")
			if item.attempts >= p.maxRetries {
				p.metrics.RecordError("pipeline_buffer_drop")
				p.log.Error("allocation event dropped",
					applogger.String("sink", item.to.name),
					applogger.String("event_id", item.ev.ID),
					applogger.Int("attempts", item.attempts),
					applogger.Error(err))
				continue
			}
			item.attempts++

			wait := b.NextBackOff()
			if wait == backoff.Stop {
				wait = 0
			}
			select {
			case <-time.After(wait):
			case <-p.stopCh:
				return
			}
			p.enqueue(item)
		}
	}
}

func (p *EventPipeline) allow(country string) bool {
	if p.throttle <= 0 {
		return true
	}
	now := p.now()

	p.mu.Lock()
	defer p.mu.Unlock()
	last, seen := p.lastSeen[country]
	if seen && now.Sub(last) < p.throttle {
		return false
	}
	p.lastSeen[country] = now
	return true
}

// ValidateEvent rejects events no subscriber should see.
func ValidateEvent(ev models.AllocationEvent) error {
	switch {
	case ev.ID == "":
		return errors.New("event id empty")
	case ev.Country == "":
		return errors.New("country empty")
	case ev.Regime == "" || ev.Regime == models.RegimeUnknown:
		return fmt.Errorf("%w: %q", models.ErrUnknownRegime, ev.Regime)
	case ev.Timestamp.IsZero():
		return errors.New("timestamp missing")
	case ev.Confidence < 0 || ev.Confidence > 1:
		return fmt.Errorf("confidence out of range: %v", ev.Confidence)
	case math.Abs(ev.Allocation.Sum()-1) > 1e-6:
		return fmt.Errorf("%w: weights sum to %v", models.ErrInvalidAllocationSum, ev.Allocation.Sum())
	}
	return nil
}

var _ domrepo.EventPublisher = (*EventPipeline)(nil)
