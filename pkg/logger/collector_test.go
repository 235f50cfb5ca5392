package logger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *capturePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return nil
}

func TestLogCollector_DeduplicatesAndFlushesOnClose(t *testing.T) {
	pub := &capturePublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 10,
		Topic:          "oracle.logs",
		Publisher:      pub,
	})

	fields := map[string]interface{}{"country": "FRA"}
	c.AddLog("error", "provider failed", fields, "repo.go:10")
	c.AddLog("error", "provider failed", fields, "repo.go:10")
	c.AddLog("error", "other failure", nil, "repo.go:20")
	assert.Equal(t, 2, c.Pending())

	c.Close()

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Len(t, pub.batches, 1)
	assert.Equal(t, "oracle.logs", pub.topic)

	counts := map[string]int{}
	for _, e := range pub.batches[0] {
		counts[e.Message] = e.Count
	}
	assert.Equal(t, 2, counts["provider failed"])
	assert.Equal(t, 1, counts["other failure"])
}

func TestLogger_ErrorFeedsCollector(t *testing.T) {
	pub := &capturePublisher{}
	l := Nop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})

	l.Error("boom", String("country", "DEU"), Float64("confidence", 0.5))
	l.Warn("not collected")
	assert.Equal(t, 1, l.collector.Pending())

	l.RemoveCollector()
	assert.Nil(t, l.collector)
}
