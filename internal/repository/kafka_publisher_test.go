package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"OraclePortfolio/internal/domain/models"
)

type published struct {
	topic string
	key   string
	value interface{}
}

type fakeProducer struct {
	msgs   []published
	closed bool
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.msgs = append(p.msgs, published{topic, string(key), value})
	return nil
}

func (p *fakeProducer) Close() error {
	p.closed = true
	return nil
}

func TestKafkaPublisher(t *testing.T) {
	prod := &fakeProducer{}
	pub := NewKafkaPublisher(prod, "oracle.allocations")

	ev := models.AllocationEvent{ID: "e1", Country: "FRA", Regime: models.RegimeExpansion, Timestamp: time.Unix(0, 0)}
	require.NoError(t, pub.PublishAllocation(context.Background(), ev))
	require.NoError(t, pub.PublishMessage(context.Background(), "oracle.logs", []string{"x"}))
	require.NoError(t, pub.Close())

	require.Len(t, prod.msgs, 2)
	assert.Equal(t, published{"oracle.allocations", "FRA", ev}, prod.msgs[0])
	assert.Equal(t, "oracle.logs", prod.msgs[1].topic)
	assert.True(t, prod.closed)
}
