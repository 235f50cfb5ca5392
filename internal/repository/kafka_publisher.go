package repository

import (
	"context"

	"OraclePortfolio/internal/domain/models"
)

// MessageProducer is the subset of the Kafka producer used by publishers.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaPublisher publishes allocation events keyed by country so per-country ordering holds.
type KafkaPublisher struct {
	producer MessageProducer
	topic    string
}

func NewKafkaPublisher(producer MessageProducer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishAllocation(ctx context.Context, ev models.AllocationEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.Country), ev)
}

// PublishMessage lets the log collector ship batches through the same producer.
func (p *KafkaPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops events when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishAllocation(context.Context, models.AllocationEvent) error { return nil }
func (NopPublisher) Close() error                                                    { return nil }
