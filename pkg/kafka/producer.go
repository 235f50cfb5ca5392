package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

const (
	headerContentType = "content-type"
	headerSource      = "source"
)

// Producer publishes keyed events through a single kafka-go writer.
type Producer struct {
	writer      *kafka.Writer
	compression string
	source      string
	now         func() time.Time
}

func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := &ProducerConfig{
		RequiredAcks: -1,
		Compression:  "snappy",
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  10 * time.Second,
		BatchSize:    100,
		BatchTimeout: time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka producer: at least one broker is required")
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.HashByKey {
		balancer = &kafka.Hash{}
	}

	registerProducerMetrics()
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  compressionCodec(cfg.Compression),
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			ReadTimeout:  cfg.ReadTimeout,
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
		},
		compression: cfg.Compression,
		source:      cfg.Source,
		now:         time.Now,
	}, nil
}

// Publish writes one message to topic. []byte and string values are sent as is,
// anything else is JSON encoded.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	msg, err := p.message(topic, key, value)
	if err != nil {
		return err
	}
	start := time.Now()
	err = p.writer.WriteMessages(ctx, msg)
	recordPublish(topic, p.compression, len(msg.Value), time.Since(start), err)
	return err
}

func (p *Producer) message(topic string, key []byte, value interface{}) (kafka.Message, error) {
	var (
		payload     []byte
		contentType = "application/json"
	)
	switch v := value.(type) {
	case []byte:
		payload, contentType = v, "application/octet-stream"
	case string:
		payload, contentType = []byte(v), "text/plain"
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return kafka.Message{}, fmt.Errorf("kafka producer: encode %s payload: %w", topic, err)
		}
		payload = b
	}

	headers := []kafka.Header{{Key: headerContentType, Value: []byte(contentType)}}
	if p.source != "" {
		headers = append(headers, kafka.Header{Key: headerSource, Value: []byte(p.source)})
	}
	return kafka.Message{
		Topic:   topic,
		Key:     key,
		Value:   payload,
		Headers: headers,
		Time:    p.now(),
	}, nil
}

func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func compressionCodec(name string) kafka.Compression {
	switch name {
	case "none":
		return 0
	case "gzip":
		return kafka.Gzip
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Snappy
	}
}

var (
	publishedTotal  *prometheus.CounterVec
	publishedBytes  *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
	producerMetrics sync.Once
)

func registerProducerMetrics() {
	producerMetrics.Do(func() {
		publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_events_published_total",
			Help: "Events written to Kafka by topic and outcome",
		}, []string{"topic", "result"})
		publishedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "oracle_events_published_bytes_total",
			Help: "Uncompressed event payload bytes written to Kafka",
		}, []string{"topic", "compression"})
		publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "oracle_events_publish_seconds",
			Help:    "Time spent in WriteMessages",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}, []string{"topic"})
	})
}

func recordPublish(topic, compression string, size int, d time.Duration, err error) {
	if publishedTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedTotal.WithLabelValues(topic, result).Inc()
	publishedBytes.WithLabelValues(topic, compression).Add(float64(size))
	publishDuration.WithLabelValues(topic).Observe(d.Seconds())
}
