package kafka

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"

	applogger "OraclePortfolio/pkg/logger"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
	Logger      *applogger.Logger
}

// WithConsumerBrokers sets Kafka brokers.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets consumer group ID.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.GroupID = groupID
	}
}

// WithConsumerWorkers sets number of worker goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets a Kafka topic name for DLQ.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

// WithConsumerBufferSize sets the internal channel buffer size.
func WithConsumerBufferSize(n int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if n > 0 {
			c.BufferSize = n
		}
	}
}

// WithConsumerLogger sets the structured logger.
func WithConsumerLogger(l *applogger.Logger) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Logger = l
	}
}

// Consumer wraps Kafka readers with a worker pool.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *applogger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	msgChan  chan *message
	dlq      *kafka.Writer
	hook     ConsumerHook
}

type message struct {
	topic string
	km    kafka.Message
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.Nop()
	}

	c := &Consumer{
		cfg:      cfg,
		log:      cfg.Logger,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		stopChan: make(chan struct{}),
		msgChan:  make(chan *message, cfg.BufferSize),
		hook:     NoopHook{},
	}

	initConsumerMetricsOnce()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka handler already registered", applogger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start creates one reader per registered topic and starts the workers.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.messageWorker()
	}

	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.consumeMessages(topic, reader)
	}

	c.log.Info("kafka consumer started",
		applogger.Int("workers", c.cfg.WorkerCount),
		applogger.Int("topics", len(c.readers)))
	return nil
}

// Stop stops the Kafka consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		close(c.stopChan)
		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Warn("error closing kafka reader", applogger.String("topic", topic), applogger.Error(err))
			}
		}
		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Warn("error closing dlq writer", applogger.Error(err))
			}
		}
		if stopErr == nil {
			c.log.Info("kafka consumer stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	doneChan := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-doneChan:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.log.Warn("error reading kafka message", applogger.String("topic", topic), applogger.Error(err))
			continue
		}

		// blocks when workers fall behind, which stops fetching
		select {
		case c.msgChan <- &message{topic: topic, km: msg}:
			if consumerQueueDepth != nil {
				consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
			}
		case <-c.stopChan:
			return
		}
	}
}

// messageWorker processes messages from the channel until Stop.
func (c *Consumer) messageWorker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		case msg := <-c.msgChan:
			c.process(msg)
		}
	}
}

func (c *Consumer) process(msg *message) {
	handler, ok := c.handlers[msg.topic]
	if !ok {
		return
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic in kafka handler",
				applogger.String("topic", msg.topic),
				applogger.String("panic", fmt.Sprint(r)))
		}
	}()

	attempts := 0
	op := func() error {
		attempts++
		hctx, hmsg, hdata, err := c.hook.BeforeHandle(context.Background(), msg.topic, msg.km, msg.km.Value)
		if err != nil {
			return backoff.Permanent(err)
		}
		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, msg.topic, hmsg, hdata, err)
		if err != nil {
			c.hook.OnError(hctx, msg.topic, hmsg, hdata, err)
		}
		// hook errors classify bad payloads; retrying them cannot help
		var he *HookError
		if errors.As(err, &he) {
			return backoff.Permanent(err)
		}
		return err
	}
	err := backoff.Retry(op, backoff.WithMaxRetries(c.retryPolicy(), uint64(max(c.cfg.RetryMax, 0))))

	if err != nil {
		c.log.Error("kafka message failed",
			applogger.String("topic", msg.topic),
			applogger.Int("attempts", attempts),
			applogger.Error(err))
		c.sendToDLQ(msg)
	}

	// commit on success or after DLQ to avoid poison loops
	if err == nil || c.dlq != nil {
		if reader := c.readers[msg.topic]; reader != nil {
			c.commit(reader, msg.km)
		}
	}
	if consumerHandleLatency != nil {
		consumerHandleLatency.WithLabelValues(msg.topic).Observe(time.Since(start).Seconds())
	}
}

func (c *Consumer) retryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.BackoffMin
	b.MaxInterval = c.cfg.BackoffMax
	b.MaxElapsedTime = 0
	return b
}

func (c *Consumer) sendToDLQ(msg *message) {
	if c.dlq == nil {
		return
	}
	err := c.dlq.WriteMessages(context.Background(), kafka.Message{
		Topic:   c.cfg.DLQTopic,
		Key:     msg.km.Key,
		Value:   msg.km.Value,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "source_topic", Value: []byte(msg.topic)}},
	})
	if err != nil {
		c.log.Error("error writing to dlq", applogger.String("dlq_topic", c.cfg.DLQTopic), applogger.Error(err))
	}
}

// commit commits a single message offset with bounded retries.
func (c *Consumer) commit(reader *kafka.Reader, km kafka.Message) {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(100*time.Millisecond), 2)
	err := backoff.Retry(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return reader.CommitMessages(ctx, km)
	}, b)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Error("error committing kafka offset", applogger.String("topic", km.Topic), applogger.Error(err))
	}
}

// Consumer metrics
var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerOnce          sync.Once
)

func initConsumerMetricsOnce() {
	consumerOnce.Do(func() {
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "oracle_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "oracle_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
	})
}
