package kafka

import "time"

type ProducerOption func(*ProducerConfig)

// ProducerConfig holds writer settings. Zero values fall back to NewProducer's defaults.
type ProducerConfig struct {
	Brokers      []string
	RequiredAcks int
	Compression  string
	MaxAttempts  int
	WriteTimeout time.Duration
	ReadTimeout  time.Duration
	BatchSize    int
	BatchTimeout time.Duration
	// HashByKey routes equal keys to the same partition, keeping per-country order.
	HashByKey bool
	// Source is stamped on every message as the "source" header.
	Source string
}

func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithCompression accepts gzip, snappy, lz4, zstd or none.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithMaxAttempts(n int) ProducerOption {
	return func(c *ProducerConfig) {
		if n > 0 {
			c.MaxAttempts = n
		}
	}
}

// WithBatch sets how many messages, or how long, the writer buffers before a flush.
func WithBatch(size int, timeout time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		if size > 0 {
			c.BatchSize = size
		}
		if timeout > 0 {
			c.BatchTimeout = timeout
		}
	}
}

func WithTimeouts(write, read time.Duration) ProducerOption {
	return func(c *ProducerConfig) {
		c.WriteTimeout = write
		c.ReadTimeout = read
	}
}

func WithHashByKey(hash bool) ProducerOption {
	return func(c *ProducerConfig) { c.HashByKey = hash }
}

func WithSource(source string) ProducerOption {
	return func(c *ProducerConfig) { c.Source = source }
}
