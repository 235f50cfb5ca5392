package logger

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Publisher ships aggregated error logs somewhere durable (Kafka in production).
type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval
	CountThreshold int           // max distinct entries before an early flush
	Topic          string
	Publisher      Publisher
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector deduplicates repeated error entries and publishes them in batches.
type LogCollector struct {
	config  *CollectionConfig
	entries map[string]*AggregatedLogEntry
	mu      sync.Mutex
	stop    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	if config.TimeInterval <= 0 {
		config.TimeInterval = 30 * time.Second
	}
	if config.CountThreshold <= 0 {
		config.CountThreshold = 100
	}

	c := &LogCollector{
		config:  config,
		entries: make(map[string]*AggregatedLogEntry),
		stop:    make(chan struct{}),
	}

	c.wg.Add(1)
	go c.loop()

	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.Count++
		entry.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}

	if len(c.entries) >= c.config.CountThreshold {
		c.publish(c.drain())
	}
}

// Pending returns the number of distinct entries waiting for the next flush.
func (c *LogCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func entryKey(level, message string, fields map[string]interface{}, caller string) string {
	raw, _ := json.Marshal([]interface{}{level, message, fields, caller})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func (c *LogCollector) loop() {
	defer c.wg.Done()

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			batch := c.drain()
			c.mu.Unlock()
			c.publish(batch)
		case <-c.stop:
			c.mu.Lock()
			batch := c.drain()
			c.mu.Unlock()
			c.publishSync(batch)
			return
		}
	}
}

// drain must be called with mu held.
func (c *LogCollector) drain() []AggregatedLogEntry {
	if len(c.entries) == 0 {
		return nil
	}
	batch := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, entry := range c.entries {
		batch = append(batch, *entry)
	}
	c.entries = make(map[string]*AggregatedLogEntry)
	return batch
}

func (c *LogCollector) publish(batch []AggregatedLogEntry) {
	if len(batch) == 0 {
		return
	}
	go c.publishSync(batch)
}

func (c *LogCollector) publishSync(batch []AggregatedLogEntry) {
	if len(batch) == 0 || c.config.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
		// the logger itself is the failing sink here
		fmt.Fprintf(os.Stderr, "failed to publish aggregated logs: %v\n", err)
	}
}

func (c *LogCollector) Close() {
	c.once.Do(func() {
		close(c.stop)
		c.wg.Wait()
	})
}
