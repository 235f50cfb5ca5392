package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
		// ShipErrors aggregates error logs and publishes them to kafka.logs_topic.
		ShipErrors    bool          `yaml:"ship_errors"`
		FlushInterval time.Duration `yaml:"flush_interval" default:"30s"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Kafka struct {
		Enabled         bool     `yaml:"enabled"`
		Brokers         []string `yaml:"brokers"`
		EventsTopic     string   `yaml:"events_topic" default:"oracle.allocations"`
		IndicatorsTopic string   `yaml:"indicators_topic" default:"oracle.indicators"`
		LogsTopic       string   `yaml:"logs_topic" default:"oracle.logs"`
		RequiredAcks    int      `yaml:"required_acks" default:"-1"`
		Compression     string   `yaml:"compression" default:"snappy"`
		Producer        struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			BatchTimeout time.Duration `yaml:"batch_timeout" default:"50ms"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"oracle-portfolio"`
			Workers    int           `yaml:"workers" default:"4"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"oracle.indicators.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"oracle"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		// AsyncInsert lets the server buffer indicator inserts; the writer still waits for the flush.
		AsyncInsert bool `yaml:"async_insert"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host" default:"localhost"`
		Port         int           `yaml:"port" default:"6379"`
		Password     string        `yaml:"password"`
		DB           int           `yaml:"db"`
		Prefix       string        `yaml:"prefix" default:"oracle"`
		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"4s"`
	} `yaml:"redis"`
	Provider struct {
		// Chain lists providers in fallback order: store, http, static.
		Chain    []string      `yaml:"chain"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"6h"`
		HTTP     struct {
			BaseURL         string        `yaml:"base_url"`
			Timeout         time.Duration `yaml:"timeout" default:"10s"`
			MaxElapsedTime  time.Duration `yaml:"max_elapsed_time" default:"30s"`
			BreakerFailures uint32        `yaml:"breaker_failures" default:"5"`
			BreakerTimeout  time.Duration `yaml:"breaker_timeout" default:"60s"`
		} `yaml:"http"`
		// Static holds fixed indicator values per country code.
		Static map[string]map[string]float64 `yaml:"static"`
	} `yaml:"provider"`
	RateLimit struct {
		Backtest struct {
			RequestsPerSecond float64 `yaml:"requests_per_second" default:"2"`
			Burst             int     `yaml:"burst" default:"4"`
		} `yaml:"backtest"`
	} `yaml:"rate_limit"`
	Pipeline struct {
		BufferSize       int           `yaml:"buffer_size" default:"256"`
		ThrottleInterval time.Duration `yaml:"throttle_interval" default:"1s"`
		MaxRetries       int           `yaml:"max_retries" default:"3"`
	} `yaml:"pipeline"`
	Engine EngineConfig `yaml:"engine"`
}

// Default returns a configuration with every default applied and no file loaded.
func Default() (*Config, error) {
	c := &Config{Engine: DefaultEngine()}
	if err := defaults.Set(c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if len(c.Provider.Chain) == 0 {
		c.Provider.Chain = []string{"static"}
	}
	return c, nil
}

// Load reads a YAML file on top of the defaults and validates the result.
// Engine table entries present in the file replace the built-in entry with the same key.
func Load(path string) (*Config, error) {
	c, err := read(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func read(path string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config, then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	c, err := read(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		c.Redis.Host = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("INDICATOR_SERVICE_URL"); v != "" {
		c.Provider.HTTP.BaseURL = v
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if len(c.Provider.Chain) == 0 {
		return fmt.Errorf("provider.chain cannot be empty")
	}
	for _, p := range c.Provider.Chain {
		switch p {
		case "static":
		case "http":
			if c.Provider.HTTP.BaseURL == "" {
				return fmt.Errorf("provider.http.base_url is required when http is in the chain")
			}
		case "store":
			if !c.ClickHouse.Enabled {
				return fmt.Errorf("provider chain uses store but clickhouse is disabled")
			}
		default:
			return fmt.Errorf("provider.chain: unknown provider %q", p)
		}
	}
	if err := c.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	return nil
}
