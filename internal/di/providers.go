package di

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"

	domrepo "OraclePortfolio/internal/domain/repository"
	"OraclePortfolio/internal/handler/api"
	"OraclePortfolio/internal/handler/stream"
	"OraclePortfolio/internal/middleware"
	internalrepo "OraclePortfolio/internal/repository"
	"OraclePortfolio/internal/service/ratelimit"
	"OraclePortfolio/internal/services/allocation"
	"OraclePortfolio/internal/services/backtest"
	"OraclePortfolio/internal/services/regime"
	"OraclePortfolio/internal/services/seasonal"
	"OraclePortfolio/internal/usecase"
	"OraclePortfolio/pkg/cache"
	pkgch "OraclePortfolio/pkg/clickhouse"
	"OraclePortfolio/pkg/config"
	xhttp "OraclePortfolio/pkg/http"
	pkgkafka "OraclePortfolio/pkg/kafka"
	applogger "OraclePortfolio/pkg/logger"
	"OraclePortfolio/pkg/metrics"
	"OraclePortfolio/pkg/server"
)

// sourceName is stamped on published events.
const sourceName = "oracle-portfolio"

// InfraSet provides clients for external systems. Disabled systems yield nil values.
var InfraSet = wire.NewSet(
	ProvideLogger,
	ProvideMetrics,
	ProvideCache,
	ProvideClickHouseClient,
	ProvideIndicatorStore,
	ProvideReportStore,
	ProvideKafkaProducer,
	ProvideKafkaPublisher,
)

// EngineSet provides the pure computation services.
var EngineSet = wire.NewSet(
	ProvideClassifier,
	ProvideScorer,
	ProvideAdjuster,
	ProvideBacktestEngine,
)

// AppSet provides use cases, transport and the application itself.
var AppSet = wire.NewSet(
	ProvideIndicatorProvider,
	ProvideHub,
	ProvideEventPipeline,
	ProvidePortfolioUseCase,
	usecase.NewMultiCountryUseCase,
	ProvideBacktestUseCase,
	ProvideBacktestLimiter,
	ProvideHandlers,
	ProvideHTTPServer,
	ProvideKafkaConsumer,
	ProvideIndicatorUpdatesHandler,
	ProvideApp,
)

// ProvideLogger builds the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideCache returns a memory cache, fronting Redis when Redis is enabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		mc := cache.NewMemoryCache(cache.WithMemoryMaxSize(1024), cache.WithMemoryCleanup(time.Minute))
		return mc, func() { _ = mc.Close() }, nil
	}

	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(cfg.Redis.Host),
		cache.WithRedisPort(cfg.Redis.Port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPool(cfg.Redis.PoolSize, cfg.Redis.MinIdleConns, cfg.Redis.PoolTimeout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	l.Info("redis cache connected", applogger.String("host", cfg.Redis.Host))

	lc := cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(256),
		cache.WithLayeredMemoryTTL(time.Minute),
	)
	return lc, func() { _ = lc.Close() }, nil
}

// ProvideClickHouseClient connects to ClickHouse and creates the schema. It returns nil when disabled.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func(), error) {
	if !cfg.ClickHouse.Enabled {
		return nil, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := pkgch.InitSchema(ctx, client.DB(), internalrepo.Schema(cfg.ClickHouse.Database)); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse connected", applogger.String("database", cfg.ClickHouse.Database))

	return client, func() { _ = client.Close() }, nil
}

// ProvideIndicatorStore returns nil when ClickHouse is disabled.
func ProvideIndicatorStore(client *pkgch.Client, l *applogger.Logger) *internalrepo.CHIndicatorStore {
	if client == nil {
		return nil
	}
	return internalrepo.NewCHIndicatorStore(client.DB(), client.Database(), l)
}

// ProvideReportStore returns a nil interface when ClickHouse is disabled so report listing reports 503.
func ProvideReportStore(client *pkgch.Client, l *applogger.Logger) domrepo.ReportStore {
	if client == nil {
		return nil
	}
	return internalrepo.NewCHReportStore(client.DB(), client.Database(), l)
}

// ProvideKafkaProducer creates a Kafka producer. It returns nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatch(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
		pkgkafka.WithSource(sourceName),
	)
	if err != nil {
		return nil, fmt.Errorf("init producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaPublisher wraps the producer and, when configured, ships aggregated error logs through it.
func ProvideKafkaPublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) *internalrepo.KafkaPublisher {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.EventsTopic)
	if cfg.Log.ShipErrors {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval: cfg.Log.FlushInterval,
			Topic:        cfg.Kafka.LogsTopic,
			Publisher:    pub,
		})
	}
	return pub
}

func ProvideClassifier(cfg *config.Config) *regime.Classifier {
	return regime.New(cfg.Engine)
}

func ProvideScorer(cfg *config.Config, l *applogger.Logger) *allocation.Scorer {
	return allocation.New(cfg.Engine, allocation.WithLogger(l))
}

func ProvideAdjuster(cfg *config.Config, l *applogger.Logger) *seasonal.Adjuster {
	return seasonal.New(cfg.Engine, seasonal.WithLogger(l))
}

func ProvideBacktestEngine(cfg *config.Config) *backtest.Engine {
	return backtest.New(cfg.Engine.Backtest)
}

// ProvideIndicatorProvider assembles the configured provider chain behind the cache.
func ProvideIndicatorProvider(
	cfg *config.Config,
	store *internalrepo.CHIndicatorStore,
	c cache.Service,
	m domrepo.Metrics,
	l *applogger.Logger,
) (*internalrepo.CachedProvider, error) {
	var providers []domrepo.IndicatorProvider
	for _, kind := range domrepo.NormalizeProviderChain(cfg.Provider.Chain) {
		switch kind {
		case domrepo.ProviderStatic:
			providers = append(providers, internalrepo.NewStaticProvider(cfg.Provider.Static, l))
		case domrepo.ProviderHTTP:
			client := xhttp.NewClient(
				xhttp.WithTimeout(cfg.Provider.HTTP.Timeout),
				xhttp.WithRetry(200*time.Millisecond, cfg.Provider.HTTP.MaxElapsedTime),
				xhttp.WithCircuitBreaker("indicator-service", cfg.Provider.HTTP.BreakerFailures, cfg.Provider.HTTP.BreakerTimeout),
			)
			providers = append(providers, internalrepo.NewHTTPProvider(client, cfg.Provider.HTTP.BaseURL, l))
		case domrepo.ProviderStore:
			if store == nil {
				return nil, fmt.Errorf("provider chain uses store but clickhouse is disabled")
			}
			providers = append(providers, store)
		}
	}

	chain := internalrepo.NewChainProvider(m, l, providers...)
	l.Info("indicator providers ready", applogger.String("chain", chain.Name()))
	return internalrepo.NewCachedProvider(chain, c, cfg.Provider.CacheTTL, l), nil
}

func ProvideHub(cfg *config.Config, l *applogger.Logger) *stream.Hub {
	return stream.NewHub(l, stream.WithAllowedOrigins(cfg.Server.CORSOrigins))
}

// ProvideEventPipeline fans allocation events out to Kafka (when enabled) and the websocket hub.
func ProvideEventPipeline(
	cfg *config.Config,
	pub *internalrepo.KafkaPublisher,
	hub *stream.Hub,
	m domrepo.Metrics,
	l *applogger.Logger,
) *middleware.EventPipeline {
	opts := []middleware.PipelineOption{
		middleware.WithThrottle(cfg.Pipeline.ThrottleInterval),
		middleware.WithBufferSize(cfg.Pipeline.BufferSize),
		middleware.WithMaxRetries(cfg.Pipeline.MaxRetries),
		middleware.WithSink("websocket", hub),
	}
	if pub != nil {
		opts = append(opts, middleware.WithSink("kafka", pub))
	}
	return middleware.NewEventPipeline(m, l, opts...)
}

func ProvidePortfolioUseCase(
	provider *internalrepo.CachedProvider,
	classifier *regime.Classifier,
	scorer *allocation.Scorer,
	adjuster *seasonal.Adjuster,
	pipeline *middleware.EventPipeline,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.PortfolioUseCase {
	return usecase.NewPortfolioUseCase(provider, classifier, scorer, adjuster, pipeline, m, l)
}

func ProvideBacktestUseCase(
	engine *backtest.Engine,
	portfolio *usecase.PortfolioUseCase,
	reports domrepo.ReportStore,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.BacktestUseCase {
	return usecase.NewBacktestUseCase(engine, portfolio, reports, m, l)
}

func ProvideBacktestLimiter(cfg *config.Config) *ratelimit.Limiter {
	rl := cfg.RateLimit.Backtest
	return ratelimit.New(rl.RequestsPerSecond, rl.Burst)
}

// ProvideHandlers lists every HTTP route group.
func ProvideHandlers(
	l *applogger.Logger,
	portfolio *usecase.PortfolioUseCase,
	multi *usecase.MultiCountryUseCase,
	bt *usecase.BacktestUseCase,
	limiter *ratelimit.Limiter,
	hub *stream.Hub,
	ch *pkgch.Client,
	c cache.Service,
) []xhttp.Handler {
	checks := map[string]api.HealthCheck{
		"cache": func(ctx context.Context) error {
			_, err := c.Exists(ctx, "healthz")
			return err
		},
	}
	if ch != nil {
		checks["clickhouse"] = ch.Health
	}

	return []xhttp.Handler{
		api.NewHealthHandler(checks),
		api.NewPortfolioHandler(l, portfolio, multi),
		api.NewBacktestHandler(l, bt, limiter),
		hub,
	}
}

func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, handlers []xhttp.Handler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, handlers,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
		xhttp.WithMetrics(metricsPath, prometheus.DefaultRegisterer, prometheus.DefaultGatherer),
	)
}

// ProvideKafkaConsumer returns nil unless Kafka and ClickHouse are both enabled.
func ProvideKafkaConsumer(cfg *config.Config, store *internalrepo.CHIndicatorStore, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || store == nil {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.HookFuncs{Before: pkgkafka.RejectEmpty})
	return consumer, nil
}

// ProvideIndicatorUpdatesHandler returns nil when there is no store to write to.
func ProvideIndicatorUpdatesHandler(
	cfg *config.Config,
	store *internalrepo.CHIndicatorStore,
	provider *internalrepo.CachedProvider,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.IndicatorUpdatesHandler {
	if store == nil {
		return nil
	}
	return usecase.NewIndicatorUpdatesHandler(cfg.Kafka.IndicatorsTopic, store, provider, m, l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	httpServer *xhttp.Server,
	pipeline *middleware.EventPipeline,
	consumer *pkgkafka.Consumer,
	updates *usecase.IndicatorUpdatesHandler,
) *server.App {
	opts := []server.Option{}
	if consumer != nil && updates != nil {
		opts = append(opts, server.WithConsumer(consumer, updates))
	}
	return server.New(cfg, l, httpServer, pipeline, opts...)
}
