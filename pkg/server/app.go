package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"OraclePortfolio/internal/middleware"
	"OraclePortfolio/pkg/config"
	xhttp "OraclePortfolio/pkg/http"
	pkgkafka "OraclePortfolio/pkg/kafka"
	applogger "OraclePortfolio/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	pipeline   *middleware.EventPipeline
	consumer   *pkgkafka.Consumer
	handlers   []pkgkafka.MessageHandler
	// closers run in order after the HTTP server and consumer stop.
	closers []namedCloser
}

type namedCloser struct {
	name string
	c    io.Closer
}

// Option attaches optional components to the App.
type Option func(*App)

// WithConsumer starts c with the given handlers. A nil consumer is ignored.
func WithConsumer(c *pkgkafka.Consumer, handlers ...pkgkafka.MessageHandler) Option {
	return func(a *App) {
		if c == nil {
			return
		}
		a.consumer = c
		a.handlers = append(a.handlers, handlers...)
	}
}

// WithCloser registers a resource closed on shutdown. Nil closers are ignored.
func WithCloser(name string, c io.Closer) Option {
	return func(a *App) {
		if c != nil {
			a.closers = append(a.closers, namedCloser{name: name, c: c})
		}
	}
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, httpServer *xhttp.Server, pipeline *middleware.EventPipeline, opts ...Option) *App {
	a := &App{
		cfg:        cfg,
		log:        l,
		httpServer: httpServer,
		pipeline:   pipeline,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(runCtx)

	if a.consumer != nil && len(a.handlers) > 0 {
		topics := make([]string, 0, len(a.handlers))
		for _, h := range a.handlers {
			a.consumer.RegisterHandler(h)
			topics = append(topics, h.Topic())
		}
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.Strings("topics", topics))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("oracle portfolio started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then drains the pipeline and closes clients.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// flush shipped error logs while the producer is still open
	a.log.RemoveCollector()

	if err := a.pipeline.Close(); err != nil {
		a.log.Warn("event pipeline close error", applogger.Error(err))
	}

	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.log.Warn("close error", applogger.String("component", nc.name), applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
