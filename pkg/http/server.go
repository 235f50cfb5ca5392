package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"OraclePortfolio/pkg/http/middleware"
	applogger "OraclePortfolio/pkg/logger"
)

// ServerOption configures Server.
type ServerOption func(*ServerConfig)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	MetricsPath     string
	SlowRequest     time.Duration
	Registerer      prometheus.Registerer
	Gatherer        prometheus.Gatherer
}

// Server wraps Echo HTTP server.
type Server struct {
	echo   *echo.Echo
	config *ServerConfig
	log    *applogger.Logger
}

// NewServer creates a new HTTP server with Echo and registers every handler's routes.
func NewServer(l *applogger.Logger, handlers []Handler, opts ...ServerOption) *Server {
	cfg := &ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     []string{"*"},
		MetricsPath:     "/metrics",
		SlowRequest:     time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.DefaultRegisterer
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.RequestLogging(l, cfg.SlowRequest))
	if cfg.MetricsPath != "" {
		e.Use(middleware.NewHTTPMetrics(cfg.Registerer).Middleware())
	}
	e.Use(middleware.Recover(l))

	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORS(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{
				http.MethodGet,
				http.MethodPost,
				http.MethodOptions,
			},
			AllowHeaders: []string{
				echo.HeaderOrigin,
				echo.HeaderContentType,
				echo.HeaderAccept,
			},
			MaxAge: 600,
		}))
	}

	for _, h := range handlers {
		if h != nil {
			h.RegisterRoutes(e)
		}
	}

	if cfg.MetricsPath != "" {
		e.GET(cfg.MetricsPath, echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		echo:   e,
		config: cfg,
		log:    l,
	}
}

// Start starts the HTTP server in the background.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	go func() {
		s.log.Info("http server listening", applogger.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("http server error", applogger.Error(err))
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("http server stopped")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// WithHost sets server host.
func WithHost(host string) ServerOption {
	return func(c *ServerConfig) {
		c.Host = host
	}
}

// WithPort sets server port.
func WithPort(port int) ServerOption {
	return func(c *ServerConfig) {
		c.Port = port
	}
}

// WithTimeouts sets read/write/shutdown timeouts.
func WithTimeouts(read, write, shutdown time.Duration) ServerOption {
	return func(c *ServerConfig) {
		c.ReadTimeout = read
		c.WriteTimeout = write
		c.ShutdownTimeout = shutdown
	}
}

// WithCORSOrigins sets allowed origins. An empty list disables CORS.
func WithCORSOrigins(origins []string) ServerOption {
	return func(c *ServerConfig) {
		c.CORSOrigins = origins
	}
}

// WithMetrics sets the scrape path and registry. An empty path disables request metrics.
func WithMetrics(path string, reg prometheus.Registerer, gatherer prometheus.Gatherer) ServerOption {
	return func(c *ServerConfig) {
		c.MetricsPath = path
		c.Registerer = reg
		c.Gatherer = gatherer
	}
}
