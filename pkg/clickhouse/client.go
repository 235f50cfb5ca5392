package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/ClickHouse/clickhouse-go/v2"
)

// Client manages ClickHouse connection pool.
type Client struct {
	db       *sql.DB
	database string
}

// NewClient creates a ClickHouse client with connection pool and verifies connectivity.
func NewClient(ctx context.Context, opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		Port:            9000,
		Database:        "default",
		User:            "default",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		DialTimeout:     5 * time.Second,
		ReadTimeout:     10 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("host is required")
	}

	db, err := sql.Open("clickhouse", BuildDSN(*cfg))
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}

	return &Client{db: db, database: cfg.Database}, nil
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Database returns the configured database name.
func (c *Client) Database() string {
	return c.database
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes connection pool.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func InitSchema(ctx context.Context, db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// BuildDSN renders the clickhouse-go DSN for cfg.
func BuildDSN(cfg ClientConfig) string {
	scheme := "clickhouse"
	if cfg.UseHTTP {
		scheme = "http"
	}
	u := url.URL{
		Scheme: scheme,
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}

	q := url.Values{}
	if cfg.DialTimeout > 0 {
		q.Set("dial_timeout", cfg.DialTimeout.String())
	}
	if cfg.ReadTimeout > 0 {
		q.Set("read_timeout", cfg.ReadTimeout.String())
	}
	// max_execution_time is a server setting in whole seconds
	if cfg.MaxExecTime > 0 {
		q.Set("max_execution_time", strconv.Itoa(int(cfg.MaxExecTime.Seconds())))
	}
	if cfg.AsyncInsert {
		q.Set("async_insert", "1")
		if cfg.WaitForAsync {
			q.Set("wait_for_async_insert", "1")
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
