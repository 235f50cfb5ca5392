package clickhouse

import "time"

type ClientOption func(*ClientConfig)

// ClientConfig is rendered into a DSN by BuildDSN.
type ClientConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration

	// UseHTTP selects the HTTP interface (port 8123) over the native protocol.
	UseHTTP      bool
	AsyncInsert  bool
	WaitForAsync bool
	// MaxExecTime is truncated to whole seconds.
	MaxExecTime time.Duration
}

func WithHost(host string) ClientOption {
	return func(c *ClientConfig) { c.Host = host }
}

func WithPort(port int) ClientOption {
	return func(c *ClientConfig) { c.Port = port }
}

func WithDatabase(name string) ClientOption {
	return func(c *ClientConfig) { c.Database = name }
}

func WithCredentials(user, password string) ClientOption {
	return func(c *ClientConfig) { c.User, c.Password = user, password }
}

func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *ClientConfig) { c.DialTimeout, c.ReadTimeout = dial, read }
}

func WithHTTP(enabled bool) ClientOption {
	return func(c *ClientConfig) { c.UseHTTP = enabled }
}

// WithAsyncInsert sets async_insert; wait adds wait_for_async_insert so writes
// return only after the server flushed them.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(c *ClientConfig) { c.AsyncInsert, c.WaitForAsync = enabled, wait }
}

func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(c *ClientConfig) { c.MaxExecTime = d }
}
