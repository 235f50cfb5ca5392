package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
)

const (
	MethodGet  = http.MethodGet
	MethodPost = http.MethodPost
)

// ClientOption configures HTTPClient.
type ClientOption func(*Client)

// RequestOptions holds HTTP request parameters.
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string][]string
	Body        interface{}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// Retryable reports whether the status is worth another attempt.
func (e *StatusError) Retryable() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Client is an HTTP client with retries and an optional circuit breaker.
type Client struct {
	timeout      time.Duration
	client       *http.Client
	retryInitial time.Duration
	retryMax     time.Duration
	breaker      *gobreaker.CircuitBreaker
}

// NewClient creates a new HTTP client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c
}

// SendAndParse sends request and parses the JSON response into dest.
// Transport errors, 5xx and 429 are retried within the retry budget.
func (c *Client) SendAndParse(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	op := func() error {
		err := c.guard(func() error { return c.send(ctx, opts, dest) })
		var se *StatusError
		switch {
		case err == nil:
			return nil
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			return backoff.Permanent(err)
		case errors.As(err, &se) && !se.Retryable():
			return backoff.Permanent(err)
		case ctx.Err() != nil:
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.Retry(op, backoff.WithContext(c.policy(), ctx))
}

// BreakerState reports the circuit breaker state, or "disabled".
func (c *Client) BreakerState() string {
	if c.breaker == nil {
		return "disabled"
	}
	return c.breaker.State().String()
}

func (c *Client) policy() backoff.BackOff {
	if c.retryMax <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	if c.retryInitial > 0 {
		b.InitialInterval = c.retryInitial
	}
	b.MaxElapsedTime = c.retryMax
	return b
}

func (c *Client) guard(fn func() error) error {
	if c.breaker == nil {
		return fn()
	}
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

func (c *Client) send(ctx context.Context, opts *RequestOptions, dest interface{}) error {
	req, err := c.buildRequest(ctx, opts)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if dest == nil {
		return nil
	}

	switch v := dest.(type) {
	case *[]byte:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		*v = body
	default:
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return fmt.Errorf("decode json: %w", err)
		}
	}

	return nil
}

func (c *Client) buildRequest(ctx context.Context, opts *RequestOptions) (*http.Request, error) {
	body, err := createRequestBody(opts.Body)
	if err != nil {
		return nil, fmt.Errorf("create body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, opts.URL, body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}

	if len(opts.QueryParams) > 0 {
		q := req.URL.Query()
		for key, values := range opts.QueryParams {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	if req.Header.Get("Content-Type") == "" && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}

// createRequestBody builds a fresh reader per attempt so retries resend the payload.
func createRequestBody(body interface{}) (io.Reader, error) {
	switch v := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(v), nil
	case string:
		return strings.NewReader(v), nil
	default:
		jsonBody, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("marshal json: %w", err)
		}
		return bytes.NewReader(jsonBody), nil
	}
}

// WithTimeout sets client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.client = hc
	}
}

// WithRetry enables exponential backoff starting at initial and giving up after maxElapsed.
func WithRetry(initial, maxElapsed time.Duration) ClientOption {
	return func(c *Client) {
		c.retryInitial = initial
		c.retryMax = maxElapsed
	}
}

// WithCircuitBreaker opens the circuit after consecutive failures and lets a trial request through after openTimeout.
// Client errors (4xx other than 429) do not count as failures.
func WithCircuitBreaker(name string, failures uint32, openTimeout time.Duration) ClientOption {
	return func(c *Client) {
		if failures == 0 {
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: openTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			IsSuccessful: func(err error) bool {
				var se *StatusError
				if errors.As(err, &se) {
					return !se.Retryable()
				}
				return err == nil
			},
		})
	}
}
