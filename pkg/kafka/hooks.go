package kafka

import (
	"bytes"
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// ConsumerHook wraps message handling. A non-nil error from BeforeHandle
// skips the handler and goes through the usual failure path (retry, DLQ).
type ConsumerHook interface {
	BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error)
	AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
	OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error)
}

// NoopHook does nothing.
type NoopHook struct{}

func (NoopHook) BeforeHandle(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	return ctx, km, data, nil
}

func (NoopHook) AfterHandle(context.Context, string, kafka.Message, []byte, error) {}

func (NoopHook) OnError(context.Context, string, kafka.Message, []byte, error) {}

// HookError is an error produced by a hook, classified by Code.
type HookError struct {
	Code string
	Err  error
}

func (e *HookError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return e.Code
}

func (e *HookError) Unwrap() error { return e.Err }

// HookFuncs implements ConsumerHook from plain functions. Nil functions are no-ops.
type HookFuncs struct {
	Before func(context.Context, string, kafka.Message, []byte) (context.Context, kafka.Message, []byte, error)
	After  func(context.Context, string, kafka.Message, []byte, error)
	Err    func(context.Context, string, kafka.Message, []byte, error)
}

func (h HookFuncs) BeforeHandle(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	if h.Before == nil {
		return ctx, km, data, nil
	}
	return h.Before(ctx, topic, km, data)
}

func (h HookFuncs) AfterHandle(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.After != nil {
		h.After(ctx, topic, km, data, err)
	}
}

func (h HookFuncs) OnError(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
	if h.Err != nil {
		h.Err(ctx, topic, km, data, err)
	}
}

// RejectEmpty fails blank payloads before they reach the handler and
// strips surrounding whitespace from the rest.
func RejectEmpty(ctx context.Context, _ string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ctx, km, data, &HookError{Code: "ERR_EMPTY_PAYLOAD"}
	}
	return ctx, km, trimmed, nil
}
