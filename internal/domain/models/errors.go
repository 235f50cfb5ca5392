package models

import (
	"errors"
	"fmt"
)

var (
	ErrMissingIndicator     = errors.New("indicator missing")
	ErrUnknownRegime        = errors.New("unknown regime")
	ErrUnknownRiskProfile   = errors.New("unknown risk profile")
	ErrUnknownMode          = errors.New("unknown classification mode")
	ErrInvalidAllocationSum = errors.New("allocation sum is not positive")
	ErrDataUnavailable      = errors.New("indicator data unavailable")
	ErrUnsupportedCountry   = errors.New("unsupported country")
	ErrInvalidBacktestInput = errors.New("invalid backtest input")
)

// ConfigurationError reports a request that the engine's configuration cannot serve.
type ConfigurationError struct {
	Field string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s=%q: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func NewConfigurationError(field, value string, err error) *ConfigurationError {
	return &ConfigurationError{Field: field, Value: value, Err: err}
}
