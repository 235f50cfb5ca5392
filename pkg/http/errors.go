package http

import (
	"fmt"
	"net/http"
)

// AppError is an engine or validation failure rendered into the response envelope.
// Status selects the HTTP code and is never serialized.
type AppError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Status  int                    `json:"-"`
	Err     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(code, field, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Field:   field,
		Status:  status,
	}
}

// WithParam adds a detail such as the offending value or the allowed range.
func (e *AppError) WithParam(key string, value interface{}) *AppError {
	if e.Params == nil {
		e.Params = make(map[string]interface{})
	}
	e.Params[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// BadRequestError creates a 400 error.
func BadRequestError(field, message string) *AppError {
	return NewAppError("ERR_BAD_REQUEST", field, message, http.StatusBadRequest)
}

// UnprocessableError creates a 422 error for well-formed input the engine cannot use.
func UnprocessableError(field, message string) *AppError {
	return NewAppError("ERR_UNPROCESSABLE", field, message, http.StatusUnprocessableEntity)
}

// UnavailableError creates a 503 error.
func UnavailableError(message string) *AppError {
	return NewAppError("ERR_UNAVAILABLE", "", message, http.StatusServiceUnavailable)
}

// InternalError creates a 500 error.
func InternalError(message string) *AppError {
	return NewAppError("ERR_INTERNAL", "", message, http.StatusInternalServerError)
}
