package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// validate reports fields by their json or query name so errors match what the caller sent.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			if name, _, _ := strings.Cut(f.Tag.Get(tag), ","); name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}()

// ValidateStruct fills `default` tags and then checks `validate` tags. Used by the
// HTTP handlers and by the CLI for request files.
func ValidateStruct(ctx context.Context, req interface{}) []ValidationError {
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

// ReadAndValidateRequest binds body, query and path params into req, then runs ValidateStruct.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	return ValidateStruct(c.Request().Context(), req)
}

func toValidationErrors(err error) []ValidationError {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, len(fieldErrs))
		for i, fe := range fieldErrs {
			out[i] = ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: fieldMessage(fe),
				Params:  fieldParams(fe),
			}
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_BIND", Message: msg}}
}

// comparison tags share one message shape: "<field> must be <op> <param>".
var comparisons = map[string]string{
	"gt":  "greater than",
	"gte": "greater than or equal to",
	"lt":  "less than",
	"lte": "less than or equal to",
}

func fieldMessage(fe validator.FieldError) string {
	field, param := fe.Field(), fe.Param()
	if op, ok := comparisons[fe.Tag()]; ok {
		return fmt.Sprintf("%s must be %s %s", field, op, param)
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	} else if k := fe.Kind(); k == reflect.Slice || k == reflect.Map {
		unit = " items"
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "len":
		return fmt.Sprintf("%s must be exactly %s%s", field, param, unit)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}

func fieldParams(fe validator.FieldError) map[string]interface{} {
	p := fe.Param()
	switch fe.Tag() {
	case "len":
		return map[string]interface{}{"len": p}
	case "min", "gte":
		return map[string]interface{}{"min": p}
	case "max", "lte":
		return map[string]interface{}{"max": p}
	case "gt", "lt":
		return map[string]interface{}{"value": p}
	case "oneof":
		return map[string]interface{}{"options": strings.Fields(p)}
	}
	return nil
}
