package api

import (
	"errors"

	"OraclePortfolio/internal/domain/models"
	"OraclePortfolio/internal/usecase"
	xhttp "OraclePortfolio/pkg/http"
)

// toAppError maps domain errors onto HTTP application errors.
func toAppError(err error) *xhttp.AppError {
	var appErr *xhttp.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var cfgErr *models.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return xhttp.BadRequestError(cfgErr.Field, cfgErr.Err.Error()).
			WithParam("value", cfgErr.Value).
			WithError(err)
	case errors.Is(err, models.ErrUnsupportedCountry):
		return xhttp.BadRequestError("country", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrNoCountries), errors.Is(err, usecase.ErrTooManyCountries):
		return xhttp.BadRequestError("countries", err.Error()).
			WithParam("max", usecase.MaxCountries).
			WithError(err)
	case errors.Is(err, models.ErrInvalidBacktestInput):
		return xhttp.UnprocessableError("", err.Error()).WithError(err)
	case errors.Is(err, models.ErrDataUnavailable), errors.Is(err, usecase.ErrReportsDisabled):
		return xhttp.UnavailableError(err.Error()).WithError(err)
	}
	return xhttp.InternalError("internal error").WithError(err)
}
