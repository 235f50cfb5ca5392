package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes data inside the APIResponse envelope.
func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, APIResponse{Status: status, Message: http.StatusText(status), Data: data})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

func ListResponse(c echo.Context, rows interface{}, total int64) error {
	return SuccessResponse(c, &ListDataResponse{Rows: rows, Total: total})
}

// BadRequestResponse is used for binding and validation failures; data is usually []ValidationError.
func BadRequestResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusBadRequest, data)
}

// AppErrorResponse renders err with its own status when it is an *AppError.
// Anything else becomes an opaque 500.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return DataResponse(c, http.StatusInternalServerError, "internal error")
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
