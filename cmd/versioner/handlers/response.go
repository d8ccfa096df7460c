package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pluginforge/pluginvcs/cmd/versioner/service"
)

// httpError translates service errors into echo HTTP errors. Unknown
// errors become a 500 with a generic message; details stay in the logs.
func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrPluginNotFound),
		errors.Is(err, service.ErrVersionNotFound),
		errors.Is(err, service.ErrTagNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrConcurrentCommit),
		errors.Is(err, service.ErrDuplicateTag):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrDiffComputation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrConstraintViolation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
