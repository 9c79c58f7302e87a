package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/curenation/hms/internal/platform/apierror"
	"github.com/curenation/hms/pkg/response"
)

// ErrorHandler renders every error as the standard failure envelope.
// Classified errors keep their message; anything else becomes a generic 500.
// The underlying cause is only included when exposeDetail is set.
func ErrorHandler(exposeDetail bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message, cause := classify(err)

		if status >= http.StatusInternalServerError {
			zerolog.Ctx(c.Request().Context()).Error().
				Err(err).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		var detail interface{}
		if exposeDetail && cause != nil {
			detail = cause.Error()
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = response.Fail(c, status, message, detail)
		}
		if writeErr != nil {
			zerolog.Ctx(c.Request().Context()).Error().Err(writeErr).Msg("write error response")
		}
	}
}

func classify(err error) (status int, message string, cause error) {
	if apiErr, ok := apierror.As(err); ok {
		return apiErr.Status(), apiErr.Message, apiErr.Err
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.Code == http.StatusNotFound && httpErr.Message == echo.ErrNotFound.Message:
			return http.StatusNotFound, "Route not found", nil
		case httpErr.Code == http.StatusInternalServerError:
			return httpErr.Code, "Internal server error", httpErr.Internal
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message), httpErr.Internal
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, "Request timed out", err
	}
	return http.StatusInternalServerError, "Internal server error", err
}
