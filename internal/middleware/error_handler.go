package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// GenericFailureMessage is the only body clients ever see for a failed request.
const GenericFailureMessage = "Something broke!"

// ErrorHandler returns the echo.HTTPErrorHandler that acts as the error
// boundary of the pipeline.
//
// It runs at most once per response: when the response is already committed
// the error has been dealt with and is dropped. Router misses keep their 404 or
// 405 status. Any other error is logged with its full detail on logger and
// answered with a plain 500 carrying GenericFailureMessage. Nothing is retried
// and the boundary never calls further handlers.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		req := c.Request()

		if errors.Is(err, echo.ErrNotFound) || errors.Is(err, echo.ErrMethodNotAllowed) {
			var he *echo.HTTPError
			errors.As(err, &he)

			writeText(c, logger, he.Code, fmt.Sprintf("Cannot %s %s", req.Method, req.URL.Path))

			return
		}

		logger.Error().
			Err(err).
			Str("request_id", RequestID(c)).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("Unhandled request failure")

		writeText(c, logger, http.StatusInternalServerError, GenericFailureMessage)
	}
}

func writeText(c echo.Context, logger zerolog.Logger, code int, body string) {
	var err error
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.String(code, body)
	}

	if err != nil {
		logger.Error().Err(err).Str("request_id", RequestID(c)).Msg("Failed to write error response")
	}
}
