package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIResponse is the standard success response shape.
type APIResponse struct {
	Data      any    `json:"data"`
	Status    int    `json:"status"`
	Message   string `json:"message,omitempty"`
	Path      string `json:"path"`
	RequestID string `json:"request_id,omitempty"`
}

// APIError is the standard shape for errors a client can act on (4xx/503).
// Unexpected failures never use it: they are returned to the error handler.
type APIError struct {
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
}

// requestID reads the correlation id from the response header set by the
// identity stage.
func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// pathFromContext returns the request path from Echo context.
func pathFromContext(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().URL.Path
}

// OK sends a 200 response with data.
func OK(c echo.Context, data any, message string) error {
	return Success(c, http.StatusOK, data, message)
}

// Created sends a 201 response with data.
func Created(c echo.Context, data any, message string) error {
	return Success(c, http.StatusCreated, data, message)
}

// Success sends data wrapped in APIResponse with the given status.
func Success(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, APIResponse{
		Data:      data,
		Status:    status,
		Message:   message,
		Path:      pathFromContext(c),
		RequestID: requestID(c),
	})
}

// Error sends a JSON error response using APIError.
func Error(c echo.Context, status int, message, errDetail string) error {
	return c.JSON(status, APIError{
		Message:   message,
		Error:     errDetail,
		Path:      pathFromContext(c),
		Status:    status,
		RequestID: requestID(c),
	})
}

// BadRequest sends 400 with message and error detail.
func BadRequest(c echo.Context, message, errDetail string) error {
	return Error(c, http.StatusBadRequest, message, errDetail)
}

// NotFound sends 404 with message.
func NotFound(c echo.Context, message string) error {
	return Error(c, http.StatusNotFound, message, "")
}

// Conflict sends 409 with message.
func Conflict(c echo.Context, message string) error {
	return Error(c, http.StatusConflict, message, "")
}

// ServiceUnavailable sends 503 with message.
func ServiceUnavailable(c echo.Context, message string) error {
	return Error(c, http.StatusServiceUnavailable, message, "")
}
