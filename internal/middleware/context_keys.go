package middleware

import "github.com/labstack/echo/v4"

// Keys under which stages store per-request values in the echo context.
const (
	requestIDKey  = "request_id"
	parsedBodyKey = "parsed_body"
)

// RequestID returns the correlation identifier assigned to the request, or ""
// when the identity stage has not run.
func RequestID(c echo.Context) string {
	id, _ := c.Get(requestIDKey).(string)
	return id
}

// ParsedBody returns the decoded JSON body, or nil when the request had none.
func ParsedBody(c echo.Context) any {
	return c.Get(parsedBodyKey)
}
