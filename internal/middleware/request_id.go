package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AssignRequestID gives every request a fresh random identifier before any other
// stage sees it. Client-supplied X-Request-ID headers are ignored so identifiers
// stay unique within the process.
func AssignRequestID() echo.MiddlewareFunc {
	return assignRequestID(uuid.NewString)
}

func assignRequestID(generate func() string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := generate()

			c.Set(requestIDKey, id)
			c.Response().Header().Set(echo.HeaderXRequestID, id)

			return next(c)
		}
	}
}
