package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Recover turns a panic in a later stage into an ordinary error carrying the
// stack, and returns it up the chain so the access logger and the error handler
// see it like any other failure.
func Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableErrorHandler: true,
		LogErrorFunc: func(_ echo.Context, err error, stack []byte) error {
			return fmt.Errorf("panic recovered: %w\n%s", err, stack)
		},
	})
}
