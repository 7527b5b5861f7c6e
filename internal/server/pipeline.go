package server

import (
	"github.com/labstack/echo/v4"

	"github.com/akave-ai/userapi/internal/accesslog"
	"github.com/akave-ai/userapi/internal/handler"
	"github.com/akave-ai/userapi/internal/middleware"
)

// pipeline returns the request stages in execution order; the first entry is
// the outermost. The error handler installed in New wraps all of them.
func pipeline(opts Options) []echo.MiddlewareFunc {
	policy := middleware.DefaultSecurityPolicy()
	if opts.Policy != nil {
		policy = *opts.Policy
	}

	return []echo.MiddlewareFunc{
		middleware.AssignRequestID(),                               // needed by everything else
		accesslog.Middleware(opts.AccessLog, middleware.RequestID), // sees the final status
		opts.Agent.Middleware(),                                    // no-op without New Relic
		middleware.SecurityHeaders(policy),                         // all responses, errors included
		middleware.Recover(),
		middleware.ParseJSONBody(middleware.DefaultBodyLimit),
	}
}

func (s *Server) registerMiddleware(opts Options) {
	s.Echo.Use(pipeline(opts)...)
}

func (s *Server) defineRoutes() {
	s.Echo.GET("/healthz", (&handler.HealthHandler{DB: s.db}).Check)

	handler.NewUserHandler(s.db.Users()).Register(s.Echo.Group(""))
}
