package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/akave-ai/userapi/internal/response"
)

const healthPingTimeout = 2 * time.Second

// Pinger is satisfied by the database handle.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports whether the backing store answers.
type HealthHandler struct {
	DB Pinger
}

// Check answers GET /healthz.
func (h *HealthHandler) Check(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthPingTimeout)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check: database ping failed")
		return response.ServiceUnavailable(c, "database unavailable")
	}
	return response.OK(c, map[string]string{"status": "ok"}, "")
}
