// Package observability starts the optional New Relic agent and hooks it into
// echo. Without a license key nothing is started and the middleware is a no-op.
package observability

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	nrecho "github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/akave-ai/userapi/internal/config"
)

const shutdownTimeout = 5 * time.Second

// Agent wraps the New Relic application. A nil *Agent is valid and disabled.
type Agent struct {
	app *newrelic.Application
}

// Start creates the agent when cfg carries a license key.
func Start(cfg *config.ObservabilityConfig) (*Agent, error) {
	if cfg == nil || !cfg.NewRelic.Enabled() {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(cfg.NewRelic.AppName),
		newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
		newrelic.ConfigDistributedTracerEnabled(true),
		func(c *newrelic.Config) {
			c.Labels = map[string]string{"env": cfg.Environment, "service": cfg.ServiceName}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("start new relic agent: %w", err)
	}

	return &Agent{app: app}, nil
}

// Enabled reports whether transactions are being recorded.
func (a *Agent) Enabled() bool {
	return a != nil && a.app != nil
}

// Middleware records one transaction per request.
func (a *Agent) Middleware() echo.MiddlewareFunc {
	if !a.Enabled() {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return nrecho.Middleware(a.app)
}

// Shutdown flushes pending data.
func (a *Agent) Shutdown() {
	if a.Enabled() {
		a.app.Shutdown(shutdownTimeout)
	}
}
