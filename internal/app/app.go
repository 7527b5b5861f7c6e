// Package app wires configuration, the database and the HTTP server together
// and runs them for the lifetime of the process.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/akave-ai/userapi/internal/accesslog"
	"github.com/akave-ai/userapi/internal/config"
	"github.com/akave-ai/userapi/internal/database"
	"github.com/akave-ai/userapi/internal/logger"
	"github.com/akave-ai/userapi/internal/observability"
	"github.com/akave-ai/userapi/internal/server"
)

// Process exit codes.
const (
	ExitOK             = 0
	ExitStartupFailure = 1
)

const (
	connectTimeout = 30 * time.Second
	closeTimeout   = 5 * time.Second
)

// ConnectFunc opens the database named by a connection URL.
type ConnectFunc func(ctx context.Context, rawURL string, opts database.Options) (database.Database, error)

type Options struct {
	ConfigFiles config.Files

	// Connect defaults to database.Connect.
	Connect ConnectFunc

	// Assembled, when set, receives the server after it is built and before it
	// binds its port.
	Assembled func(*server.Server)
}

// Main runs the service until ctx is cancelled and returns the process exit
// code. Every step up to binding the port must succeed; the first failure is
// logged and Main returns ExitStartupFailure without serving anything.
func Main(ctx context.Context, opts Options) int {
	logger.SetDefault()

	cfg, err := config.Load(opts.ConfigFiles)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return ExitStartupFailure
	}

	logger.Setup(cfg.Observability.LogLevel)

	agent, err := observability.Start(cfg.Observability)
	if err != nil {
		log.Error().Err(err).Msg("Failed to start New Relic agent")
		return ExitStartupFailure
	}
	defer agent.Shutdown()

	connect := opts.Connect
	if connect == nil {
		connect = database.Connect
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	db, err := connect(connectCtx, cfg.Database.URL, database.Options{
		Logger:   log.Logger,
		NewRelic: agent.Enabled(),
	})
	cancel()
	if err != nil {
		log.Error().Err(err).Msg("Failed to connect to database")
		return ExitStartupFailure
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to close database")
		}
	}()

	sink, err := accesslog.Open(cfg.Server.AccessLogPath)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open access log")
		return ExitStartupFailure
	}
	defer func() {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close access log")
		}
	}()

	srv := server.New(cfg, db, server.Options{
		AccessLog: sink,
		Agent:     agent,
		Logger:    log.Logger,
	})
	if opts.Assembled != nil {
		opts.Assembled(srv)
	}

	if err := srv.Start(ctx); err != nil {
		log.Error().Err(err).Msg("Server exited")
		return ExitStartupFailure
	}

	return ExitOK
}
