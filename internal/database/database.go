// Package database establishes the process-wide connection to the backing
// store. The store is picked from the URL scheme of the configured connection
// string; each scheme is served by a Driver registered in GlobalRegistry.
package database

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/akave-ai/userapi/internal/repository"
)

// Database is the shared handle created once at startup and passed to every
// request handler.
type Database interface {
	// Driver names the driver that opened the handle.
	Driver() string
	Users() repository.UserRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Options tune how drivers open their connection.
type Options struct {
	Logger zerolog.Logger

	// NewRelic instruments queries for a running New Relic agent, where the
	// driver supports it.
	NewRelic bool
}

// Driver opens a Database for one family of URL schemes. Open performs a
// single connection attempt and verifies it before returning.
type Driver interface {
	Name() string
	Schemes() []string
	Open(ctx context.Context, rawURL string, opts Options) (Database, error)
}
