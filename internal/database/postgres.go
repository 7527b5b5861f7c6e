package database

import (
	"context"
	"errors"
	"fmt"

	zerologadapter "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"

	"github.com/akave-ai/userapi/internal/repository"
)

type postgresDriver struct{}

func (*postgresDriver) Name() string      { return "postgres" }
func (*postgresDriver) Schemes() []string { return []string{"postgres", "postgresql"} }

func (*postgresDriver) Open(ctx context.Context, rawURL string, opts Options) (Database, error) {
	pool, err := NewPool(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &postgresDatabase{
		pool:  pool,
		users: repository.NewPostgresUserRepository(pool),
	}, nil
}

// NewPool builds a pgx pool and verifies it with a ping. Queries are traced
// through New Relic when enabled, otherwise slow paths and errors go to the
// zerolog logger.
func NewPool(ctx context.Context, rawURL string, opts Options) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(rawURL)
	if err != nil {
		// ParseConfig errors may contain the password.
		return nil, errors.New("invalid postgres connection string")
	}

	if opts.NewRelic {
		cfg.ConnConfig.Tracer = nrpgx5.NewTracer()
	} else {
		cfg.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   zerologadapter.NewLogger(opts.Logger),
			LogLevel: tracelog.LogLevelWarn,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

type postgresDatabase struct {
	pool  *pgxpool.Pool
	users *repository.PostgresUserRepository
}

func (*postgresDatabase) Driver() string                     { return "postgres" }
func (db *postgresDatabase) Users() repository.UserRepository { return db.users }

func (db *postgresDatabase) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *postgresDatabase) Close(context.Context) error {
	db.pool.Close()
	return nil
}
