package database

import (
	"context"

	"github.com/akave-ai/userapi/internal/repository"
)

// memoryDriver serves memory:// URLs with an in-process store. Meant for local
// development and tests.
type memoryDriver struct{}

func (*memoryDriver) Name() string      { return "memory" }
func (*memoryDriver) Schemes() []string { return []string{"memory"} }

func (*memoryDriver) Open(context.Context, string, Options) (Database, error) {
	return &memoryDatabase{users: repository.NewMemoryUserRepository()}, nil
}

type memoryDatabase struct {
	users *repository.MemoryUserRepository
}

func (*memoryDatabase) Driver() string                     { return "memory" }
func (db *memoryDatabase) Users() repository.UserRepository { return db.users }
func (*memoryDatabase) Ping(context.Context) error         { return nil }
func (*memoryDatabase) Close(context.Context) error        { return nil }
