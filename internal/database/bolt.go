package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/boltdb/bolt"

	"github.com/akave-ai/userapi/internal/repository"
)

const (
	boltFileMode    = 0o600
	boltLockTimeout = time.Second
)

// boltDriver serves bolt URLs backed by a single embedded file:
// bolt:///var/lib/userapi/users.db or bolt:users.db for a relative path.
type boltDriver struct{}

func (*boltDriver) Name() string      { return "bolt" }
func (*boltDriver) Schemes() []string { return []string{"bolt"} }

func (*boltDriver) Open(_ context.Context, rawURL string, _ Options) (Database, error) {
	path, err := boltPath(rawURL)
	if err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, boltFileMode, &bolt.Options{Timeout: boltLockTimeout})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	users, err := repository.NewBoltUserRepository(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &boltDatabase{db: db, users: users}, nil
}

func boltPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.New("malformed bolt url")
	}
	path := u.Opaque
	if path == "" {
		path = u.Host + u.Path
	}
	if path == "" {
		return "", errors.New("bolt url has no file path")
	}
	return path, nil
}

type boltDatabase struct {
	db    *bolt.DB
	users *repository.BoltUserRepository
}

func (*boltDatabase) Driver() string                     { return "bolt" }
func (db *boltDatabase) Users() repository.UserRepository { return db.users }

func (db *boltDatabase) Ping(context.Context) error {
	return db.db.View(func(*bolt.Tx) error { return nil })
}

func (db *boltDatabase) Close(context.Context) error {
	return db.db.Close()
}
