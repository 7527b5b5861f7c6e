package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/boltdb/bolt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akave-ai/userapi/internal/model"
)

func newBoltRepo(t *testing.T) UserRepository {
	t.Helper()

	db, err := bolt.Open(filepath.Join(t.TempDir(), "users.db"), 0o600, &bolt.Options{Timeout: time.Second})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo, err := NewBoltUserRepository(db)
	require.NoError(t, err)
	return repo
}

func TestUserRepositories(t *testing.T) {
	t.Parallel()

	stores := map[string]func(t *testing.T) UserRepository{
		"memory": func(*testing.T) UserRepository { return NewMemoryUserRepository() },
		"bolt":   newBoltRepo,
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			runUserRepositoryContract(t, open(t))
		})
	}
}

func runUserRepositoryContract(t *testing.T, repo UserRepository) {
	t.Helper()
	ctx := context.Background()

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.NotNil(t, list, "empty list encodes as [] rather than null")

	ada := &model.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, repo.Create(ctx, ada))
	require.NotEmpty(t, ada.ID)
	assert.False(t, ada.CreatedAt.IsZero())
	assert.Equal(t, ada.CreatedAt, ada.UpdatedAt)

	// Ensure a strictly later creation time for ordering.
	time.Sleep(2 * time.Millisecond)

	grace := &model.User{Name: "Grace", Email: "grace@example.com"}
	require.NoError(t, repo.Create(ctx, grace))

	dup := &model.User{Name: "Other Ada", Email: "ada@example.com"}
	require.ErrorIs(t, repo.Create(ctx, dup), ErrDuplicateEmail)
	assert.Equal(t, model.User{Name: "Other Ada", Email: "ada@example.com"}, *dup, "failed create leaves the input alone")

	got, err := repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
	assert.Equal(t, "ada@example.com", got.Email)
	assert.True(t, ada.CreatedAt.Equal(got.CreatedAt))

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, grace.ID, list[0].ID, "newest first")
	assert.Equal(t, ada.ID, list[1].ID)

	time.Sleep(2 * time.Millisecond)

	update := &model.User{ID: ada.ID, Name: "Ada Lovelace", Email: "ada@example.com"}
	require.NoError(t, repo.Update(ctx, update))
	assert.True(t, update.CreatedAt.Equal(ada.CreatedAt))
	assert.True(t, update.UpdatedAt.After(ada.UpdatedAt))

	got, err = repo.GetByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got.Name)

	stealEmail := &model.User{ID: grace.ID, Name: "Grace", Email: "ada@example.com"}
	require.ErrorIs(t, repo.Update(ctx, stealEmail), ErrDuplicateEmail)

	missing := &model.User{ID: "00000000-0000-0000-0000-000000000000", Name: "x", Email: "x@example.com"}
	require.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)

	require.NoError(t, repo.Delete(ctx, ada.ID))
	require.ErrorIs(t, repo.Delete(ctx, ada.ID), ErrNotFound)

	_, err = repo.GetByID(ctx, ada.ID)
	require.ErrorIs(t, err, ErrNotFound)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, grace.ID, list[0].ID)
}
