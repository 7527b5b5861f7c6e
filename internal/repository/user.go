package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/akave-ai/userapi/internal/model"
)

var (
	// ErrNotFound is returned when no user has the requested id.
	ErrNotFound = errors.New("user not found")

	// ErrDuplicateEmail is returned when another user already has the email.
	ErrDuplicateEmail = errors.New("email already in use")
)

// UserRepository persists users. Every backing store provides one.
type UserRepository interface {
	// Create stores a new user, assigning ID and timestamps.
	Create(ctx context.Context, user *model.User) error
	// List returns all users, newest first.
	List(ctx context.Context) ([]model.User, error)
	// GetByID returns ErrNotFound when there is no such user.
	GetByID(ctx context.Context, id string) (*model.User, error)
	// Update overwrites name and email of an existing user and refreshes UpdatedAt.
	Update(ctx context.Context, user *model.User) error
	// Delete returns ErrNotFound when there is no such user.
	Delete(ctx context.Context, id string) error
}

// now is truncated to milliseconds, the coarsest precision among the stores.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// prepareCreate returns a copy of user with its id and timestamps filled in.
// Stores write the copy back to the caller only once the insert succeeded.
func prepareCreate(user model.User) model.User {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now()
	user.UpdatedAt = user.CreatedAt
	return user
}
