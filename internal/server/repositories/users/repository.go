// Package users declares the repository contract for user accounts and
// their group memberships.
package users

import (
	"context"

	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type Repository interface {
	// Create inserts the user and joins it to the default group.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// FindByEmail returns the user with all group memberships loaded,
	// or ErrNotFound.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByID returns the user with all group memberships loaded,
	// or ErrNotFound.
	FindByID(ctx context.Context, id int64) (*models.User, error)

	// EmailExists reports whether another user (id != excludeID) already
	// uses the email. Pass 0 to check against all users.
	EmailExists(ctx context.Context, email string, excludeID int64) (bool, error)

	UpdateName(ctx context.Context, id int64, name string) error
	UpdateEmail(ctx context.Context, id int64, email string) error
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}
