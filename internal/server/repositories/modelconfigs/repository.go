// Package modelconfigs declares the repository contract for per-user
// completion endpoint configurations.
package modelconfigs

import (
	"context"

	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.ModelConfig, error)

	// Get returns the config or ErrNotFound; ownership is part of the key.
	Get(ctx context.Context, id int64, userID int64) (*models.ModelConfig, error)

	Create(ctx context.Context, mc *models.ModelConfig) (*models.ModelConfig, error)
	Update(ctx context.Context, mc *models.ModelConfig) error

	// DeleteMany removes the listed configs of the user and returns how many
	// rows were deleted.
	DeleteMany(ctx context.Context, ids []int64, userID int64) (int64, error)
}
