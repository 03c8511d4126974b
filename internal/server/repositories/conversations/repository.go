// Package conversations declares the repository contract for chat
// conversations.
package conversations

import (
	"context"

	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type Repository interface {
	ListByUser(ctx context.Context, userID int64) ([]models.Conversation, error)

	// Get returns the conversation or ErrNotFound. Ownership is part of the
	// key: a conversation belonging to another user is not found.
	Get(ctx context.Context, id int64, userID int64) (*models.Conversation, error)

	Create(ctx context.Context, userID int64, modelConfigID int64) (*models.Conversation, error)
	UpdateTitle(ctx context.Context, id int64, userID int64, title string) error
	UpdateModelConfig(ctx context.Context, id int64, userID int64, modelConfigID int64) error

	// DeleteMany removes the listed conversations of the user and returns
	// how many rows were deleted.
	DeleteMany(ctx context.Context, ids []int64, userID int64) (int64, error)
}
