// Package messages declares the repository contract for stored chat messages.
package messages

import (
	"context"
	"encoding/json"

	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type Repository interface {
	// ListByConversation returns messages oldest first.
	ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error)

	Insert(ctx context.Context, userID, conversationID int64, role string, content json.RawMessage) (*models.Message, error)

	// DeleteByConversations removes all messages of the listed conversations,
	// but only where the conversation belongs to userID. Runs inside the same
	// transaction as the conversation delete.
	DeleteByConversations(ctx context.Context, conversationIDs []int64, userID int64) error
}
