package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/relay"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
)

const titlePrompt = `Write one short title, at most 20 characters, summarizing the user's question below. No trailing punctuation.`

// Completer is the slice of the relay client used for title generation.
type Completer interface {
	Complete(ctx context.Context, req relay.Request) (string, error)
}

// ConversationService manages conversations and their titles.
type ConversationService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	modelConfigs *ModelConfigService
	completer    Completer
}

func NewConversationService(db *sql.DB, m repomanager.RepositoryManager, mcs *ModelConfigService, completer Completer) *ConversationService {
	return &ConversationService{db: db, repomanager: m, modelConfigs: mcs, completer: completer}
}

func (s *ConversationService) List(ctx context.Context, userID int64) ([]models.Conversation, error) {
	return s.repomanager.Conversations(s.db).ListByUser(ctx, userID)
}

func (s *ConversationService) Get(ctx context.Context, id, userID int64) (*models.Conversation, error) {
	c, err := s.repomanager.Conversations(s.db).Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrConversationNotFound
		}
		return nil, common.ErrInternal
	}
	return c, nil
}

// Create opens a conversation bound to one of the user's model configs.
func (s *ConversationService) Create(ctx context.Context, userID, modelConfigID int64) (*models.Conversation, error) {
	if _, err := s.modelConfigs.Get(ctx, modelConfigID, userID); err != nil {
		return nil, err
	}
	return s.repomanager.Conversations(s.db).Create(ctx, userID, modelConfigID)
}

func (s *ConversationService) UpdateTitle(ctx context.Context, id, userID int64, title string) error {
	err := s.repomanager.Conversations(s.db).UpdateTitle(ctx, id, userID, title)
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrConversationNotFound
	}
	return err
}

func (s *ConversationService) UpdateModelConfig(ctx context.Context, id, userID, modelConfigID int64) error {
	if _, err := s.modelConfigs.Get(ctx, modelConfigID, userID); err != nil {
		return err
	}

	err := s.repomanager.Conversations(s.db).UpdateModelConfig(ctx, id, userID, modelConfigID)
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrConversationNotFound
	}
	return err
}

// Delete removes conversations and their messages in one transaction.
func (s *ConversationService) Delete(ctx context.Context, ids []int64, userID int64) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Messages(tx).DeleteByConversations(ctx, ids, userID); err != nil {
			return fmt.Errorf("error deleting messages: %w", err)
		}

		affected, err := s.repomanager.Conversations(tx).DeleteMany(ctx, ids, userID)
		if err != nil {
			return fmt.Errorf("error deleting conversations: %w", err)
		}
		if affected == 0 {
			return common.ErrConversationNotFound
		}
		return nil
	})
}

// GenerateTitle asks the conversation's model for a short title of the given
// first message and stores it.
func (s *ConversationService) GenerateTitle(ctx context.Context, id, userID int64, content json.RawMessage) (string, error) {
	conversation, err := s.Get(ctx, id, userID)
	if err != nil {
		return "", err
	}

	mc, err := s.modelConfigs.Get(ctx, conversation.ModelConfigID, userID)
	if err != nil {
		return "", err
	}

	apiKey, err := s.modelConfigs.DecryptedKey(mc)
	if err != nil {
		return "", common.ErrInternal
	}

	system, _ := json.Marshal(titlePrompt)
	title, err := s.completer.Complete(ctx, relay.Request{
		BaseURL: mc.BaseURL,
		Model:   mc.ModelName,
		APIKey:  apiKey,
		Messages: []relay.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: content},
		},
	})
	if err != nil {
		return "", fmt.Errorf("error generating title: %w", err)
	}

	if err := s.UpdateTitle(ctx, id, userID, title); err != nil {
		return "", err
	}
	return title, nil
}
