package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/relay"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
)

// Streamer is the slice of the relay client used for chat replies.
type Streamer interface {
	Stream(ctx context.Context, req relay.Request, fn func(delta string) error) error
}

// Presigner rewrites attachment references between the persistent storage
// form and short-lived presigned download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
	ExtractKey(rawURL string) string
}

// ChatService persists messages and relays completions. Stored message
// content never contains presigned URLs: image references are normalized to
// the storage form on write and re-presigned on every read.
type ChatService struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	modelConfigs *ModelConfigService
	streamer     Streamer
	presigner    Presigner
}

func NewChatService(db *sql.DB, m repomanager.RepositoryManager, mcs *ModelConfigService, streamer Streamer, presigner Presigner) *ChatService {
	return &ChatService{db: db, repomanager: m, modelConfigs: mcs, streamer: streamer, presigner: presigner}
}

// Messages returns a conversation's history with image references presigned
// for download.
func (s *ChatService) Messages(ctx context.Context, conversationID, userID int64) ([]models.Message, error) {
	if _, err := s.repomanager.Conversations(s.db).Get(ctx, conversationID, userID); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrConversationNotFound
		}
		return nil, common.ErrInternal
	}

	list, err := s.repomanager.Messages(s.db).ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, common.ErrInternal
	}

	for i := range list {
		if list[i].Role != "user" {
			continue
		}
		content, err := s.presignImages(ctx, list[i].Content)
		if err != nil {
			return nil, err
		}
		list[i].Content = content
	}

	return list, nil
}

// StreamReply stores the newest user message, streams the model's answer
// through onDelta, and stores the assistant reply once the stream ends.
// Both stored messages are returned.
func (s *ChatService) StreamReply(ctx context.Context, conversationID, userID int64, history []relay.Message, onDelta func(delta string) error) (*models.Message, *models.Message, error) {
	if len(history) == 0 {
		return nil, nil, common.ErrInternal
	}

	conversation, err := s.repomanager.Conversations(s.db).Get(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil, common.ErrConversationNotFound
		}
		return nil, nil, common.ErrInternal
	}

	mc, err := s.modelConfigs.Get(ctx, conversation.ModelConfigID, userID)
	if err != nil {
		return nil, nil, err
	}
	apiKey, err := s.modelConfigs.DecryptedKey(mc)
	if err != nil {
		return nil, nil, common.ErrInternal
	}

	// persist the newest message with attachment keys, not expiring URLs
	last := history[len(history)-1]
	stored, err := s.storageImages(last.Content)
	if err != nil {
		return nil, nil, err
	}
	userMessage, err := s.repomanager.Messages(s.db).Insert(ctx, userID, conversationID, last.Role, stored)
	if err != nil {
		return nil, nil, common.ErrInternal
	}

	delivery, err := s.deliveryMessages(ctx, history)
	if err != nil {
		return nil, nil, err
	}

	var params map[string]any
	if len(mc.Params) > 0 {
		if err := json.Unmarshal(mc.Params, &params); err != nil {
			return nil, nil, common.ErrInternal
		}
	}

	var reply strings.Builder
	err = s.streamer.Stream(ctx, relay.Request{
		BaseURL:  mc.BaseURL,
		Model:    mc.ModelName,
		APIKey:   apiKey,
		Messages: delivery,
		Params:   params,
	}, func(delta string) error {
		reply.WriteString(delta)
		return onDelta(delta)
	})
	if err != nil {
		return userMessage, nil, fmt.Errorf("error streaming completion: %w", err)
	}

	content, err := json.Marshal(reply.String())
	if err != nil {
		return userMessage, nil, common.ErrInternal
	}
	assistantMessage, err := s.repomanager.Messages(s.db).Insert(ctx, userID, conversationID, "assistant", content)
	if err != nil {
		return userMessage, nil, common.ErrInternal
	}

	return userMessage, assistantMessage, nil
}

// --- content rewriting helpers ---

// storageImages replaces image URLs with the persistent storage form.
func (s *ChatService) storageImages(content json.RawMessage) (json.RawMessage, error) {
	return rewriteImages(content, func(raw string) (string, error) {
		return StorageURL(s.presigner.ExtractKey(raw)), nil
	})
}

// presignImages replaces stored image references with presigned GET URLs.
func (s *ChatService) presignImages(ctx context.Context, content json.RawMessage) (json.RawMessage, error) {
	return rewriteImages(content, func(raw string) (string, error) {
		return s.presigner.PresignGet(ctx, s.presigner.ExtractKey(raw))
	})
}

// deliveryMessages presigns image references in user messages so the
// completion endpoint can fetch them.
func (s *ChatService) deliveryMessages(ctx context.Context, history []relay.Message) ([]relay.Message, error) {
	out := make([]relay.Message, len(history))
	for i, m := range history {
		out[i] = m
		if m.Role != "user" {
			continue
		}
		content, err := s.presignImages(ctx, m.Content)
		if err != nil {
			return nil, err
		}
		out[i].Content = content
	}
	return out, nil
}

// rewriteImages maps every image_url value in an array-shaped content
// through rewrite. Plain string content passes through untouched.
func rewriteImages(content json.RawMessage, rewrite func(string) (string, error)) (json.RawMessage, error) {
	var parts []map[string]any
	if err := json.Unmarshal(content, &parts); err != nil {
		return content, nil
	}

	changed := false
	for _, part := range parts {
		raw, ok := part["image_url"].(string)
		if !ok {
			continue
		}
		rewritten, err := rewrite(raw)
		if err != nil {
			return nil, err
		}
		if rewritten != raw {
			part["image_url"] = rewritten
			changed = true
		}
	}

	if !changed {
		return content, nil
	}

	out, err := json.Marshal(parts)
	if err != nil {
		return nil, err
	}
	return out, nil
}
