package messages

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {

	query :=
		`SELECT id, user_id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = $1
		 ORDER BY created_at ASC
		 `

	rows, err := r.db.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.UserID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, userID, conversationID int64, role string, content json.RawMessage) (*models.Message, error) {

	query :=
		`INSERT INTO messages (user_id, conversation_id, role, content)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	m := &models.Message{
		UserID:         userID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}
	err := r.db.QueryRowContext(ctx, query, userID, conversationID, role, content).Scan(&m.ID, &m.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return m, nil
}

func (r *PostgresRepository) DeleteByConversations(ctx context.Context, conversationIDs []int64, userID int64) error {

	// ownership is enforced here, not by the caller: a foreign conversation
	// id in the list must not touch another user's messages
	query :=
		`DELETE FROM messages
		 WHERE conversation_id = ANY($1)
		   AND conversation_id IN (SELECT id FROM conversations WHERE user_id = $2)
		 `

	_, err := r.db.ExecContext(ctx, query, conversationIDs, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
