package conversations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.Conversation, error) {

	query :=
		`SELECT id, user_id, model_config_id, title, created_at FROM conversations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.ModelConfigID, &c.Title, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64, userID int64) (*models.Conversation, error) {

	query :=
		`SELECT id, user_id, model_config_id, title, created_at FROM conversations
		 WHERE id = $1 AND user_id = $2
		 `

	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&c.ID, &c.UserID, &c.ModelConfigID, &c.Title, &c.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) Create(ctx context.Context, userID int64, modelConfigID int64) (*models.Conversation, error) {

	query :=
		`INSERT INTO conversations (user_id, model_config_id)
         VALUES ($1, $2)
		 RETURNING id, user_id, model_config_id, title, created_at
		 `

	c := &models.Conversation{}
	err := r.db.QueryRowContext(ctx, query, userID, modelConfigID).Scan(
		&c.ID, &c.UserID, &c.ModelConfigID, &c.Title, &c.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) UpdateTitle(ctx context.Context, id int64, userID int64, title string) error {
	return r.update(ctx,
		`UPDATE conversations SET title = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, title)
}

func (r *PostgresRepository) UpdateModelConfig(ctx context.Context, id int64, userID int64, modelConfigID int64) error {
	return r.update(ctx,
		`UPDATE conversations SET model_config_id = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, modelConfigID)
}

func (r *PostgresRepository) DeleteMany(ctx context.Context, ids []int64, userID int64) (int64, error) {

	query :=
		`DELETE FROM conversations
		 WHERE id = ANY($1) AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, ids, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return affected, nil
}

func (r *PostgresRepository) update(ctx context.Context, query string, id, userID int64, value any) error {
	res, err := r.db.ExecContext(ctx, query, id, userID, value)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}

	return nil
}
