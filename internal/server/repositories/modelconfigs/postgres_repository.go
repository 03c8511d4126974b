package modelconfigs

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

func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]models.ModelConfig, error) {

	query :=
		`SELECT id, user_id, name, base_url, model_name, encrypted_api_key, params FROM model_configs
		 WHERE user_id = $1
		 ORDER BY id
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.ModelConfig
	for rows.Next() {
		var mc models.ModelConfig
		if err := rows.Scan(&mc.ID, &mc.UserID, &mc.Name, &mc.BaseURL, &mc.ModelName, &mc.EncryptedAPIKey, &mc.Params); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		list = append(list, mc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id int64, userID int64) (*models.ModelConfig, error) {

	query :=
		`SELECT id, user_id, name, base_url, model_name, encrypted_api_key, params FROM model_configs
		 WHERE id = $1 AND user_id = $2
		 `

	mc := &models.ModelConfig{}
	err := r.db.QueryRowContext(ctx, query, id, userID).Scan(
		&mc.ID, &mc.UserID, &mc.Name, &mc.BaseURL, &mc.ModelName, &mc.EncryptedAPIKey, &mc.Params)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return mc, nil
}

func (r *PostgresRepository) Create(ctx context.Context, mc *models.ModelConfig) (*models.ModelConfig, error) {

	query :=
		`INSERT INTO model_configs (user_id, name, base_url, model_name, encrypted_api_key, params)
         VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		mc.UserID, mc.Name, mc.BaseURL, mc.ModelName, mc.EncryptedAPIKey, mc.Params).Scan(&mc.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return mc, nil
}

func (r *PostgresRepository) Update(ctx context.Context, mc *models.ModelConfig) error {

	query :=
		`UPDATE model_configs
		 SET name = $3, base_url = $4, model_name = $5, encrypted_api_key = $6, params = $7
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query,
		mc.ID, mc.UserID, mc.Name, mc.BaseURL, mc.ModelName, mc.EncryptedAPIKey, mc.Params)

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

func (r *PostgresRepository) DeleteMany(ctx context.Context, ids []int64, userID int64) (int64, error) {

	query :=
		`DELETE FROM model_configs
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
