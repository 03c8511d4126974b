package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {

	query :=
		`INSERT INTO refresh_tokens (jti, user_id, expires_at, valid)
         VALUES ($1, $2, $3, TRUE)
		 `

	_, err := r.db.ExecContext(ctx, query, jti, userID, expiresAt)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) CheckLive(ctx context.Context, jti string, userID int64) error {

	query :=
		`SELECT valid, expires_at FROM refresh_tokens
		 WHERE jti = $1 AND user_id = $2
		 `

	var valid bool
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, query, jti, userID).Scan(&valid, &expiresAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrInvalidRefreshToken
		}
		return fmt.Errorf("error performing sql request: %v", err)
	}

	if !valid {
		return common.ErrInvalidRefreshToken
	}

	// expires_at is timestamptz, so the scanned value always carries an
	// offset and compares correctly against the local clock
	if time.Now().After(expiresAt) {
		return common.ErrExpiredRefreshToken
	}

	return nil
}

func (r *PostgresRepository) RevokeOne(ctx context.Context, jti string, userID int64) error {

	query :=
		`UPDATE refresh_tokens SET valid = FALSE
		 WHERE jti = $1 AND user_id = $2
		 `

	// zero rows affected is fine: logout must be idempotent
	_, err := r.db.ExecContext(ctx, query, jti, userID)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}

func (r *PostgresRepository) RevokeAll(ctx context.Context, userID int64) error {

	query :=
		`UPDATE refresh_tokens SET valid = FALSE
		 WHERE user_id = $1 AND valid
		 `

	_, err := r.db.ExecContext(ctx, query, userID)

	if err != nil {
		return fmt.Errorf("error performing sql request: %v", err)
	}

	return nil
}
