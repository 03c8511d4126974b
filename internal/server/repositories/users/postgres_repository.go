package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/models"
)

// defaultGroupID is the group every registered user joins ('user').
const defaultGroupID = 1

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (email, name, password_hash)
         VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Name, user.PasswordHash).Scan(&user.ID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users_groups (user_id, group_id) VALUES ($1, $2)`,
		user.ID, defaultGroupID)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, email, name, password_hash, created_at FROM users
		 WHERE email = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.loadGroups(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query :=
		`SELECT id, email, name, password_hash, created_at FROM users
		 WHERE id = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if err := r.loadGroups(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *PostgresRepository) EmailExists(ctx context.Context, email string, excludeID int64) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

func (r *PostgresRepository) UpdateName(ctx context.Context, id int64, name string) error {
	return r.update(ctx, `UPDATE users SET name = $2 WHERE id = $1`, id, name)
}

func (r *PostgresRepository) UpdateEmail(ctx context.Context, id int64, email string) error {
	return r.update(ctx, `UPDATE users SET email = $2 WHERE id = $1`, id, email)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.update(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, hash)
}

func (r *PostgresRepository) update(ctx context.Context, query string, id int64, value string) error {
	res, err := r.db.ExecContext(ctx, query, id, value)
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

func (r *PostgresRepository) loadGroups(ctx context.Context, user *models.User) error {
	query :=
		`SELECT g.id, g.name, g.scopes, g.yn FROM groups g
		 JOIN users_groups ug ON ug.group_id = g.id
		 WHERE ug.user_id = $1
		 `

	rows, err := r.db.QueryContext(ctx, query, user.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Scopes, &g.Active); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		user.Groups = append(user.Groups, g)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
