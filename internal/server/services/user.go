package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/password"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
)

// UserService manages user accounts: registration, profile reads, and the
// username/email mutations. Password changes live on AuthService because
// they must revoke sessions.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// Register creates a user in the default group. Fails with
// ErrEmailAlreadyExists when the email is taken.
func (s *UserService) Register(ctx context.Context, email, username, plaintext string) error {
	repo := s.repomanager.Users(s.db)

	exists, err := repo.EmailExists(ctx, email, 0)
	if err != nil {
		return common.ErrInternal
	}
	if exists {
		return common.ErrEmailAlreadyExists
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return common.ErrInternal
	}

	user := &models.User{Email: email, Name: username, PasswordHash: hash}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repomanager.Users(tx).Create(ctx, user)
		return err
	})
}

// Get returns the user's profile. Users whose every group is inactive are
// reported as not found, mirroring the login-side disablement rule.
func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, common.ErrInternal
	}

	if userDisabled(user) {
		return nil, common.ErrUserNotFound
	}

	return user, nil
}

// UpdateName changes the username; a no-op value fails with ErrUserNameSame.
func (s *UserService) UpdateName(ctx context.Context, userID int64, name string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if user.Name == name {
		return common.ErrUserNameSame
	}

	return s.repomanager.Users(s.db).UpdateName(ctx, userID, name)
}

// UpdateEmail changes the email after checking it is neither taken by
// another user nor identical to the current one.
func (s *UserService) UpdateEmail(ctx context.Context, userID int64, email string) error {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}

	taken, err := s.repomanager.Users(s.db).EmailExists(ctx, email, userID)
	if err != nil {
		return common.ErrInternal
	}
	if taken {
		return common.ErrEmailAlreadyExists
	}
	if user.Email == email {
		return common.ErrUserEmailSame
	}

	return s.repomanager.Users(s.db).UpdateEmail(ctx, userID, email)
}

// GroupNames lists the names of the user's active groups, for the profile
// response.
func GroupNames(u *models.User) []string {
	var names []string
	for _, g := range u.Groups {
		if g.Active {
			names = append(names, g.Name)
		}
	}
	return names
}
