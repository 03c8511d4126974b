// Package services contains server-side business logic. This file implements
// AuthService, which orchestrates login, token refresh, logout, and password
// change on top of the token codec and the refresh-token store.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/dbx"
	"github.com/aleksvdm/gopherchat/internal/server/auth"
	"github.com/aleksvdm/gopherchat/internal/server/config"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/password"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
)

// TokenPair bundles a fresh access/refresh token pair with the subject they
// were issued for.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	UserID       int64
}

// AuthService provides authentication flows:
//   - Login: verify credentials and mint tokens
//   - Refresh: gate on the revocation store and mint a new pair
//   - Logout: revoke a single refresh token
//   - ChangePassword: rotate the hash and revoke every outstanding session
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	codec       *auth.Codec
	hasher      *password.Hasher
}

// NewAuthService constructs an AuthService using repositories and server config.
func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, hasher *password.Hasher) *AuthService {
	return &AuthService{
		db:          db,
		repomanager: m,
		codec:       auth.NewCodec([]byte(cfg.SecretKey), cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		hasher:      hasher,
	}
}

// Login verifies the email/password pair and returns a fresh token pair.
//
// The password check always runs, against a precomputed dummy hash when the
// user does not exist, so "no such user" and "wrong password" cannot be told
// apart by timing. Both yield ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, plaintext string) (*TokenPair, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			_, _ = password.Verify(plaintext, s.hasher.Dummy())
			return nil, common.ErrInvalidCredentials
		}
		return nil, common.ErrInternal
	}

	ok, err := password.Verify(plaintext, user.PasswordHash)
	if err != nil || !ok {
		return nil, common.ErrInvalidCredentials
	}

	if userDisabled(user) {
		return nil, common.ErrUserDisabled
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var issueErr error
		pair, issueErr = s.issueTokens(ctx, tx, user.ID, userScopes(user))
		return issueErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Refresh exchanges a verified refresh payload for a new token pair. The
// store gate runs first; extraScopes must already be granted by the payload.
//
// The old refresh record is deliberately left valid: each refresh is
// additive, so one logical session may hold several live refresh records
// until logout or password change revokes them.
func (s *AuthService) Refresh(ctx context.Context, payload *auth.RefreshToken, extraScopes []string) (*TokenPair, error) {
	if err := auth.CheckScopes(extraScopes, payload.Scopes); err != nil {
		return nil, err
	}

	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.CheckLive(ctx, payload.JTI, payload.UserID); err != nil {
		return nil, err
	}

	scopes := payload.Scopes
	if len(extraScopes) > 0 {
		scopes = mergeScopes(payload.Scopes, extraScopes)
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var issueErr error
		pair, issueErr = s.issueTokens(ctx, tx, payload.UserID, scopes)
		return issueErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout revokes the refresh record behind the presented token. Revoking an
// already-revoked or unknown record succeeds, so repeated logouts are safe.
func (s *AuthService) Logout(ctx context.Context, jti string, userID int64) error {
	return s.repomanager.RefreshTokens(s.db).RevokeOne(ctx, jti, userID)
}

// ChangePassword stores a new password hash and revokes every outstanding
// refresh record of the user in the same transaction. A concurrent refresh
// observes either the old password with live sessions or the new password
// with none.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, plaintext string) error {
	repo := s.repomanager.Users(s.db)

	user, err := repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrUserNotFound
		}
		return common.ErrInternal
	}

	same, err := password.Verify(plaintext, user.PasswordHash)
	if err == nil && same {
		return common.ErrUserPasswordSame
	}

	hash, err := password.Hash(plaintext)
	if err != nil {
		return common.ErrInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePasswordHash(ctx, userID, hash); err != nil {
			return fmt.Errorf("error updating password hash: %w", err)
		}
		if err := s.repomanager.RefreshTokens(tx).RevokeAll(ctx, userID); err != nil {
			return fmt.Errorf("error revoking refresh tokens: %w", err)
		}
		return nil
	})
}

// VerifyAccess checks an access token. Pure, no I/O.
func (s *AuthService) VerifyAccess(tokenString string) (*auth.AccessToken, error) {
	return s.codec.VerifyAccess(tokenString)
}

// DecodeRefresh checks a refresh token's signature and expiry without
// consulting the revocation store. Logout uses it so revoking an
// already-revoked token still succeeds.
func (s *AuthService) DecodeRefresh(tokenString string) (*auth.RefreshToken, error) {
	return s.codec.VerifyRefresh(tokenString)
}

// VerifyRefresh checks a refresh token's signature and then its record in
// the revocation store.
func (s *AuthService) VerifyRefresh(ctx context.Context, tokenString string) (*auth.RefreshToken, error) {
	payload, err := s.codec.VerifyRefresh(tokenString)
	if err != nil {
		return nil, err
	}

	if err := s.CheckRefreshLive(ctx, payload.JTI, payload.UserID); err != nil {
		return nil, err
	}

	return payload, nil
}

// CheckRefreshLive asks the revocation store whether the record behind a
// decoded refresh token is still usable.
func (s *AuthService) CheckRefreshLive(ctx context.Context, jti string, userID int64) error {
	return s.repomanager.RefreshTokens(s.db).CheckLive(ctx, jti, userID)
}

// --- helpers below ---

func (s *AuthService) issueTokens(ctx context.Context, tx dbx.DBTX, userID int64, scopes []string) (*TokenPair, error) {
	access, err := s.codec.IssueAccess(userID, scopes)
	if err != nil {
		return nil, common.ErrInternal
	}

	refresh, jti, expiresAt, err := s.codec.IssueRefresh(userID, scopes)
	if err != nil {
		return nil, common.ErrInternal
	}

	if err := s.repomanager.RefreshTokens(tx).Insert(ctx, jti, userID, expiresAt); err != nil {
		return nil, common.ErrInternal
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, UserID: userID}, nil
}

// userDisabled reports whether the user has no active group left.
func userDisabled(u *models.User) bool {
	for _, g := range u.Groups {
		if g.Active {
			return false
		}
	}
	return true
}

// userScopes unions the scopes of the user's active groups.
func userScopes(u *models.User) []string {
	seen := make(map[string]struct{})
	var scopes []string
	for _, g := range u.Groups {
		if !g.Active {
			continue
		}
		for _, s := range strings.Fields(g.Scopes) {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			scopes = append(scopes, s)
		}
	}
	return scopes
}

func mergeScopes(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	merged := make([]string, 0, len(base)+len(extra))
	for _, s := range base {
		seen[s] = struct{}{}
		merged = append(merged, s)
	}
	for _, s := range extra {
		if _, ok := seen[s]; !ok {
			seen[s] = struct{}{}
			merged = append(merged, s)
		}
	}
	return merged
}
