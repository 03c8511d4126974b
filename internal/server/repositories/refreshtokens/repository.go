// Package refreshtokens is the authoritative revocation and expiry source for
// refresh tokens. Signature validity alone cannot express "revoked", so every
// refresh flow consults this store after the token itself verifies.
package refreshtokens

import (
	"context"
	"time"
)

// Repository defines operations over persisted refresh-token records.
type Repository interface {
	// Insert creates a record with valid=true. jti values are never reused.
	Insert(ctx context.Context, jti string, userID int64, expiresAt time.Time) error

	// CheckLive is a pure gate: nil when a matching record exists, is not
	// revoked, and is not expired. It fails with ErrInvalidRefreshToken when
	// the record is absent or revoked and ErrExpiredRefreshToken when the
	// stored expiry has passed. jti and userID are checked together so a
	// guessed jti cannot be replayed across users.
	CheckLive(ctx context.Context, jti string, userID int64) error

	// RevokeOne flips valid=false for exactly one record. Revoking an absent
	// or already-revoked record is a no-op, so logout stays idempotent.
	RevokeOne(ctx context.Context, jti string, userID int64) error

	// RevokeAll flips valid=false for every record of the user. Used on
	// password change to invalidate all outstanding sessions.
	RevokeAll(ctx context.Context, userID int64) error
}
