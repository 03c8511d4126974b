package models

import "time"

// RefreshToken is the persisted revocation record for one issued refresh
// token. Rows are never deleted by normal flow; revocation flips Valid.
type RefreshToken struct {
	JTI       string
	UserID    int64
	ExpiresAt time.Time
	Valid     bool
	CreatedAt time.Time
}
