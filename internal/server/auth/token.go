// Package auth implements the stateless half of session management: issuing
// and verifying HS256-signed access and refresh tokens, and checking token
// scopes against the scopes an operation requires.
//
// Verification here is pure (no I/O); whether a refresh token has been
// revoked is a separate database question answered by the refreshtokens
// repository.
package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/aleksvdm/gopherchat/internal/common"
)

// AccessToken is the verified payload of an access token. Access tokens are
// trusted until natural expiry; there is no revocation path for them.
type AccessToken struct {
	UserID    int64
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// RefreshToken is the verified payload of a refresh token. JTI keys the
// server-side revocation record.
type RefreshToken struct {
	UserID    int64
	JTI       string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// claims is the wire shape of both token kinds: registered claims plus a
// space-joined scope string. Refresh tokens additionally carry jti (ID).
type claims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

// Codec issues and verifies tokens with a single shared HMAC secret.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewCodec(secret []byte, accessTTL, refreshTTL time.Duration) *Codec {
	return &Codec{secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// IssueAccess signs an access token for userID carrying the given scopes.
func (c *Codec) IssueAccess(userID int64, scopes []string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
		},
	})

	return token.SignedString(c.secret)
}

// IssueRefresh signs a refresh token with a freshly generated jti and returns
// the token string, the jti, and the expiry for the server-side record.
func (c *Codec) IssueRefresh(userID int64, scopes []string) (token string, jti string, expiresAt time.Time, err error) {
	now := time.Now()
	jti = uuid.NewString()
	expiresAt = now.Add(c.refreshTTL)

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Scope: strings.Join(scopes, " "),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	token, err = t.SignedString(c.secret)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, jti, expiresAt, nil
}

// VerifyAccess checks signature and expiry and returns the decoded payload.
// Expired tokens fail with common.ErrExpiredAccessToken; every other decode,
// signature, or schema failure maps to common.ErrInvalidAccessToken.
func (c *Codec) VerifyAccess(tokenString string) (*AccessToken, error) {
	cl, err := c.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrExpiredAccessToken
		}
		return nil, common.ErrInvalidAccessToken
	}

	userID, err := strconv.ParseInt(cl.Subject, 10, 64)
	if err != nil {
		return nil, common.ErrInvalidAccessToken
	}

	return &AccessToken{
		UserID:    userID,
		Scopes:    splitScopes(cl.Scope),
		IssuedAt:  numericTime(cl.IssuedAt),
		ExpiresAt: numericTime(cl.ExpiresAt),
	}, nil
}

// VerifyRefresh is the refresh-token counterpart of VerifyAccess, with its
// own error kinds. Tokens without a jti are rejected as invalid.
func (c *Codec) VerifyRefresh(tokenString string) (*RefreshToken, error) {
	cl, err := c.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrExpiredRefreshToken
		}
		return nil, common.ErrInvalidRefreshToken
	}

	userID, err := strconv.ParseInt(cl.Subject, 10, 64)
	if err != nil {
		return nil, common.ErrInvalidRefreshToken
	}
	if cl.ID == "" {
		return nil, common.ErrInvalidRefreshToken
	}

	return &RefreshToken{
		UserID:    userID,
		JTI:       cl.ID,
		Scopes:    splitScopes(cl.Scope),
		IssuedAt:  numericTime(cl.IssuedAt),
		ExpiresAt: numericTime(cl.ExpiresAt),
	}, nil
}

func (c *Codec) parse(tokenString string) (*claims, error) {
	cl := &claims{}

	token, err := jwt.ParseWithClaims(tokenString, cl, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}

	return cl, nil
}

func splitScopes(scope string) []string {
	return strings.Fields(scope)
}

func numericTime(d *jwt.NumericDate) time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}
