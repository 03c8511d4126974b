package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/server/auth"
)

type ctxKey string

const (
	accessKey  ctxKey = "access"
	refreshKey ctxKey = "refresh"
)

// refreshCookieName is the cookie carrying the refresh token. The access
// token travels in the Authorization header instead and is never a cookie.
const refreshCookieName = "refresh_token"

// requireAccess verifies the bearer token and checks that it grants every
// listed scope before the handler runs.
func (s *Server) requireAccess(scopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || tokenString == "" {
				s.writeError(w, r, common.ErrInvalidAccessToken)
				return
			}

			payload, err := s.auth.VerifyAccess(tokenString)
			if err != nil {
				s.writeError(w, r, err)
				return
			}

			if err := auth.CheckScopes(scopes, payload.Scopes); err != nil {
				s.writeError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), accessKey, payload)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireRefresh decodes the refresh cookie. Only the signature and expiry
// are checked here; handlers that must reject revoked tokens consult the
// store themselves, which keeps logout idempotent.
func (s *Server) requireRefresh(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(refreshCookieName)
		if err != nil || cookie.Value == "" {
			s.writeError(w, r, common.ErrInvalidRefreshToken)
			return
		}

		payload, err := s.auth.DecodeRefresh(cookie.Value)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), refreshKey, payload)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessFromContext(ctx context.Context) *auth.AccessToken {
	payload, _ := ctx.Value(accessKey).(*auth.AccessToken)
	return payload
}

func refreshFromContext(ctx context.Context) *auth.RefreshToken {
	payload, _ := ctx.Value(refreshKey).(*auth.RefreshToken)
	return payload
}
