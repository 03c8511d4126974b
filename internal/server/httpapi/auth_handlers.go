package httpapi

import (
	"net/http"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/server/services"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	UserID      int64  `json:"user_id"`
}

// issuePair writes the refresh cookie and the access-token body for a fresh
// token pair.
func (s *Server) issuePair(w http.ResponseWriter, status int, pair *services.TokenPair) {
	s.setRefreshCookie(w, pair.RefreshToken)
	writeJSON(w, status, tokenResponse{
		AccessToken: pair.AccessToken,
		TokenType:   "bearer",
		UserID:      pair.UserID,
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "email and password are required"})
		return
	}

	if err := s.users.Register(r.Context(), req.Email, req.Username, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", pair.UserID)
	s.issuePair(w, http.StatusCreated, pair)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid request body"})
		return
	}

	pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.issuePair(w, http.StatusOK, pair)
}

// handleRefresh exchanges a live refresh token for a new pair. Optional
// extra scopes may be requested but must already be granted by the token.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	payload := refreshFromContext(r.Context())

	var req struct {
		Scopes []string `json:"scopes"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid request body"})
			return
		}
	}

	pair, err := s.auth.Refresh(r.Context(), payload, req.Scopes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.issuePair(w, http.StatusOK, pair)
}

// handleLogout revokes the presented refresh token and clears the cookie.
// Revoking an already-revoked token succeeds, so retries are harmless.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	payload := refreshFromContext(r.Context())

	if err := s.auth.Logout(r.Context(), payload.JTI, payload.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.clearRefreshCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleChangePassword rotates the password, which revokes every session of
// the user, and hands back a fresh pair so the caller stays logged in.
func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	payload := refreshFromContext(r.Context())

	if err := s.auth.CheckRefreshLive(r.Context(), payload.JTI, payload.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "password is required"})
		return
	}

	if err := s.auth.ChangePassword(r.Context(), payload.UserID, req.Password); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.users.Get(r.Context(), payload.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	pair, err := s.auth.Login(r.Context(), user.Email, req.Password)
	if err != nil {
		s.writeError(w, r, common.ErrInternal)
		return
	}

	s.logger.Info(r.Context(), "password changed", "user_id", payload.UserID)
	s.issuePair(w, http.StatusOK, pair)
}
