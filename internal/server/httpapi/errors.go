package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aleksvdm/gopherchat/internal/common"
)

type errorResponse struct {
	Code   string `json:"code"`
	Detail string `json:"detail"`
}

// errorStatus maps a domain error to an HTTP status and a stable code
// string clients can branch on.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrInvalidAccessToken):
		return http.StatusUnauthorized, "invalid_access_token"
	case errors.Is(err, common.ErrExpiredAccessToken):
		return http.StatusUnauthorized, "expired_access_token"
	case errors.Is(err, common.ErrInvalidRefreshToken):
		return http.StatusUnauthorized, "invalid_refresh_token"
	case errors.Is(err, common.ErrExpiredRefreshToken):
		return http.StatusUnauthorized, "expired_refresh_token"
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials"
	case errors.Is(err, common.ErrUserDisabled):
		return http.StatusForbidden, "user_disabled"
	case errors.Is(err, common.ErrInsufficientPermissions):
		return http.StatusForbidden, "insufficient_permissions"
	case errors.Is(err, common.ErrEmailAlreadyExists):
		return http.StatusConflict, "email_already_exists"
	case errors.Is(err, common.ErrUserEmailSame):
		return http.StatusBadRequest, "user_email_same"
	case errors.Is(err, common.ErrUserNameSame):
		return http.StatusBadRequest, "user_name_same"
	case errors.Is(err, common.ErrUserPasswordSame):
		return http.StatusBadRequest, "user_password_same"
	case errors.Is(err, common.ErrUserNotFound):
		return http.StatusNotFound, "user_not_found"
	case errors.Is(err, common.ErrConversationNotFound):
		return http.StatusNotFound, "conversation_not_found"
	case errors.Is(err, common.ErrModelConfigNotFound):
		return http.StatusNotFound, "model_config_not_found"
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path)
	}
	writeJSON(w, status, errorResponse{Code: code, Detail: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// readJSON decodes a request body, rejecting unknown fields.
func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
