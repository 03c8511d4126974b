package httpapi

import (
	"net/http"
	"time"

	"github.com/aleksvdm/gopherchat/internal/server/services"
)

type userResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Groups    []string  `json:"groups"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	user, err := s.users.Get(r.Context(), payload.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Name,
		Groups:    services.GroupNames(user),
		CreatedAt: user.CreatedAt,
	})
}

func (s *Server) handleUpdateName(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	var req struct {
		Username string `json:"username"`
	}
	if err := readJSON(r, &req); err != nil || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "username is required"})
		return
	}

	if err := s.users.UpdateName(r.Context(), payload.UserID, req.Username); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	var req struct {
		Email string `json:"email"`
	}
	if err := readJSON(r, &req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "email is required"})
		return
	}

	if err := s.users.UpdateEmail(r.Context(), payload.UserID, req.Email); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
