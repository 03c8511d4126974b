package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/aleksvdm/gopherchat/internal/server/models"
)

type conversationResponse struct {
	ID            int64     `json:"id"`
	ModelConfigID int64     `json:"model_config_id"`
	Title         string    `json:"title"`
	CreatedAt     time.Time `json:"created_at"`
}

func toConversationResponse(c *models.Conversation) conversationResponse {
	return conversationResponse{
		ID:            c.ID,
		ModelConfigID: c.ModelConfigID,
		Title:         c.Title,
		CreatedAt:     c.CreatedAt,
	}
}

// pathID parses the {id} route parameter.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	list, err := s.conversations.List(r.Context(), payload.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]conversationResponse, 0, len(list))
	for i := range list {
		out = append(out, toConversationResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	var req struct {
		ModelConfigID int64 `json:"model_config_id"`
	}
	if err := readJSON(r, &req); err != nil || req.ModelConfigID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "model_config_id is required"})
		return
	}

	conversation, err := s.conversations.Create(r.Context(), payload.UserID, req.ModelConfigID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConversationResponse(conversation))
}

func (s *Server) handleDeleteConversations(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := readJSON(r, &req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "ids are required"})
		return
	}

	if err := s.conversations.Delete(r.Context(), req.IDs, payload.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateTitle(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid conversation id"})
		return
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := readJSON(r, &req); err != nil || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "title is required"})
		return
	}

	if err := s.conversations.UpdateTitle(r.Context(), id, payload.UserID, req.Title); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleGenerateTitle lets the conversation's model summarize the first
// message into a short title.
func (s *Server) handleGenerateTitle(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid conversation id"})
		return
	}

	var req struct {
		Content json.RawMessage `json:"content"`
	}
	if err := readJSON(r, &req); err != nil || len(req.Content) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "content is required"})
		return
	}

	title, err := s.conversations.GenerateTitle(r.Context(), id, payload.UserID, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"title": title})
}

func (s *Server) handleUpdateConversationModel(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid conversation id"})
		return
	}

	var req struct {
		ModelConfigID int64 `json:"model_config_id"`
	}
	if err := readJSON(r, &req); err != nil || req.ModelConfigID == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "model_config_id is required"})
		return
	}

	if err := s.conversations.UpdateModelConfig(r.Context(), id, payload.UserID, req.ModelConfigID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
