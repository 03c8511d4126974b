package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/relay"
)

type messageResponse struct {
	ID        int64           `json:"id"`
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	CreatedAt time.Time       `json:"created_at"`
}

func toMessageResponse(m *models.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid conversation id"})
		return
	}

	list, err := s.chats.Messages(r.Context(), id, payload.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]messageResponse, 0, len(list))
	for i := range list {
		out = append(out, toMessageResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChat streams the model's reply over server-sent events. Each content
// delta is one "data:" event; the stream closes with the stored message ids
// and a [DONE] marker.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid conversation id"})
		return
	}

	var req struct {
		Messages []relay.Message `json:"messages"`
	}
	if err := readJSON(r, &req); err != nil || len(req.Messages) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "messages are required"})
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Code: "internal_error", Detail: "streaming unsupported"})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	started := false
	userMessage, assistantMessage, err := s.chats.StreamReply(r.Context(), id, payload.UserID, req.Messages,
		func(delta string) error {
			started = true
			return writeSSE(w, flusher, map[string]string{"delta": delta})
		})
	if err != nil {
		// before the first delta the response is still unclaimed and we
		// can return a proper error; afterwards the best we can do is an
		// error event
		if !started {
			s.writeError(w, r, err)
			return
		}
		s.logger.Error(r.Context(), "chat stream aborted", "error", err)
		_, code := errorStatus(err)
		_ = writeSSE(w, flusher, map[string]string{"error": code})
		return
	}

	_ = writeSSE(w, flusher, map[string]any{
		"user_message_id":      userMessage.ID,
		"assistant_message_id": assistantMessage.ID,
	})
	_, _ = fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, event any) error {
	encoded, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", encoded); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
