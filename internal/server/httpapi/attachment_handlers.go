package httpapi

import (
	"net/http"

	"github.com/aleksvdm/gopherchat/internal/server/services"
)

// handlePresignAttachment hands the client a presigned upload URL plus the
// storage form of the key to embed in message content.
func (s *Server) handlePresignAttachment(w http.ResponseWriter, r *http.Request) {
	key, uploadURL, err := s.attachments.PresignPut(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"key":         key,
		"upload_url":  uploadURL,
		"storage_url": services.StorageURL(key),
	})
}
