package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/aleksvdm/gopherchat/internal/server/models"
)

// modelConfigResponse never includes the API key, not even encrypted.
type modelConfigResponse struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	BaseURL   string          `json:"base_url"`
	ModelName string          `json:"model_name"`
	HasAPIKey bool            `json:"has_api_key"`
	Params    json.RawMessage `json:"params,omitempty"`
}

func toModelConfigResponse(mc *models.ModelConfig) modelConfigResponse {
	return modelConfigResponse{
		ID:        mc.ID,
		Name:      mc.Name,
		BaseURL:   mc.BaseURL,
		ModelName: mc.ModelName,
		HasAPIKey: mc.EncryptedAPIKey != "",
		Params:    mc.Params,
	}
}

type modelConfigRequest struct {
	Name      string          `json:"name"`
	BaseURL   string          `json:"base_url"`
	ModelName string          `json:"model_name"`
	APIKey    string          `json:"api_key"`
	Params    json.RawMessage `json:"params"`
}

func (s *Server) handleListModelConfigs(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	list, err := s.modelConfigs.List(r.Context(), payload.UserID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	out := make([]modelConfigResponse, 0, len(list))
	for i := range list {
		out = append(out, toModelConfigResponse(&list[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateModelConfig(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	var req modelConfigRequest
	if err := readJSON(r, &req); err != nil || req.BaseURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "base_url is required"})
		return
	}

	mc, err := s.modelConfigs.Create(r.Context(), payload.UserID, req.Name, req.BaseURL, req.ModelName, req.APIKey, req.Params)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toModelConfigResponse(mc))
}

func (s *Server) handleUpdateModelConfig(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	id, ok := pathID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "invalid model config id"})
		return
	}

	var req modelConfigRequest
	if err := readJSON(r, &req); err != nil || req.BaseURL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "base_url is required"})
		return
	}

	if err := s.modelConfigs.Update(r.Context(), id, payload.UserID, req.Name, req.BaseURL, req.ModelName, req.APIKey, req.Params); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteModelConfigs(w http.ResponseWriter, r *http.Request) {
	payload := accessFromContext(r.Context())

	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := readJSON(r, &req); err != nil || len(req.IDs) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "bad_request", Detail: "ids are required"})
		return
	}

	if err := s.modelConfigs.Delete(r.Context(), req.IDs, payload.UserID); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
