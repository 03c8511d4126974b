package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/aleksvdm/gopherchat/internal/common"
	"github.com/aleksvdm/gopherchat/internal/cryptox"
	"github.com/aleksvdm/gopherchat/internal/server/models"
	"github.com/aleksvdm/gopherchat/internal/server/repositories/repomanager"
)

// ModelConfigService manages per-user completion endpoint configurations.
// API keys are encrypted before they reach the repository and only decrypted
// when a relay call needs them.
type ModelConfigService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	box         *cryptox.Box
}

func NewModelConfigService(db *sql.DB, m repomanager.RepositoryManager, box *cryptox.Box) *ModelConfigService {
	return &ModelConfigService{db: db, repomanager: m, box: box}
}

func (s *ModelConfigService) List(ctx context.Context, userID int64) ([]models.ModelConfig, error) {
	return s.repomanager.ModelConfigs(s.db).ListByUser(ctx, userID)
}

func (s *ModelConfigService) Get(ctx context.Context, id, userID int64) (*models.ModelConfig, error) {
	mc, err := s.repomanager.ModelConfigs(s.db).Get(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrModelConfigNotFound
		}
		return nil, common.ErrInternal
	}
	return mc, nil
}

// Create stores a new config. An empty name falls back to the model name,
// then to a generated placeholder.
func (s *ModelConfigService) Create(ctx context.Context, userID int64, name, baseURL, modelName, apiKey string, params json.RawMessage) (*models.ModelConfig, error) {
	encrypted, err := s.box.EncryptString(apiKey)
	if err != nil {
		return nil, common.ErrInternal
	}

	if name == "" {
		name = modelName
	}
	if name == "" {
		name = "config-" + uuid.NewString()[:8]
	}

	mc := &models.ModelConfig{
		UserID:          userID,
		Name:            name,
		BaseURL:         baseURL,
		ModelName:       modelName,
		EncryptedAPIKey: encrypted,
		Params:          params,
	}

	return s.repomanager.ModelConfigs(s.db).Create(ctx, mc)
}

// Update overwrites every mutable field. An empty apiKey keeps the stored
// key; clients cannot read keys back, so "unchanged" is the only sensible
// meaning for an omitted value.
func (s *ModelConfigService) Update(ctx context.Context, id, userID int64, name, baseURL, modelName, apiKey string, params json.RawMessage) error {
	mc, err := s.Get(ctx, id, userID)
	if err != nil {
		return err
	}

	if apiKey != "" {
		encrypted, err := s.box.EncryptString(apiKey)
		if err != nil {
			return common.ErrInternal
		}
		mc.EncryptedAPIKey = encrypted
	}

	mc.Name = name
	mc.BaseURL = baseURL
	mc.ModelName = modelName
	mc.Params = params

	if err := s.repomanager.ModelConfigs(s.db).Update(ctx, mc); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrModelConfigNotFound
		}
		return common.ErrInternal
	}
	return nil
}

// Delete removes the listed configs; fails with ErrModelConfigNotFound when
// none of them belonged to the user.
func (s *ModelConfigService) Delete(ctx context.Context, ids []int64, userID int64) error {
	affected, err := s.repomanager.ModelConfigs(s.db).DeleteMany(ctx, ids, userID)
	if err != nil {
		return common.ErrInternal
	}
	if affected == 0 {
		return common.ErrModelConfigNotFound
	}
	return nil
}

// DecryptedKey returns the plaintext API key for a relay call.
func (s *ModelConfigService) DecryptedKey(mc *models.ModelConfig) (string, error) {
	return s.box.DecryptString(mc.EncryptedAPIKey)
}
