package models

import "encoding/json"

// ModelConfig describes one completion endpoint a user can chat against.
// The API key is encrypted at rest (cryptox); Params holds passthrough
// sampling options (temperature etc.) as raw JSON.
type ModelConfig struct {
	ID              int64
	UserID          int64
	Name            string
	BaseURL         string
	ModelName       string
	EncryptedAPIKey string
	Params          json.RawMessage
}
