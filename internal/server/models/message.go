package models

import (
	"encoding/json"
	"time"
)

// Message content is stored as JSON: either a plain string or an array of
// content parts (text, image_url) for multimodal messages.
type Message struct {
	ID             int64
	UserID         int64
	ConversationID int64
	Role           string
	Content        json.RawMessage
	CreatedAt      time.Time
}
