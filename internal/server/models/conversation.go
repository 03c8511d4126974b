package models

import "time"

type Conversation struct {
	ID            int64
	UserID        int64
	ModelConfigID int64
	Title         string
	CreatedAt     time.Time
}
