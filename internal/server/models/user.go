package models

import "time"

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	Groups       []Group
}

// Group grants scopes to its members. A group with Active=false marks its
// members as disabled.
type Group struct {
	ID     int64
	Name   string
	Scopes string
	Active bool
}
