package model

import "time"

// Document is the whole persisted state of one user: the goal list and
// nothing else. It is always written in full.
type Document struct {
	Goals []Goal `json:"goals"`
}

// StoredDocument is a document row as kept by the cloud document store.
type StoredDocument struct {
	UserID    string    `db:"user_id"`
	Data      string    `db:"data"`
	UpdatedAt time.Time `db:"updated_at"`
}
