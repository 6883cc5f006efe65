package model

import "time"

// Notification is one entry in a user's feed.  Entries are written when a
// request is created or changes status and are never updated beyond the
// read flag.
type Notification struct {
	ID        uint64    `json:"id"`
	Recipient string    `json:"recipient"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
