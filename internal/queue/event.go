// Package queue defines message payloads exchanged over the message broker.
package queue

// RequestUpdatedEvent is published whenever a borrow request changes status.
// It carries enough context for downstream consumers to log or notify
// without querying the primary database.
type RequestUpdatedEvent struct {
	RequestID  uint64 `json:"request_id"`
	Email      string `json:"email"`
	BookID     uint64 `json:"book_id"`
	BookName   string `json:"book_name"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	ActedBy    string `json:"acted_by"`
	UpdatedAt  string `json:"updated_at"`
}
