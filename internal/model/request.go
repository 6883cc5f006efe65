package model

import "time"

// RequestStatus is the closed set of borrow-request lifecycle states.
// Using a dedicated type instead of free-form strings lets the transition
// table below be exhaustive: a request can never hold a value outside the
// four constants, and invalid transitions are rejected before any row is
// touched.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusApproved  RequestStatus = "approved"
	StatusRejected  RequestStatus = "rejected"
	StatusCompleted RequestStatus = "completed"
)

// transitions maps each state to the states reachable from it.  Terminal
// states map to nil.  pending may be approved or rejected; approved may only
// complete; rejected and completed have no outgoing edges.
var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:   {StatusApproved, StatusRejected},
	StatusApproved:  {StatusCompleted},
	StatusRejected:  nil,
	StatusCompleted: nil,
}

// ParseStatus validates a wire value against the closed enumeration.
func ParseStatus(s string) (RequestStatus, bool) {
	st := RequestStatus(s)
	_, ok := transitions[st]
	return st, ok
}

// Valid reports whether s is one of the four known states.
func (s RequestStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no transition leaves s.
func (s RequestStatus) Terminal() bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

// CanTransition reports whether the edge s -> to exists in the lifecycle.
func (s RequestStatus) CanTransition(to RequestStatus) bool {
	for _, n := range transitions[s] {
		if n == to {
			return true
		}
	}
	return false
}

// AllocationDelta returns the change a from->to transition applies to the
// book's available count: -1 when a copy becomes allocated
// (pending->approved), +1 when it is returned (approved->completed), and 0
// otherwise.  Rejection releases nothing because the copy was never
// allocated.
func AllocationDelta(from, to RequestStatus) int {
	switch {
	case from == StatusPending && to == StatusApproved:
		return -1
	case from == StatusApproved && to == StatusCompleted:
		return +1
	default:
		return 0
	}
}

// Request is a student's borrow request against a single book.  Book title
// and author are denormalized at creation time so request listings render
// without a join even after the book record changes.  Roll number, semester
// and year are a snapshot of the student profile at request time.
type Request struct {
	ID          uint64        `json:"request_id"`
	Email       string        `json:"email"`
	BookID      uint64        `json:"book_id"`
	BookName    string        `json:"book_name"`
	Author      string        `json:"author"`
	RollNo      string        `json:"roll_no,omitempty"`
	Semester    string        `json:"semester,omitempty"`
	Year        string        `json:"year,omitempty"`
	Status      RequestStatus `json:"status"`
	RequestedAt time.Time     `json:"requested_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
