package model

import "time"

// Book represents a catalog title together with its copy counts.  The
// descriptive fields mirror the `books` table columns; TotalCount is the
// number of copies the library owns and AvailableCount the copies not
// currently allocated to an approved request.  The invariant
// 0 <= AvailableCount <= TotalCount holds after every repository operation.
//
// Fields:
//  ID             – primary key identifier, immutable once created.
//  Title          – book title.
//  Author         – author name.
//  Subject        – subject/category used for catalog filtering.
//  Description    – free-text description.
//  Year           – publication year.
//  ISBN           – optional ISBN.
//  CoverImage     – optional cover image URL.
//  PDFURL         – optional URL of an external digital copy.
//  TotalCount     – total copies owned.
//  AvailableCount – copies currently free for allocation.
type Book struct {
	ID             uint64    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author"`
	Subject        string    `json:"subject"`
	Description    string    `json:"description"`
	Year           int       `json:"year"`
	ISBN           string    `json:"isbn,omitempty"`
	CoverImage     string    `json:"cover_image,omitempty"`
	PDFURL         string    `json:"pdf_url,omitempty"`
	TotalCount     int       `json:"total_count"`
	AvailableCount int       `json:"available_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Allocated returns the number of copies currently out with approved
// requests.  It never reports a negative value even if the stored counts
// are inconsistent.
func (b Book) Allocated() int {
	n := b.TotalCount - b.AvailableCount
	if n < 0 {
		return 0
	}
	return n
}

// Available reports whether at least one copy is free for a new request.
func (b Book) Available() bool { return b.AvailableCount > 0 }

// RecomputeAvailable derives the available count after the total stock of a
// title changes.  The allocated-copy count (oldTotal - oldAvailable) is
// preserved across the edit, so available = newTotal - allocated, clamped
// into [0, newTotal].
func RecomputeAvailable(oldTotal, oldAvailable, newTotal int) int {
	allocated := oldTotal - oldAvailable
	if allocated < 0 {
		allocated = 0
	}
	avail := newTotal - allocated
	if avail < 0 {
		return 0
	}
	if avail > newTotal {
		return newTotal
	}
	return avail
}
