// Package catalog implements the in-memory catalog filter applied on top of
// the book repository scan.  The filter is pure and stateless: it never
// mutates its input and applying the same predicate twice yields the same
// result, so callers may re-run it freely whenever the list or the terms
// change.
package catalog

import (
	"strings"

	"github.com/greenfield-univ/library-api/internal/model"
)

// Filter returns the books matching the given terms, preserving input order.
// search matches case-insensitively as a substring of title or author;
// subject matches case-insensitively as a substring of the subject field.
// Empty terms match everything, so Filter(books, "", "") returns a copy of
// the full list unchanged.
func Filter(books []model.Book, search, subject string) []model.Book {
	search = strings.ToLower(strings.TrimSpace(search))
	subject = strings.ToLower(strings.TrimSpace(subject))

	out := make([]model.Book, 0, len(books))
	for _, b := range books {
		if subject != "" && !strings.Contains(strings.ToLower(b.Subject), subject) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Title), search) &&
			!strings.Contains(strings.ToLower(b.Author), search) {
			continue
		}
		out = append(out, b)
	}
	return out
}
