package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenfield-univ/library-api/internal/model"
)

func sampleBooks() []model.Book {
	return []model.Book{
		{ID: 1, Title: "The Go Programming Language", Author: "Donovan", Subject: "Computer Science"},
		{ID: 2, Title: "Dune", Author: "Frank Herbert", Subject: "Science Fiction"},
		{ID: 3, Title: "Clean Architecture", Author: "Robert Martin", Subject: "Computer Science"},
		{ID: 4, Title: "A Brief History of Time", Author: "Stephen Hawking", Subject: "Physics"},
	}
}

func ids(books []model.Book) []uint64 {
	out := make([]uint64, 0, len(books))
	for _, b := range books {
		out = append(out, b.ID)
	}
	return out
}

func TestFilterEmptyPredicateIsIdentity(t *testing.T) {
	in := sampleBooks()
	out := Filter(in, "", "")
	assert.Equal(t, in, out)
	// Copy, not alias.
	out[0].Title = "mutated"
	assert.Equal(t, "The Go Programming Language", in[0].Title)
}

func TestFilterSearchTitleAndAuthor(t *testing.T) {
	books := sampleBooks()
	assert.Equal(t, []uint64{2}, ids(Filter(books, "dune", "")))
	assert.Equal(t, []uint64{4}, ids(Filter(books, "HAWKING", "")))
	assert.Empty(t, Filter(books, "tolstoy", ""))
}

func TestFilterSubject(t *testing.T) {
	books := sampleBooks()
	assert.Equal(t, []uint64{1, 2, 3}, ids(Filter(books, "", "science")))
	assert.Equal(t, []uint64{1, 3}, ids(Filter(books, "", "computer")))
}

func TestFilterCombined(t *testing.T) {
	books := sampleBooks()
	assert.Equal(t, []uint64{3}, ids(Filter(books, "martin", "computer")))
	assert.Empty(t, Filter(books, "martin", "physics"))
}

func TestFilterIdempotent(t *testing.T) {
	books := sampleBooks()
	once := Filter(books, "go", "computer")
	twice := Filter(once, "go", "computer")
	require.Equal(t, once, twice)
}

func TestFilterPreservesOrder(t *testing.T) {
	books := sampleBooks()
	assert.Equal(t, []uint64{1, 2, 3}, ids(Filter(books, "", "science")))
}
