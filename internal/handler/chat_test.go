package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/greenfield-univ/library-api/internal/model"
)

func chatCatalog() []model.Book {
	return []model.Book{
		{ID: 1, Title: "Dune", Author: "Frank Herbert", Subject: "Science Fiction", TotalCount: 2, AvailableCount: 1},
		{ID: 2, Title: "Dune Messiah", Author: "Frank Herbert", Subject: "Science Fiction", TotalCount: 1, AvailableCount: 0},
		{ID: 3, Title: "Clean Architecture", Author: "Robert Martin", Subject: "Computer Science", TotalCount: 3, AvailableCount: 3},
	}
}

func TestBuildReplyGreeting(t *testing.T) {
	assert.Equal(t, chatHelp, buildReply(chatCatalog(), "hello"))
	assert.Equal(t, chatHelp, buildReply(chatCatalog(), "help"))
}

func TestBuildReplyOnlyStopwords(t *testing.T) {
	assert.Equal(t, chatHelp, buildReply(chatCatalog(), "do you have any books?"))
}

func TestBuildReplyFindsTitle(t *testing.T) {
	reply := buildReply(chatCatalog(), "do you have Dune?")
	assert.Contains(t, reply, "Dune by Frank Herbert")
	assert.Contains(t, reply, "1 of 2 copies available")
	assert.Contains(t, reply, "Dune Messiah")
	assert.Contains(t, reply, "currently unavailable")
}

func TestBuildReplyFindsAuthor(t *testing.T) {
	reply := buildReply(chatCatalog(), "books by martin")
	assert.Contains(t, reply, "Clean Architecture")
	assert.NotContains(t, reply, "Dune")
}

func TestBuildReplyNoMatch(t *testing.T) {
	reply := buildReply(chatCatalog(), "do you have Tolstoy?")
	assert.Contains(t, reply, "could not find")
}

func TestBuildReplyPerTermFallback(t *testing.T) {
	// "clean dune" matches nothing as a phrase; the per-term retry should
	// find both titles.
	reply := buildReply(chatCatalog(), "clean dune")
	assert.Contains(t, reply, "Clean Architecture")
	assert.Contains(t, reply, "Dune")
}
