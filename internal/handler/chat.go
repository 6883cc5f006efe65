package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenfield-univ/library-api/internal/catalog"
	"github.com/greenfield-univ/library-api/internal/model"
	"github.com/greenfield-univ/library-api/internal/repository"
)

// ChatHandler answers catalog questions from the live book list.  There is
// no external model behind it; replies are grounded entirely in what the
// catalog search finds, which is also the offline fallback behavior clients
// already handle.
type ChatHandler struct {
	Books *repository.BookRepo
}

func NewChatHandler(b *repository.BookRepo) *ChatHandler { return &ChatHandler{Books: b} }

type chatReq struct {
	Message string `json:"message"`
}

// Chat answers a free-text question about the catalog.
func (h *ChatHandler) Chat(c echo.Context) error {
	var req chatReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"reply": buildReply(books, req.Message)})
}

// chatStopwords are dropped from the message before it is used as a catalog
// search term.
var chatStopwords = map[string]bool{
	"a": true, "an": true, "any": true, "are": true, "available": true,
	"book": true, "books": true, "borrow": true, "by": true, "can": true,
	"copies": true, "copy": true, "do": true, "does": true, "find": true,
	"for": true, "have": true, "i": true, "is": true, "library": true,
	"me": true, "of": true, "on": true, "please": true, "search": true,
	"show": true, "the": true, "there": true, "want": true, "you": true,
}

const chatHelp = "I can help you search the catalog. Ask me about a title, " +
	"author or subject, for example: \"do you have Dune?\" or \"books by Knuth\"."

// buildReply produces the assistant's answer from the catalog and the
// user's message.  Pure over its inputs.
func buildReply(books []model.Book, message string) string {
	msg := strings.ToLower(strings.TrimSpace(message))
	switch msg {
	case "hi", "hello", "hey", "help":
		return chatHelp
	}

	terms := make([]string, 0, 4)
	for _, w := range strings.Fields(msg) {
		w = strings.Trim(w, ".,!?\"'")
		if w == "" || chatStopwords[w] {
			continue
		}
		terms = append(terms, w)
	}
	if len(terms) == 0 {
		return chatHelp
	}

	query := strings.Join(terms, " ")
	matches := catalog.Filter(books, query, "")
	if len(matches) == 0 {
		// A multi-word query may straddle title and author; retry per term.
		seen := map[uint64]bool{}
		for _, t := range terms {
			for _, b := range catalog.Filter(books, t, "") {
				if !seen[b.ID] {
					seen[b.ID] = true
					matches = append(matches, b)
				}
			}
		}
	}
	if len(matches) == 0 {
		return fmt.Sprintf("I could not find anything matching %q in the catalog. %s", query, chatHelp)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "I found %d matching title(s):\n", len(matches))
	shown := matches
	if len(shown) > 5 {
		shown = shown[:5]
	}
	for _, b := range shown {
		if b.Available() {
			fmt.Fprintf(&sb, "- %s by %s (%d of %d copies available)\n",
				b.Title, b.Author, b.AvailableCount, b.TotalCount)
		} else {
			fmt.Fprintf(&sb, "- %s by %s (currently unavailable)\n", b.Title, b.Author)
		}
	}
	if len(matches) > len(shown) {
		fmt.Fprintf(&sb, "...and %d more. Narrow your search to see them.\n", len(matches)-len(shown))
	}
	return strings.TrimRight(sb.String(), "\n")
}
