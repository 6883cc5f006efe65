package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenfield-univ/library-api/internal/repository"
)

// StatsHandler serves the staff dashboard aggregates.
type StatsHandler struct {
	Books    *repository.BookRepo
	Requests *repository.RequestRepo
}

func NewStatsHandler(b *repository.BookRepo, r *repository.RequestRepo) *StatsHandler {
	return &StatsHandler{Books: b, Requests: r}
}

// Stats returns catalog copy counts and request counts per lifecycle state.
// Everything is computed with SQL aggregates; nothing derived is stored.
func (h *StatsHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.Stats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	requests, err := h.Requests.StatusCounts(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"books":    books,
		"requests": requests,
	})
}
