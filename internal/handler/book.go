package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenfield-univ/library-api/internal/catalog"
	"github.com/greenfield-univ/library-api/internal/model"
	"github.com/greenfield-univ/library-api/internal/repository"
)

// BookHandler serves the public catalog and the staff CRUD endpoints.
type BookHandler struct {
	Books *repository.BookRepo
}

func NewBookHandler(b *repository.BookRepo) *BookHandler { return &BookHandler{Books: b} }

type createBookReq struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Year        int    `json:"year"`
	ISBN        string `json:"isbn"`
	CoverImage  string `json:"cover_image"`
	PDFURL      string `json:"pdf_url"`
	Quantity    int    `json:"quantity"`
}

type updateBookReq struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Subject     *string `json:"subject"`
	Description *string `json:"description"`
	Year        *int    `json:"year"`
	ISBN        *string `json:"isbn"`
	CoverImage  *string `json:"cover_image"`
	PDFURL      *string `json:"pdf_url"`
	TotalCount  *int    `json:"total_count"`
}

// bookResp wraps a catalog record with the derived availability flag the
// clients key off.
type bookResp struct {
	model.Book
	Available bool `json:"available"`
}

func toBookResp(b model.Book) bookResp { return bookResp{Book: b, Available: b.Available()} }

func toBookResps(books []model.Book) []bookResp {
	out := make([]bookResp, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResp(b))
	}
	return out
}

func parseID(c echo.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}

// List returns the catalog, filtered by the optional search and subject
// query params.
func (h *BookHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	books, err := h.Books.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	books = catalog.Filter(books, c.QueryParam("search"), c.QueryParam("subject"))
	return c.JSON(http.StatusOK, echo.Map{"books": toBookResps(books), "count": len(books)})
}

// Get returns one book by id.
func (h *BookHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"book": toBookResp(b)})
}

// Create adds a new title.  Every copy starts available.
func (h *BookHandler) Create(c echo.Context) error {
	var req createBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Author) == "" || strings.TrimSpace(req.Subject) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title/author/subject required"})
	}
	if req.Quantity < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "quantity cannot be negative"})
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b := model.Book{
		Title:       strings.TrimSpace(req.Title),
		Author:      strings.TrimSpace(req.Author),
		Subject:     strings.TrimSpace(req.Subject),
		Description: req.Description,
		Year:        req.Year,
		ISBN:        req.ISBN,
		CoverImage:  req.CoverImage,
		PDFURL:      req.PDFURL,
		TotalCount:  req.Quantity,
	}
	if err := h.Books.Create(ctx, &b); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create book failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "book added", "book": toBookResp(b)})
}

// Update applies a partial edit.  A total-count change recomputes the
// available count so already-allocated copies stay allocated.
func (h *BookHandler) Update(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}
	var req updateBookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.TotalCount != nil && *req.TotalCount < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_count cannot be negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	upd := repository.BookUpdate{
		Title:       req.Title,
		Author:      req.Author,
		Subject:     req.Subject,
		Description: req.Description,
		Year:        req.Year,
		ISBN:        req.ISBN,
		CoverImage:  req.CoverImage,
		PDFURL:      req.PDFURL,
		TotalCount:  req.TotalCount,
	}
	b, err := h.Books.Update(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book updated", "book": toBookResp(b)})
}

// Delete removes a title unless open requests still reference it.
func (h *BookHandler) Delete(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid book id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Books.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "book has open requests"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "book deleted"})
}
