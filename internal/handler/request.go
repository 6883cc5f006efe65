package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenfield-univ/library-api/internal/middleware"
	"github.com/greenfield-univ/library-api/internal/model"
	"github.com/greenfield-univ/library-api/internal/queue"
	"github.com/greenfield-univ/library-api/internal/repository"
	queue_publisher "github.com/greenfield-univ/library-api/internal/service"
)

// RequestHandler serves the borrow-request lifecycle.  Status transitions
// and the book count change they imply run in one transaction; the event
// publish and notification write happen after commit and are best-effort.
type RequestHandler struct {
	Requests      *repository.RequestRepo
	Books         *repository.BookRepo
	Users         *repository.UserRepo
	Notifications *repository.NotificationRepo
	Log           *zap.Logger
}

func NewRequestHandler(r *repository.RequestRepo, b *repository.BookRepo, u *repository.UserRepo, n *repository.NotificationRepo, log *zap.Logger) *RequestHandler {
	return &RequestHandler{Requests: r, Books: b, Users: u, Notifications: n, Log: log}
}

type createRequestReq struct {
	BookID uint64 `json:"book_id"`
}

type updateRequestReq struct {
	Status string `json:"status"`
}

// Create files a pending request for the authenticated student.  The
// student profile is snapshotted onto the request row so listings render
// without a join.
func (h *RequestHandler) Create(c echo.Context) error {
	var req createRequestReq
	if err := c.Bind(&req); err != nil || req.BookID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "book_id required"})
	}
	email := middleware.Email(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	r := model.Request{
		Email:    u.Email,
		BookID:   req.BookID,
		RollNo:   u.RollNo,
		Semester: u.Semester,
		Year:     u.Year,
	}
	if err := h.Requests.Create(ctx, h.Books, &r); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "book not found"})
		case errors.Is(err, repository.ErrOutOfStock):
			return c.JSON(http.StatusConflict, echo.Map{"error": "no copies available"})
		case errors.Is(err, repository.ErrDuplicateRequest):
			return c.JSON(http.StatusConflict, echo.Map{"error": "request already pending for this book"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
		}
	}

	if err := h.Notifications.Create(ctx, r.Email,
		fmt.Sprintf("Your request for %q has been submitted.", r.BookName), "request_created"); err != nil {
		h.Log.Warn("notification write failed", zap.Error(err))
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": "request created", "request": r})
}

// Get returns one request.  Students may only read their own.
func (h *RequestHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	r, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if middleware.Role(c) != model.RoleStaff && r.Email != middleware.Email(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	return c.JSON(http.StatusOK, echo.Map{"request": r})
}

// ListByEmail returns one user's requests.  Students may only list their
// own; staff may list anyone's.
func (h *RequestHandler) ListByEmail(c echo.Context) error {
	email := repository.NormalizeEmail(c.Param("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	if middleware.Role(c) != model.RoleStaff && email != middleware.Email(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reqs, err := h.Requests.ListByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": reqs, "count": len(reqs)})
}

// ListAll returns every request for the staff dashboard.
func (h *RequestHandler) ListAll(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	reqs, err := h.Requests.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"requests": reqs, "count": len(reqs)})
}

// UpdateStatus applies a lifecycle transition.  The transition check, the
// status write and the availability change run under one row-locked
// transaction, so an approval of the last copy and a competing approval
// cannot both succeed.
func (h *RequestHandler) UpdateStatus(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request id"})
	}
	var body updateRequestReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	to, ok := model.ParseStatus(body.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown status"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	tx, err := h.Requests.DB.BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	r, err := h.Requests.GetByIDTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrRequestNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	from := r.Status
	if !from.CanTransition(to) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": fmt.Sprintf("cannot change status from %s to %s", from, to),
		})
	}

	if delta := model.AllocationDelta(from, to); delta != 0 {
		if err := h.Books.AdjustAvailableTx(ctx, tx, r.BookID, delta); err != nil {
			if errors.Is(err, repository.ErrOutOfStock) {
				return c.JSON(http.StatusConflict, echo.Map{"error": "no copies available"})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	if err := h.Requests.UpdateStatusTx(ctx, tx, id, to); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	actedBy := middleware.Email(c)
	updated, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		updated = r
		updated.Status = to
	}

	if err := h.Notifications.Create(ctx, r.Email,
		fmt.Sprintf("Your request for %q is now %s.", r.BookName, to), "request_"+string(to)); err != nil {
		h.Log.Warn("notification write failed", zap.Error(err))
	}

	ev := queue.RequestUpdatedEvent{
		RequestID:  r.ID,
		Email:      r.Email,
		BookID:     r.BookID,
		BookName:   r.BookName,
		FromStatus: string(from),
		ToStatus:   string(to),
		ActedBy:    actedBy,
		UpdatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		pubCtx, pubCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer pubCancel()
		if err := queue_publisher.PublishRequestUpdated(pubCtx, ev); err != nil {
			h.Log.Warn("event publish failed", zap.Uint64("request_id", r.ID), zap.Error(err))
		}
	}()

	h.Log.Info("request status changed",
		zap.Uint64("request_id", r.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("acted_by", actedBy))

	return c.JSON(http.StatusOK, echo.Map{"message": "request updated", "request": updated})
}
