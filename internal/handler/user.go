package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/greenfield-univ/library-api/internal/middleware"
	"github.com/greenfield-univ/library-api/internal/model"
	"github.com/greenfield-univ/library-api/internal/repository"
)

// UserHandler serves profile updates and the staff account administration
// endpoints.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler { return &UserHandler{Users: u} }

type updateProfileReq struct {
	Name     *string `json:"name"`
	RollNo   *string `json:"roll_no"`
	Semester *string `json:"semester"`
	Year     *string `json:"year"`
}

// UpdateProfile applies a partial edit to the caller's own profile.  Roll
// number, semester and year only apply to student accounts; a staff request
// carrying them is rejected rather than silently dropped.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	email := middleware.Email(c)
	role := middleware.Role(c)

	if role != model.RoleStudent && (req.RollNo != nil || req.Semester != nil || req.Year != nil) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "student fields not allowed for this account"})
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	upd := repository.ProfileUpdate{
		Name:     req.Name,
		RollNo:   req.RollNo,
		Semester: req.Semester,
		Year:     req.Year,
	}
	if err := h.Users.UpdateProfile(ctx, email, upd); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "profile updated", "user": u})
}

// ListUsers returns all accounts, optionally filtered by ?role=.
func (h *UserHandler) ListUsers(c echo.Context) error {
	role := strings.ToLower(strings.TrimSpace(c.QueryParam("role")))
	if role != "" && role != model.RoleStudent && role != model.RoleStaff {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx, role)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users, "count": len(users)})
}

// DeleteUser removes a student account by email.  Staff accounts cannot be
// deleted through this endpoint.
func (h *UserHandler) DeleteUser(c echo.Context) error {
	email := repository.NormalizeEmail(c.Param("email"))
	if email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if u.Role == model.RoleStaff {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "staff accounts cannot be deleted"})
	}

	if err := h.Users.Delete(ctx, email); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user deleted", "email": email})
}
