package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/greenfield-univ/library-api/internal/config"
	"github.com/greenfield-univ/library-api/internal/middleware"
	"github.com/greenfield-univ/library-api/internal/model"
	"github.com/greenfield-univ/library-api/internal/repository"
	"github.com/greenfield-univ/library-api/internal/utils"
)

// AuthHandler bundles dependencies for registration, login and the token
// and password flows.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
	OTPs   *repository.OTPRepo
	Log    *zap.Logger
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, o *repository.OTPRepo, log *zap.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, OTPs: o, Log: log}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}
type otpReq struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}
type emailReq struct {
	Email string `json:"email"`
}
type resetPasswordReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}
type changePasswordReq struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type userPart struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type authResp struct {
	User    userPart  `json:"user"`
	Access  tokenPart `json:"access"`
	Refresh tokenPart `json:"refresh"`
}

func validRegistration(email, name, password string) string {
	if email == "" || !strings.Contains(email, "@") {
		return "valid email required"
	}
	if strings.TrimSpace(name) == "" {
		return "name required"
	}
	if len(password) < 6 {
		return "password must be at least 6 characters"
	}
	return ""
}

// RegisterStudent validates the signup, parks it behind a one-time code and
// emits the code.  The account is only created once the code is verified.
// Code delivery is a log line; a mail provider can pick it up from there.
func (h *AuthHandler) RegisterStudent(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if msg := validRegistration(req.Email, req.Name, req.Password); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Users.Exists(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if exists {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.StorePending(ctx, repository.PendingRegistration{
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		Role:         model.RoleStudent,
	}); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save registration failed"})
	}

	code, err := utils.GenerateOTP()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue otp failed"})
	}
	if err := h.OTPs.Store(ctx, req.Email, code, repository.OTPPurposeRegistration, h.Cfg.OTPTTL); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save otp failed"})
	}
	h.Log.Info("registration otp issued", zap.String("email", req.Email), zap.String("otp", code))

	return c.JSON(http.StatusOK, echo.Map{"message": "otp sent", "email": req.Email})
}

// VerifyRegistrationOTP confirms the code, promotes the parked registration
// into a real account and returns a token pair so the client is logged in.
func (h *AuthHandler) VerifyRegistrationOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.OTPs.Verify(ctx, req.Email, req.OTP, repository.OTPPurposeRegistration); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": otpErrorMessage(err)})
	}

	pending, err := h.Users.GetPending(ctx, req.Email)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no registration in progress"})
	}

	uid, err := h.Users.Create(ctx, pending.Email, pending.Name, pending.PasswordHash, pending.Role)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	_ = h.Users.DeletePending(ctx, req.Email)
	_ = h.OTPs.Delete(ctx, req.Email)

	return h.issueTokens(c, ctx, http.StatusCreated, uid, pending.Email, pending.Name, pending.Role)
}

// RegisterStaff creates a staff account immediately.  The route is itself
// staff-protected, so this is an invite flow, not self-service signup.
func (h *AuthHandler) RegisterStaff(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if msg := validRegistration(req.Email, req.Name, req.Password); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	hash, err := utils.HashPassword(req.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if _, err := h.Users.Create(ctx, req.Email, strings.TrimSpace(req.Name), hash, model.RoleStaff); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "staff account created",
		"user":    userPart{Email: req.Email, Name: strings.TrimSpace(req.Name), Role: model.RoleStaff},
	})
}

// Login verifies credentials and returns a fresh token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	return h.issueTokens(c, ctx, http.StatusOK, u.ID, u.Email, u.Name, u.Role)
}

// Refresh validates the presented refresh token by hash, revokes it and
// issues a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	_ = h.Tokens.RevokeByHash(ctx, hash)

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
	}
	return h.issueTokens(c, ctx, http.StatusOK, u.ID, u.Email, u.Name, u.Role)
}

// Logout revokes every refresh token of the authenticated user.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid := middleware.UserID(c)
	if uid == 0 {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ForgotPassword issues a reset code for a registered email.  The response
// never reveals whether the account exists.
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req emailReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	email := repository.NormalizeEmail(req.Email)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	exists, err := h.Users.Exists(ctx, email)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if exists {
		code, err := utils.GenerateOTP()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue otp failed"})
		}
		if err := h.OTPs.Store(ctx, email, code, repository.OTPPurposePasswordReset, h.Cfg.OTPTTL); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save otp failed"})
		}
		h.Log.Info("password reset otp issued", zap.String("email", email), zap.String("otp", code))
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "if the email is registered, an otp has been sent"})
}

// VerifyForgotPasswordOTP confirms the reset code.  The verified mark is
// kept so ResetPassword can require it.
func (h *AuthHandler) VerifyForgotPasswordOTP(c echo.Context) error {
	var req otpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" || req.OTP == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/otp required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.OTPs.Verify(ctx, req.Email, req.OTP, repository.OTPPurposePasswordReset); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": otpErrorMessage(err)})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "otp verified"})
}

// ResetPassword replaces the password once the reset code has been
// verified, then revokes all sessions.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = repository.NormalizeEmail(req.Email)
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}
	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	verified, err := h.OTPs.IsVerified(ctx, req.Email, repository.OTPPurposePasswordReset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !verified {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "otp verification required"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, req.Email, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	_ = h.OTPs.Delete(ctx, req.Email)

	if u, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		_ = h.Tokens.RevokeAllForUser(ctx, u.ID)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// ChangePassword lets an authenticated user rotate their password after
// proving the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	var req changePasswordReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.NewPassword) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}
	email := middleware.Email(c)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "current password incorrect"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash failed"})
	}
	if err := h.Users.UpdatePassword(ctx, email, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

// issueTokens builds the access/refresh pair and stores the refresh hash.
func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, status int, uid uint64, email, name, role string) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, uid, email, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
	}
	if err := h.Tokens.StoreRefresh(ctx, uid, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
	}
	return c.JSON(status, authResp{
		User:    userPart{Email: email, Name: name, Role: role},
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}

func otpErrorMessage(err error) string {
	switch {
	case errors.Is(err, repository.ErrOTPExpired):
		return "otp expired"
	case errors.Is(err, repository.ErrOTPMismatch):
		return "invalid otp"
	default:
		return "otp not found"
	}
}
