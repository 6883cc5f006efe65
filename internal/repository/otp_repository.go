package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// OTP purposes.  A code issued for one purpose cannot be consumed for the
// other.
const (
	OTPPurposeRegistration  = "registration"
	OTPPurposePasswordReset = "password_reset"
)

// ErrOTPNotFound is returned when no code is stored for the email.
var ErrOTPNotFound = errors.New("otp not found")

// ErrOTPExpired is returned when the stored code has passed its expiry.
var ErrOTPExpired = errors.New("otp expired")

// ErrOTPMismatch is returned when the supplied code does not match.
var ErrOTPMismatch = errors.New("invalid otp")

// OTP mirrors a row of the otps table.  One row per email: issuing a new
// code replaces any previous one, whatever its purpose.
type OTP struct {
	Email     string
	Code      string
	Purpose   string
	Verified  bool
	ExpiresAt time.Time
}

// OTPRepo stores one-time verification codes.  Codes are short-lived and
// low-entropy and are kept in plain text; the 10-minute expiry bounds
// their usefulness.
type OTPRepo struct{ DB *sql.DB }

func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

// Store upserts the code for an email.
func (r *OTPRepo) Store(ctx context.Context, email, code, purpose string, ttl time.Duration) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO otps (email, code, purpose, verified, expires_at)
		VALUES (?,?,?,0,?)
		ON DUPLICATE KEY UPDATE code=VALUES(code), purpose=VALUES(purpose), verified=0, expires_at=VALUES(expires_at)`,
		NormalizeEmail(email), code, purpose, time.Now().UTC().Add(ttl))
	return err
}

// Verify checks the code for an email and purpose.  On success the row is
// marked verified and kept, so a follow-up step (password reset) can confirm
// verification happened.  Expired rows are deleted as a side effect.
func (r *OTPRepo) Verify(ctx context.Context, email, code, purpose string) error {
	stored, err := r.get(ctx, email)
	if err != nil {
		return err
	}
	if stored.Purpose != purpose {
		return ErrOTPNotFound
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		_, _ = r.DB.ExecContext(ctx, "DELETE FROM otps WHERE email=?", NormalizeEmail(email))
		return ErrOTPExpired
	}
	if stored.Code != code {
		return ErrOTPMismatch
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE otps SET verified=1 WHERE email=?", NormalizeEmail(email))
	return err
}

// IsVerified reports whether a still-valid code for the email and purpose
// has passed Verify.
func (r *OTPRepo) IsVerified(ctx context.Context, email, purpose string) (bool, error) {
	stored, err := r.get(ctx, email)
	if err != nil {
		if errors.Is(err, ErrOTPNotFound) {
			return false, nil
		}
		return false, err
	}
	if stored.Purpose != purpose || time.Now().UTC().After(stored.ExpiresAt) {
		return false, nil
	}
	return stored.Verified, nil
}

// Delete discards the code for an email once it has served its purpose.
func (r *OTPRepo) Delete(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM otps WHERE email=?", NormalizeEmail(email))
	return err
}

func (r *OTPRepo) get(ctx context.Context, email string) (OTP, error) {
	var o OTP
	err := r.DB.QueryRowContext(ctx,
		"SELECT email, code, purpose, verified, expires_at FROM otps WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&o.Email, &o.Code, &o.Purpose, &o.Verified, &o.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return o, ErrOTPNotFound
	}
	return o, err
}
