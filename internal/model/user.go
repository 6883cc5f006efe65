package model

import "time"

// Role values stored in users.role and carried in the JWT "role" claim.
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
)

// User represents an account as stored in the `users` table.  Email is the
// identity key used throughout the API; ID exists only as a surrogate
// primary key.  The password hash is never serialized.  Roll number,
// semester and year are student profile fields and stay empty for staff.
type User struct {
	ID           uint64    `json:"-"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	RollNo       string    `json:"roll_no,omitempty"`
	Semester     string    `json:"semester,omitempty"`
	Year         string    `json:"year,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RefreshToken models a row in `refresh_tokens`.  Only the SHA-256 hash of
// the issued token is stored; RevokedAt is null while the token is active.
type RefreshToken struct {
	ID        uint64
	UserID    uint64
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}
