package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/greenfield-univ/library-api/internal/model"
)

// UserRepo provides account storage.  Emails are normalized to lower case
// before every read or write so the unique key on users.email behaves as a
// case-insensitive identity.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,email,name,password_hash,role,roll_no,semester,year,created_at,updated_at"

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&u.RollNo, &u.Semester, &u.Year, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return u, ErrUserNotFound
	}
	return u, err
}

// Create inserts a user with an already-hashed password and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, name, passwordHash, role string) (uint64, error) {
	email = NormalizeEmail(email)
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, name, password_hash, role) VALUES (?,?,?,?)",
		email, name, passwordHash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", NormalizeEmail(email)))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Exists reports whether an account with the given email is registered.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE email=?", NormalizeEmail(email)).Scan(&n)
	return n > 0, err
}

// UpdatePassword replaces the stored hash for the given email.
func (r *UserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=? WHERE email=?", passwordHash, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// ProfileUpdate carries the mutable profile fields.  Nil pointers leave the
// stored value untouched; roll number, semester and year are only applied to
// student accounts by the handler.
type ProfileUpdate struct {
	Name     *string
	RollNo   *string
	Semester *string
	Year     *string
}

// UpdateProfile applies a partial profile update.
func (r *UserRepo) UpdateProfile(ctx context.Context, email string, upd ProfileUpdate) error {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if upd.Name != nil {
		sets = append(sets, "name=?")
		args = append(args, *upd.Name)
	}
	if upd.RollNo != nil {
		sets = append(sets, "roll_no=?")
		args = append(args, *upd.RollNo)
	}
	if upd.Semester != nil {
		sets = append(sets, "semester=?")
		args = append(args, *upd.Semester)
	}
	if upd.Year != nil {
		sets = append(sets, "year=?")
		args = append(args, *upd.Year)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, NormalizeEmail(email))
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(sets, ",")+" WHERE email=?", args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// List returns all users, optionally filtered by role, ordered by creation
// time descending.  Password hashes are included in the structs but the
// model never serializes them.
func (r *UserRepo) List(ctx context.Context, role string) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC"
	args := []interface{}{}
	if role != "" {
		q = "SELECT " + userColumns + " FROM users WHERE role=? ORDER BY created_at DESC"
		args = append(args, role)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
			&u.RollNo, &u.Semester, &u.Year, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Delete removes an account by email.
func (r *UserRepo) Delete(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE email=?", NormalizeEmail(email))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// --- pending registrations ---

// PendingRegistration parks a validated but unverified signup until its
// one-time code is confirmed.
type PendingRegistration struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
}

// StorePending upserts the pending registration for an email.  Re-registering
// before verification simply replaces the parked data.
func (r *UserRepo) StorePending(ctx context.Context, p PendingRegistration) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO pending_registrations (email, name, password_hash, role)
		VALUES (?,?,?,?)
		ON DUPLICATE KEY UPDATE name=VALUES(name), password_hash=VALUES(password_hash), role=VALUES(role)`,
		NormalizeEmail(p.Email), p.Name, p.PasswordHash, p.Role)
	return err
}

// GetPending loads a parked registration.
func (r *UserRepo) GetPending(ctx context.Context, email string) (PendingRegistration, error) {
	var p PendingRegistration
	err := r.DB.QueryRowContext(ctx,
		"SELECT email, name, password_hash, role FROM pending_registrations WHERE email=? LIMIT 1",
		NormalizeEmail(email)).Scan(&p.Email, &p.Name, &p.PasswordHash, &p.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return p, ErrUserNotFound
	}
	return p, err
}

// DeletePending discards a parked registration.
func (r *UserRepo) DeletePending(ctx context.Context, email string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM pending_registrations WHERE email=?", NormalizeEmail(email))
	return err
}

// NormalizeEmail lower-cases and trims an email address.  All repositories
// and handlers use it so the same identity never splits into two rows.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
