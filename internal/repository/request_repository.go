package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/greenfield-univ/library-api/internal/model"
)

// RequestRepo stores borrow requests and owns the status transition
// statement.  The lifecycle rules themselves live in the model package;
// this layer only persists transitions the handler has already validated
// and keeps them atomic with the book count change.
type RequestRepo struct{ DB *sql.DB }

func NewRequestRepo(db *sql.DB) *RequestRepo { return &RequestRepo{DB: db} }

const requestColumns = "id,email,book_id,book_name,author,roll_no,semester,year,status,requested_at,updated_at"

func scanRequest(scan func(dest ...interface{}) error) (model.Request, error) {
	var q model.Request
	err := scan(&q.ID, &q.Email, &q.BookID, &q.BookName, &q.Author,
		&q.RollNo, &q.Semester, &q.Year, &q.Status, &q.RequestedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return q, ErrRequestNotFound
	}
	return q, err
}

// Create inserts a pending request for a book within a transaction that
// verifies the book still has a free copy and that the user does not already
// have a pending request for it.  Denormalized book fields are snapshotted
// under the same row lock, so the stored title matches what the student saw.
func (r *RequestRepo) Create(ctx context.Context, books *BookRepo, req *model.Request) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	book, err := books.GetByIDTx(ctx, tx, req.BookID)
	if err != nil {
		return err
	}
	if book.AvailableCount <= 0 {
		return ErrOutOfStock
	}
	var pending int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE email=? AND book_id=? AND status='pending'",
		req.Email, req.BookID).Scan(&pending); err != nil {
		return err
	}
	if pending > 0 {
		return ErrDuplicateRequest
	}

	req.BookName = book.Title
	req.Author = book.Author
	req.Status = model.StatusPending
	res, err := tx.ExecContext(ctx, `
		INSERT INTO requests (email, book_id, book_name, author, roll_no, semester, year, status)
		VALUES (?,?,?,?,?,?,?,?)`,
		req.Email, req.BookID, req.BookName, req.Author,
		req.RollNo, req.Semester, req.Year, req.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := scanRequest(tx.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id=? LIMIT 1", id).Scan)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*req = stored
	return nil
}

// GetByID returns one request or ErrRequestNotFound.
func (r *RequestRepo) GetByID(ctx context.Context, id uint64) (model.Request, error) {
	return scanRequest(r.DB.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id=? LIMIT 1", id).Scan)
}

// GetByIDTx is GetByID under a row lock inside the caller's transaction.
func (r *RequestRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Request, error) {
	return scanRequest(tx.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE id=? LIMIT 1 FOR UPDATE", id).Scan)
}

// ListByEmail returns a user's requests, newest first.
func (r *RequestRepo) ListByEmail(ctx context.Context, email string) ([]model.Request, error) {
	return r.list(ctx,
		"SELECT "+requestColumns+" FROM requests WHERE email=? ORDER BY requested_at DESC, id DESC",
		NormalizeEmail(email))
}

// ListAll returns every request, newest first.
func (r *RequestRepo) ListAll(ctx context.Context) ([]model.Request, error) {
	return r.list(ctx,
		"SELECT "+requestColumns+" FROM requests ORDER BY requested_at DESC, id DESC")
}

func (r *RequestRepo) list(ctx context.Context, q string, args ...interface{}) ([]model.Request, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// UpdateStatusTx persists a validated transition inside the caller's
// transaction and bumps updated_at.
func (r *RequestRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, to model.RequestStatus) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET status=?, updated_at=NOW() WHERE id=?", to, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// StatusCounts returns the number of requests in each lifecycle state.
func (r *RequestRepo) StatusCounts(ctx context.Context) (map[model.RequestStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM requests GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[model.RequestStatus]int{
		model.StatusPending:   0,
		model.StatusApproved:  0,
		model.StatusRejected:  0,
		model.StatusCompleted: 0,
	}
	for rows.Next() {
		var st model.RequestStatus
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, rows.Err()
}
