package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/greenfield-univ/library-api/internal/model"
)

// BookRepo provides CRUD operations for the book catalog and owns every
// statement that touches available_count.  Count mutations always run inside
// a transaction shared with the request status change that caused them, so
// the invariant 0 <= available_count <= total_count can never be observed
// broken.
type BookRepo struct{ DB *sql.DB }

func NewBookRepo(db *sql.DB) *BookRepo { return &BookRepo{DB: db} }

const bookColumns = "id,title,author,subject,description,year,isbn,cover_image,pdf_url,total_count,available_count,created_at,updated_at"

func scanBook(scan func(dest ...interface{}) error) (model.Book, error) {
	var b model.Book
	err := scan(&b.ID, &b.Title, &b.Author, &b.Subject, &b.Description, &b.Year,
		&b.ISBN, &b.CoverImage, &b.PDFURL, &b.TotalCount, &b.AvailableCount,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrBookNotFound
	}
	return b, err
}

// List returns the full catalog ordered by id.  Search and subject filtering
// happen in the catalog package on top of this scan.
func (r *BookRepo) List(ctx context.Context) ([]model.Book, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+bookColumns+" FROM books ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	books := make([]model.Book, 0)
	for rows.Next() {
		b, err := scanBook(rows.Scan)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// GetByID returns one book or ErrBookNotFound.
func (r *BookRepo) GetByID(ctx context.Context, id uint64) (model.Book, error) {
	return scanBook(r.DB.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id=? LIMIT 1", id).Scan)
}

// GetByIDTx is GetByID inside a transaction, locking the row for update so
// concurrent approvals of the same title serialize on the count.
func (r *BookRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (model.Book, error) {
	return scanBook(tx.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id=? LIMIT 1 FOR UPDATE", id).Scan)
}

// Create inserts a new title with available_count = total_count and returns
// the stored record.
func (r *BookRepo) Create(ctx context.Context, b *model.Book) error {
	if b.TotalCount < 1 {
		b.TotalCount = 1
	}
	b.AvailableCount = b.TotalCount
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO books (title, author, subject, description, year, isbn, cover_image, pdf_url, total_count, available_count)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		b.Title, b.Author, b.Subject, b.Description, b.Year, b.ISBN, b.CoverImage, b.PDFURL,
		b.TotalCount, b.AvailableCount)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	stored, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*b = stored
	return nil
}

// BookUpdate carries the mutable catalog fields for an edit.  Nil pointers
// leave the stored value untouched.  When TotalCount is set, the available
// count is recomputed so the allocated-copy count is preserved.
type BookUpdate struct {
	Title       *string
	Author      *string
	Subject     *string
	Description *string
	Year        *int
	ISBN        *string
	CoverImage  *string
	PDFURL      *string
	TotalCount  *int
}

// Update applies a partial edit inside its own transaction and returns the
// updated record.  Total-count changes recompute available_count through
// model.RecomputeAvailable under a row lock.
func (r *BookRepo) Update(ctx context.Context, id uint64, upd BookUpdate) (model.Book, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Book{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	cur, err := r.GetByIDTx(ctx, tx, id)
	if err != nil {
		return model.Book{}, err
	}

	sets := make([]string, 0, 10)
	args := make([]interface{}, 0, 11)
	appendSet := func(col string, v interface{}) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if upd.Title != nil {
		appendSet("title", *upd.Title)
	}
	if upd.Author != nil {
		appendSet("author", *upd.Author)
	}
	if upd.Subject != nil {
		appendSet("subject", *upd.Subject)
	}
	if upd.Description != nil {
		appendSet("description", *upd.Description)
	}
	if upd.Year != nil {
		appendSet("year", *upd.Year)
	}
	if upd.ISBN != nil {
		appendSet("isbn", *upd.ISBN)
	}
	if upd.CoverImage != nil {
		appendSet("cover_image", *upd.CoverImage)
	}
	if upd.PDFURL != nil {
		appendSet("pdf_url", *upd.PDFURL)
	}
	if upd.TotalCount != nil {
		newTotal := *upd.TotalCount
		if newTotal < 0 {
			newTotal = 0
		}
		appendSet("total_count", newTotal)
		appendSet("available_count", model.RecomputeAvailable(cur.TotalCount, cur.AvailableCount, newTotal))
	}
	if len(sets) > 0 {
		args = append(args, id)
		q := "UPDATE books SET " + strings.Join(sets, ",") + " WHERE id=?"
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return model.Book{}, err
		}
	}

	updated, err := scanBook(tx.QueryRowContext(ctx,
		"SELECT "+bookColumns+" FROM books WHERE id=? LIMIT 1", id).Scan)
	if err != nil {
		return model.Book{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Book{}, err
	}
	committed = true
	return updated, nil
}

// Delete removes a book unless non-terminal requests still reference it, in
// which case ErrConflict is returned and nothing changes.
func (r *BookRepo) Delete(ctx context.Context, id uint64) error {
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

	if _, err := r.GetByIDTx(ctx, tx, id); err != nil {
		return err
	}
	var open int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM requests WHERE book_id=? AND status IN ('pending','approved')",
		id).Scan(&open); err != nil {
		return err
	}
	if open > 0 {
		return ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM books WHERE id=?", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AdjustAvailableTx applies a +1/-1 allocation change within the caller's
// transaction.  A decrement is guarded by available_count > 0 and an
// increment is clamped at total_count; a guarded decrement that matches no
// row reports ErrOutOfStock.
func (r *BookRepo) AdjustAvailableTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	switch {
	case delta < 0:
		res, err := tx.ExecContext(ctx,
			"UPDATE books SET available_count = available_count - 1 WHERE id=? AND available_count > 0", id)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrOutOfStock
		}
	case delta > 0:
		if _, err := tx.ExecContext(ctx,
			"UPDATE books SET available_count = LEAST(available_count + 1, total_count) WHERE id=?", id); err != nil {
			return err
		}
	}
	return nil
}

// BookStats aggregates catalog-wide copy counts for the staff dashboard.
type BookStats struct {
	Titles          int `json:"titles"`
	TotalCopies     int `json:"total_copies"`
	AvailableCopies int `json:"available_copies"`
	AllocatedCopies int `json:"allocated_copies"`
}

// Stats computes aggregate counts in a single query; allocated is derived,
// never stored.
func (r *BookRepo) Stats(ctx context.Context) (BookStats, error) {
	var s BookStats
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(total_count),0),
		       COALESCE(SUM(available_count),0),
		       COALESCE(SUM(total_count-available_count),0)
		FROM books`).Scan(&s.Titles, &s.TotalCopies, &s.AvailableCopies, &s.AllocatedCopies)
	return s, err
}
