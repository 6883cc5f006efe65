package repository

import (
	"context"
	"database/sql"

	"github.com/greenfield-univ/library-api/internal/model"
)

// NotificationRepo stores per-user feed entries.  Writes happen after the
// transaction that triggered them commits; a failed insert only costs the
// feed entry, never the request or book change.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create appends an entry to a user's feed.
func (r *NotificationRepo) Create(ctx context.Context, recipient, message, typ string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO notifications (recipient, message, type) VALUES (?,?,?)",
		NormalizeEmail(recipient), message, typ)
	return err
}

// ListByRecipient returns a user's notifications, newest first.
func (r *NotificationRepo) ListByRecipient(ctx context.Context, recipient string) ([]model.Notification, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT id, recipient, message, type, is_read, created_at FROM notifications WHERE recipient=? ORDER BY created_at DESC, id DESC",
		NormalizeEmail(recipient))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Recipient, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one notification as read.  The recipient is part of the
// predicate so users cannot touch someone else's feed; a mismatch reports
// ErrForbidden when the row exists and sql.ErrNoRows semantics otherwise.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64, recipient string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE id=? AND recipient=?",
		id, NormalizeEmail(recipient))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows for no-op updates too, so an
		// already-read notification of the caller's own is not an error.
		var owned int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM notifications WHERE id=? AND recipient=?",
			id, NormalizeEmail(recipient)).Scan(&owned); err != nil {
			return err
		}
		if owned > 0 {
			return nil
		}
		var exists int
		if err := r.DB.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM notifications WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists > 0 {
			return ErrForbidden
		}
		return sql.ErrNoRows
	}
	return nil
}
