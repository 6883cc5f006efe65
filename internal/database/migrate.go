package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema contains the CREATE TABLE statements for every table the service
// uses.  Statements are idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('student','staff') NOT NULL DEFAULT 'student',
		roll_no VARCHAR(64) NOT NULL DEFAULT '',
		semester VARCHAR(32) NOT NULL DEFAULT '',
		year VARCHAR(32) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS books (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(512) NOT NULL,
		author VARCHAR(255) NOT NULL,
		subject VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		year INT NOT NULL DEFAULT 0,
		isbn VARCHAR(32) NOT NULL DEFAULT '',
		cover_image VARCHAR(1024) NOT NULL DEFAULT '',
		pdf_url VARCHAR(1024) NOT NULL DEFAULT '',
		total_count INT NOT NULL DEFAULT 1,
		available_count INT NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_books_subject (subject)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS requests (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL,
		book_id BIGINT UNSIGNED NOT NULL,
		book_name VARCHAR(512) NOT NULL,
		author VARCHAR(255) NOT NULL,
		roll_no VARCHAR(64) NOT NULL DEFAULT '',
		semester VARCHAR(32) NOT NULL DEFAULT '',
		year VARCHAR(32) NOT NULL DEFAULT '',
		status ENUM('pending','approved','rejected','completed') NOT NULL DEFAULT 'pending',
		requested_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_requests_email (email),
		KEY idx_requests_book_status (book_id, status)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		revoked_at DATETIME NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_tokens_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS otps (
		email VARCHAR(255) NOT NULL,
		code CHAR(6) NOT NULL,
		purpose ENUM('registration','password_reset') NOT NULL,
		verified TINYINT(1) NOT NULL DEFAULT 0,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS pending_registrations (
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('student','staff') NOT NULL DEFAULT 'student',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		recipient VARCHAR(255) NOT NULL,
		message VARCHAR(1024) NOT NULL,
		type VARCHAR(32) NOT NULL DEFAULT 'info',
		is_read TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_notifications_recipient (recipient, is_read)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate applies the schema to the connected database.  Each statement is
// executed in order; the first failure aborts with the offending statement
// index in the error.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}
	return nil
}
