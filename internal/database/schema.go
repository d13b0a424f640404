package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// The generated active_* columns are NULL for soft-deleted rows, so the
// unique keys over them only constrain live records.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('CLIENT','ADMIN','SUPER_ADMIN') NOT NULL DEFAULT 'CLIENT',
		birthday DATE NOT NULL,
		lifecycle ENUM('ACTIVE','DELETED') NOT NULL DEFAULT 'ACTIVE',
		active_email VARCHAR(255) AS (IF(lifecycle = 'ACTIVE', email, NULL)) STORED,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_users_active_email (active_email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64) NOT NULL,
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE KEY uq_refresh_token_hash (token_hash),
		KEY idx_refresh_tokens_user (user_id),
		KEY idx_refresh_tokens_expires (expires_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		start_date DATETIME NOT NULL,
		end_date DATETIME NOT NULL,
		venue VARCHAR(255) NOT NULL,
		country VARCHAR(100) NOT NULL,
		city VARCHAR(100) NOT NULL,
		status ENUM('OPEN','ONGOING','CANCELLED','DONE') NOT NULL DEFAULT 'OPEN',
		max_capacity INT UNSIGNED NOT NULL,
		price_cents BIGINT NOT NULL DEFAULT 0,
		lifecycle ENUM('ACTIVE','DELETED') NOT NULL DEFAULT 'ACTIVE',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_events_status_start (status, start_date),
		CONSTRAINT chk_events_capacity CHECK (max_capacity > 0),
		CONSTRAINT chk_events_price CHECK (price_cents >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		event_id BIGINT UNSIGNED NOT NULL,
		price_cents BIGINT NOT NULL,
		is_cancelled BOOLEAN NOT NULL DEFAULT FALSE,
		lifecycle ENUM('ACTIVE','DELETED') NOT NULL DEFAULT 'ACTIVE',
		active_key TINYINT AS (IF(lifecycle = 'ACTIVE', 1, NULL)) STORED,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		UNIQUE KEY uq_reservations_user_event_active (user_id, event_id, active_key),
		KEY idx_reservations_event (event_id, lifecycle, is_cancelled)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL,
		event_id BIGINT UNSIGNED NOT NULL,
		rating TINYINT UNSIGNED NOT NULL,
		review_text TEXT NOT NULL,
		lifecycle ENUM('ACTIVE','DELETED') NOT NULL DEFAULT 'ACTIVE',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		KEY idx_reviews_event (event_id, lifecycle),
		KEY idx_reviews_user_event (user_id, event_id),
		CONSTRAINT chk_reviews_rating CHECK (rating BETWEEN 0 AND 5)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the schema when it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
