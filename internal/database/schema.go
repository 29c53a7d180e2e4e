package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order; every statement is idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email         VARCHAR(255)    NOT NULL,
		password_hash VARCHAR(255)    NOT NULL,
		created_at    DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		UNIQUE KEY uq_users_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		token_hash CHAR(64)        NOT NULL,
		expires_at DATETIME        NOT NULL,
		revoked_at DATETIME        NULL,
		created_at DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (id),
		UNIQUE KEY uq_refresh_hash (token_hash),
		KEY idx_refresh_user (user_id),
		CONSTRAINT fk_refresh_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS user_stats (
		user_id      BIGINT UNSIGNED NOT NULL,
		day_count    INT UNSIGNED    NOT NULL DEFAULT 1,
		last_visited CHAR(10)        NULL,
		version      BIGINT          NOT NULL DEFAULT 0,
		updated_at   DATETIME(6)     NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
		PRIMARY KEY (user_id),
		CONSTRAINT chk_stats_day_count CHECK (day_count >= 1),
		CONSTRAINT fk_stats_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS journal_entries (
		id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id    BIGINT UNSIGNED NOT NULL,
		mood_label VARCHAR(32)     NOT NULL,
		mood_glyph VARCHAR(16)     NOT NULL,
		message    TEXT            NOT NULL,
		day_key    CHAR(10)        NOT NULL,
		created_at DATETIME(6)     NOT NULL,
		PRIMARY KEY (id),
		KEY idx_journal_user_created (user_id, created_at),
		CONSTRAINT fk_journal_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS quote_history (
		id          BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		user_id     BIGINT UNSIGNED NOT NULL,
		external_id VARCHAR(64)     NOT NULL DEFAULT '',
		content     TEXT            NOT NULL,
		author      VARCHAR(200)    NOT NULL,
		tags        JSON            NULL,
		day_key     CHAR(10)        NOT NULL,
		created_at  DATETIME(6)     NOT NULL,
		PRIMARY KEY (id),
		UNIQUE KEY uq_quote_user_day (user_id, day_key),
		CONSTRAINT fk_quote_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates any missing table.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
