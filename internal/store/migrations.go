package store

import (
	"fmt"
	"strings"
)

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS owners (
			id TEXT PRIMARY KEY,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			is_active INTEGER NOT NULL DEFAULT 1,
			last_login_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS brands (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES owners(id),
			name TEXT NOT NULL,
			pitch TEXT NOT NULL DEFAULT '',
			concept TEXT NOT NULL DEFAULT '',
			desirable_cues TEXT NOT NULL DEFAULT '',
			undesirable_cues TEXT NOT NULL DEFAULT '',
			font_primary TEXT NOT NULL DEFAULT '',
			font_secondary TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS logos (
			id TEXT PRIMARY KEY,
			brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
			url TEXT NOT NULL,
			format TEXT NOT NULL DEFAULT 'png',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS taglines (
			id TEXT PRIMARY KEY,
			brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
			text TEXT NOT NULL,
			is_primary INTEGER NOT NULL DEFAULT 0,
			is_liked INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS colorizations (
			id TEXT PRIMARY KEY,
			brand_id TEXT NOT NULL REFERENCES brands(id) ON DELETE CASCADE,
			palette_json TEXT NOT NULL DEFAULT '[]',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS api_keys (
			id TEXT PRIMARY KEY,
			owner_id TEXT NOT NULL REFERENCES owners(id),
			brand_id TEXT NOT NULL REFERENCES brands(id),
			name TEXT NOT NULL DEFAULT '',
			key_hash TEXT UNIQUE NOT NULL,
			key_prefix TEXT NOT NULL,
			perm_read INTEGER NOT NULL DEFAULT 0,
			perm_validate INTEGER NOT NULL DEFAULT 0,
			perm_generate INTEGER NOT NULL DEFAULT 0,
			perm_modify INTEGER NOT NULL DEFAULT 0,
			usage_count INTEGER NOT NULL DEFAULT 0,
			expires_at DATETIME,
			last_used_at DATETIME,
			revoked_at DATETIME,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_api_keys_hash ON api_keys(key_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_api_keys_brand ON api_keys(brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_logos_brand ON logos(brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_taglines_brand ON taglines(brand_id)`,
		`CREATE INDEX IF NOT EXISTS idx_colorizations_brand ON colorizations(brand_id)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// SQLite ALTER TABLE ADD COLUMN fails if column already exists;
			// treat "duplicate column" as a no-op for idempotent migrations.
			if strings.Contains(err.Error(), "duplicate column") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}
