package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Veraticus/receipt-ledger/internal/model"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS categories (
					id INTEGER PRIMARY KEY,
					name TEXT UNIQUE NOT NULL,
					description TEXT NOT NULL DEFAULT ''
				)`,

				`CREATE TABLE IF NOT EXISTS receipts (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					receipt_url TEXT UNIQUE NOT NULL,
					purchase_date TEXT NOT NULL,
					total_amount TEXT NOT NULL DEFAULT '0',
					total_discount TEXT NOT NULL DEFAULT '0',
					raw_items TEXT NOT NULL DEFAULT '[]',
					original_items TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS item_category_patterns (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category_id INTEGER NOT NULL,
					pattern TEXT NOT NULL,
					pattern_key TEXT NOT NULL,
					match_type TEXT NOT NULL CHECK (match_type IN ('exact', 'contains', 'starts_with', 'ends_with')),
					priority INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (pattern_key, match_type),
					FOREIGN KEY (category_id) REFERENCES categories(id) ON DELETE CASCADE
				)`,

				`CREATE TABLE IF NOT EXISTS receipt_item_categories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					receipt_id INTEGER NOT NULL,
					category_id INTEGER NOT NULL,
					item_index INTEGER NOT NULL CHECK (item_index >= 0),
					item_name TEXT NOT NULL,
					item_price TEXT NOT NULL,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
					UNIQUE (receipt_id, item_index),
					FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,

				`CREATE TABLE IF NOT EXISTS receipt_category_totals (
					receipt_id INTEGER NOT NULL,
					category_id INTEGER NOT NULL,
					amount TEXT NOT NULL,
					PRIMARY KEY (receipt_id, category_id),
					FOREIGN KEY (receipt_id) REFERENCES receipts(id) ON DELETE CASCADE,
					FOREIGN KEY (category_id) REFERENCES categories(id)
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed category vocabulary",
		Up: func(tx *sql.Tx) error {
			for _, c := range model.AllCategories() {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO categories (id, name, description) VALUES (?, ?, ?)`,
					c.ID(), c.String(), c.Description(),
				); err != nil {
					return fmt.Errorf("failed to seed category %q: %w", c, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Add lookup indexes",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_receipts_purchase_date ON receipts(purchase_date)`,
				`CREATE INDEX IF NOT EXISTS idx_patterns_match_type ON item_category_patterns(match_type, priority DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_patterns_category ON item_category_patterns(category_id)`,
				`CREATE INDEX IF NOT EXISTS idx_item_categories_category ON receipt_item_categories(category_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate runs all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	var finalVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion); err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}

// SchemaVersion returns the schema version recorded in the database.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}
