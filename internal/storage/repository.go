package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"budget/internal/persist"

	_ "modernc.org/sqlite"
)

var _ persist.Slot = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection keeps writes serialized; sqlite allows one writer anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements persist.Slot
func (r *SQLiteRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, persist.ErrEmptyKey
	}
	var payload []byte
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM slots WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load slot %s: %w", key, err)
	}
	return payload, true, nil
}

// Save implements persist.Slot
func (r *SQLiteRepository) Save(ctx context.Context, key string, data []byte) error {
	if key == "" {
		return persist.ErrEmptyKey
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO slots (key, payload) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			version = slots.version + 1,
			updated_at = CURRENT_TIMESTAMP`,
		key, data)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}

	slog.DebugContext(ctx, "Slot saved to SQLite", "key", key, "bytes", len(data))
	return nil
}
