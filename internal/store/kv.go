package store

import (
	"context"
	"database/sql"
	"fmt"
)

// GetValue returns the value stored under key. ok is false when the key is absent.
func GetValue(ctx context.Context, db *sql.DB, key string) (string, bool, error) {
	var value string
	err := db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting value %q: %w", key, err)
	}
	return value, true, nil
}

// SetValue overwrites the value stored under key.
func SetValue(ctx context.Context, db *sql.DB, key, value string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("setting value %q: %w", key, err)
	}
	return nil
}

// KV exposes the kv table as snapshot storage for the item store.
type KV struct {
	DB *sql.DB
}

// Get implements items.Storage.
func (s KV) Get(ctx context.Context, key string) (string, bool, error) {
	return GetValue(ctx, s.DB, key)
}

// Set implements items.Storage.
func (s KV) Set(ctx context.Context, key, value string) error {
	return SetValue(ctx, s.DB, key, value)
}
