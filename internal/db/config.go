package db

import (
	"context"
	"database/sql"
	"errors"
)

// GetConfig fetches a single config key. The boolean reports existence.
func (d *DB) GetConfig(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := d.sql.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&v)
	if err == nil {
		return v, true, nil
	}
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	return "", false, err
}

// SetConfig upserts a config key/value pair.
func (d *DB) SetConfig(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("config key is required")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO config(key, value, updated_at) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value, nowUnix())
	return err
}

// IsInitialized reports whether setup has completed.
func (d *DB) IsInitialized(ctx context.Context) (bool, error) {
	v, ok, err := d.GetConfig(ctx, "initialized")
	if err != nil {
		return false, err
	}
	return ok && v == "1", nil
}

// SetInitialized marks the database as setup-complete.
func (d *DB) SetInitialized(ctx context.Context) error {
	return d.SetConfig(ctx, "initialized", "1")
}
