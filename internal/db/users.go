package db

import (
	"context"
	"database/sql"
	"errors"
)

// CreateUser inserts a new user and returns its database ID.
func (d *DB) CreateUser(ctx context.Context, username, passHash string, isAdmin bool) (int64, error) {
	if username == "" || passHash == "" {
		return 0, errors.New("username and password hash are required")
	}
	res, err := d.sql.ExecContext(ctx, `
INSERT INTO users(username, password_hash, is_admin, created_at) VALUES(?, ?, ?, ?)
`, username, passHash, boolToInt(isAdmin), nowUnix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByUsername looks up a user by username.
func (d *DB) GetUserByUsername(ctx context.Context, username string) (*User, bool, error) {
	return d.getUser(ctx, `
SELECT id, username, password_hash, is_admin, created_at FROM users WHERE username=?
`, username)
}

// GetUserByID looks up a user by ID.
func (d *DB) GetUserByID(ctx context.Context, id int64) (*User, bool, error) {
	return d.getUser(ctx, `
SELECT id, username, password_hash, is_admin, created_at FROM users WHERE id=?
`, id)
}

func (d *DB) getUser(ctx context.Context, query string, arg any) (*User, bool, error) {
	var u User
	var isAdmin int
	err := d.sql.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PassHash, &isAdmin, &u.CreatedAt)
	if err == nil {
		u.IsAdmin = isAdmin != 0
		return &u, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListUsers returns all users sorted by username.
func (d *DB) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, username, password_hash, is_admin, created_at FROM users ORDER BY username ASC
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var isAdmin int
		if err := rows.Scan(&u.ID, &u.Username, &u.PassHash, &isAdmin, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.IsAdmin = isAdmin != 0
		out = append(out, u)
	}
	return out, rows.Err()
}

// DeleteUser removes a user; grants, tokens, and memberships cascade.
func (d *DB) DeleteUser(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM users WHERE id=?`, id)
	return err
}

// boolToInt maps booleans to SQLite-friendly integer flags.
func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
