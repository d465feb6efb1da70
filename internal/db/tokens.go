package db

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// InsertRefreshToken persists a renewal credential row. Each login
// inserts an independent row; rows are never updated in place.
func (d *DB) InsertRefreshToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	if userID <= 0 || token == "" {
		return errors.New("invalid refresh token")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO refresh_tokens(user_id, token, expires_at, created_at) VALUES(?, ?, ?, ?)
`, userID, token, expiresAt.Unix(), nowUnix())
	return err
}

// GetRefreshToken looks up a renewal credential row by token value.
func (d *DB) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, bool, error) {
	var t RefreshToken
	err := d.sql.QueryRowContext(ctx, `
SELECT id, user_id, token, expires_at, created_at FROM refresh_tokens WHERE token=?
`, token).Scan(&t.ID, &t.UserID, &t.Token, &t.ExpiresAt, &t.CreatedAt)
	if err == nil {
		return &t, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// DeleteRefreshToken removes a row by token value. Deleting a missing
// row is not an error, which makes logout idempotent.
func (d *DB) DeleteRefreshToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("token is required")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token=?`, token)
	return err
}

// DeleteRefreshTokenByID removes a row by primary key.
func (d *DB) DeleteRefreshTokenByID(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid token id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id=?`, id)
	return err
}

// DeleteExpiredRefreshTokens sweeps rows past their expiry.
func (d *DB) DeleteExpiredRefreshTokens(ctx context.Context, now int64) (int64, error) {
	res, err := d.sql.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
