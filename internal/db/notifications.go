package db

import (
	"context"
	"errors"
)

// AddNotification inserts a message row for a user.
func (d *DB) AddNotification(ctx context.Context, userID int64, message string) error {
	if userID <= 0 || message == "" {
		return errors.New("invalid notification")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO notifications(user_id, message, created_at) VALUES(?, ?, ?)
`, userID, message, nowUnix())
	return err
}

// ListNotifications returns the user's most recent notifications.
func (d *DB) ListNotifications(ctx context.Context, userID int64, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.sql.QueryContext(ctx, `
SELECT id, user_id, message, created_at FROM notifications
WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// DeleteNotification removes a notification owned by the user. It
// reports whether a row was actually removed.
func (d *DB) DeleteNotification(ctx context.Context, id, userID int64) (bool, error) {
	if id <= 0 || userID <= 0 {
		return false, errors.New("invalid id")
	}
	res, err := d.sql.ExecContext(ctx, `DELETE FROM notifications WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
