package db

import (
	"context"
	"database/sql"
	"errors"
)

// LogFileActivity records one completed file operation. Callers only
// log after the operation succeeds; denied requests leave no row.
func (d *DB) LogFileActivity(ctx context.Context, shareID, userID int64, action, filename string) error {
	if shareID <= 0 || userID <= 0 || action == "" {
		return errors.New("invalid activity entry")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO file_activity_logs(share_id, user_id, action, filename, created_at)
VALUES(?, ?, ?, ?, ?)
`, shareID, userID, action, filename, nowUnix())
	return err
}

// ListFileActivity returns the most recent activity across all shares.
func (d *DB) ListFileActivity(ctx context.Context, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.sql.QueryContext(ctx, `
SELECT al.id, al.share_id, al.user_id, al.action, al.filename, al.created_at,
       u.username, s.name
FROM file_activity_logs al
JOIN users u ON u.id = al.user_id
JOIN shares s ON s.id = al.share_id
ORDER BY al.created_at DESC, al.id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivity(rows)
}

// ListFileActivityForUser returns the user's own recent activity.
func (d *DB) ListFileActivityForUser(ctx context.Context, userID int64, limit int) ([]ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx, `
SELECT al.id, al.share_id, al.user_id, al.action, al.filename, al.created_at,
       u.username, s.name
FROM file_activity_logs al
JOIN users u ON u.id = al.user_id
JOIN shares s ON s.id = al.share_id
WHERE al.user_id = ?
ORDER BY al.created_at DESC, al.id DESC
LIMIT ?
`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivity(rows)
}

func scanActivity(rows *sql.Rows) ([]ActivityEntry, error) {
	var out []ActivityEntry
	for rows.Next() {
		var e ActivityEntry
		if err := rows.Scan(&e.ID, &e.ShareID, &e.UserID, &e.Action, &e.Filename, &e.CreatedAt, &e.Username, &e.ShareName); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
