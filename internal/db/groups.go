package db

import (
	"context"
	"errors"
)

// CreateGroup inserts a new group and returns its database ID.
func (d *DB) CreateGroup(ctx context.Context, name, description string) (int64, error) {
	if name == "" {
		return 0, errors.New("group name is required")
	}
	res, err := d.sql.ExecContext(ctx, `
INSERT INTO groups(name, description, created_at) VALUES(?, ?, ?)
`, name, description, nowUnix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AddUserToGroup records a membership; repeats are ignored.
func (d *DB) AddUserToGroup(ctx context.Context, userID, groupID int64) error {
	if userID <= 0 || groupID <= 0 {
		return errors.New("invalid id")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT OR IGNORE INTO user_groups(user_id, group_id) VALUES(?, ?)
`, userID, groupID)
	return err
}

// SetShareGroupAccess grants or updates a group's level on a share.
func (d *DB) SetShareGroupAccess(ctx context.Context, shareID, groupID int64, level string) error {
	if shareID <= 0 || groupID <= 0 {
		return errors.New("invalid id")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO share_group_access(share_id, group_id, access_level) VALUES(?, ?, ?)
ON CONFLICT(share_id, group_id) DO UPDATE SET access_level=excluded.access_level
`, shareID, groupID, level)
	return err
}

// GroupShareLevels returns the access levels every one of the user's
// groups holds on the share. The resolver scans all of them; returning
// the full set keeps the decision independent of row order.
func (d *DB) GroupShareLevels(ctx context.Context, userID, shareID int64) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT sga.access_level
FROM share_group_access sga
JOIN user_groups ug ON ug.group_id = sga.group_id
WHERE ug.user_id = ? AND sga.share_id = ?
`, userID, shareID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var lvl string
		if err := rows.Scan(&lvl); err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, rows.Err()
}
