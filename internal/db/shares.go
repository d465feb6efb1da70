package db

import (
	"context"
	"database/sql"
	"errors"
)

// CreateShare inserts the share row and the creator's owner grant in a
// single transaction. rootFor computes the share's root path from the
// freshly assigned ID; the path is recorded before commit so a crash
// leaves either the whole share or nothing.
func (d *DB) CreateShare(ctx context.Context, name string, createdBy int64, rootFor func(id int64) string) (*Share, error) {
	if name == "" {
		return nil, errors.New("share name is required")
	}
	if createdBy <= 0 {
		return nil, errors.New("invalid creator id")
	}
	if rootFor == nil {
		return nil, errors.New("root path function is required")
	}

	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := nowUnix()
	res, err := tx.ExecContext(ctx, `
INSERT INTO shares(name, root_path, created_by, created_at) VALUES(?, '', ?, ?)
`, name, createdBy, now)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	root := rootFor(id)
	if root == "" {
		return nil, errors.New("empty share root path")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE shares SET root_path=? WHERE id=?`, root, id); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
INSERT INTO share_user_access(share_id, user_id, access_level) VALUES(?, ?, 'owner')
`, id, createdBy); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Share{ID: id, Name: name, RootPath: root, CreatedBy: createdBy, CreatedAt: now}, nil
}

// GetShareByID looks up a share by ID.
func (d *DB) GetShareByID(ctx context.Context, id int64) (*Share, bool, error) {
	var s Share
	err := d.sql.QueryRowContext(ctx, `
SELECT id, name, root_path, created_by, created_at FROM shares WHERE id=?
`, id).Scan(&s.ID, &s.Name, &s.RootPath, &s.CreatedBy, &s.CreatedAt)
	if err == nil {
		return &s, true, nil
	}
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	return nil, false, err
}

// ListSharesForUser returns every share the user can reach through a
// direct grant or through any group membership.
func (d *DB) ListSharesForUser(ctx context.Context, userID int64) ([]Share, error) {
	rows, err := d.sql.QueryContext(ctx, `
SELECT DISTINCT s.id, s.name, s.root_path, s.created_by, s.created_at
FROM shares s
LEFT JOIN share_user_access sua ON sua.share_id = s.id AND sua.user_id = ?
LEFT JOIN share_group_access sga ON sga.share_id = s.id
LEFT JOIN user_groups ug ON ug.group_id = sga.group_id AND ug.user_id = ?
WHERE sua.user_id IS NOT NULL OR ug.user_id IS NOT NULL
ORDER BY s.id ASC
`, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Share
	for rows.Next() {
		var s Share
		if err := rows.Scan(&s.ID, &s.Name, &s.RootPath, &s.CreatedBy, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteShare removes a share; access rows and activity cascade.
func (d *DB) DeleteShare(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid share id")
	}
	_, err := d.sql.ExecContext(ctx, `DELETE FROM shares WHERE id=?`, id)
	return err
}

// SetShareUserAccess grants or updates a user's level on a share.
func (d *DB) SetShareUserAccess(ctx context.Context, shareID, userID int64, level string) error {
	if shareID <= 0 || userID <= 0 {
		return errors.New("invalid id")
	}
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO share_user_access(share_id, user_id, access_level) VALUES(?, ?, ?)
ON CONFLICT(share_id, user_id) DO UPDATE SET access_level=excluded.access_level
`, shareID, userID, level)
	return err
}

// UserShareLevel returns the user's direct access level on a share.
func (d *DB) UserShareLevel(ctx context.Context, userID, shareID int64) (string, bool, error) {
	var lvl string
	err := d.sql.QueryRowContext(ctx, `
SELECT access_level FROM share_user_access WHERE user_id=? AND share_id=?
`, userID, shareID).Scan(&lvl)
	if err == nil {
		return lvl, true, nil
	}
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	return "", false, err
}
