// Package db tests verify store CRUD behavior.
package db

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	d, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// TestUserRoundTrip ensures the admin flag survives storage.
func TestUserRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	id, err := d.CreateUser(ctx, "alice", "hash", true)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	u, ok, err := d.GetUserByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername: %v", err)
	}
	if !ok || u.ID != id || !u.IsAdmin {
		t.Fatalf("unexpected user: ok=%v %+v", ok, u)
	}
	if _, ok, _ := d.GetUserByID(ctx, id+100); ok {
		t.Fatalf("expected missing user")
	}
}

// TestCreateShareGrantsOwner checks the transactional share create:
// the row, its root path, and the creator's owner grant appear together.
func TestCreateShareGrantsOwner(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	uid, err := d.CreateUser(ctx, "alice", "hash", false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	base := t.TempDir()
	sh, err := d.CreateShare(ctx, "docs", uid, func(id int64) string {
		return filepath.Join(base, strconv.FormatInt(id, 10))
	})
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	if sh.RootPath != filepath.Join(base, strconv.FormatInt(sh.ID, 10)) {
		t.Fatalf("unexpected root path %q", sh.RootPath)
	}

	lvl, ok, err := d.UserShareLevel(ctx, uid, sh.ID)
	if err != nil {
		t.Fatalf("UserShareLevel: %v", err)
	}
	if !ok || lvl != "owner" {
		t.Fatalf("creator grant missing: ok=%v lvl=%q", ok, lvl)
	}

	got, ok, err := d.GetShareByID(ctx, sh.ID)
	if err != nil || !ok {
		t.Fatalf("GetShareByID: ok=%v err=%v", ok, err)
	}
	if got.RootPath != sh.RootPath {
		t.Fatalf("persisted root %q != %q", got.RootPath, sh.RootPath)
	}
}

// TestListSharesForUser covers direct and group reachability.
func TestListSharesForUser(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	alice, _ := d.CreateUser(ctx, "alice", "hash", false)
	bob, _ := d.CreateUser(ctx, "bob", "hash", false)
	base := t.TempDir()
	rootFor := func(id int64) string { return filepath.Join(base, strconv.FormatInt(id, 10)) }

	s1, err := d.CreateShare(ctx, "one", alice, rootFor)
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	s2, err := d.CreateShare(ctx, "two", alice, rootFor)
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	// bob reaches s2 only through a group.
	gid, err := d.CreateGroup(ctx, "team", "")
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if err := d.AddUserToGroup(ctx, bob, gid); err != nil {
		t.Fatalf("AddUserToGroup: %v", err)
	}
	if err := d.SetShareGroupAccess(ctx, s2.ID, gid, "read"); err != nil {
		t.Fatalf("SetShareGroupAccess: %v", err)
	}

	got, err := d.ListSharesForUser(ctx, bob)
	if err != nil {
		t.Fatalf("ListSharesForUser: %v", err)
	}
	if len(got) != 1 || got[0].ID != s2.ID {
		t.Fatalf("bob should see only share two, got %+v", got)
	}

	got, err = d.ListSharesForUser(ctx, alice)
	if err != nil {
		t.Fatalf("ListSharesForUser: %v", err)
	}
	if len(got) != 2 || got[0].ID != s1.ID {
		t.Fatalf("alice should see both shares, got %+v", got)
	}
}

// TestRefreshTokenLifecycle covers insert, lookup, delete, and sweep.
func TestRefreshTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	uid, _ := d.CreateUser(ctx, "alice", "hash", false)
	if err := d.InsertRefreshToken(ctx, uid, "tok-live", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}
	if err := d.InsertRefreshToken(ctx, uid, "tok-dead", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}

	row, ok, err := d.GetRefreshToken(ctx, "tok-live")
	if err != nil || !ok {
		t.Fatalf("GetRefreshToken: ok=%v err=%v", ok, err)
	}
	if row.UserID != uid {
		t.Fatalf("UserID=%d, want %d", row.UserID, uid)
	}

	n, err := d.DeleteExpiredRefreshTokens(ctx, time.Now().Unix())
	if err != nil {
		t.Fatalf("DeleteExpiredRefreshTokens: %v", err)
	}
	if n != 1 {
		t.Fatalf("swept %d rows, want 1", n)
	}
	if _, ok, _ := d.GetRefreshToken(ctx, "tok-dead"); ok {
		t.Fatalf("expired row should be gone")
	}

	if err := d.DeleteRefreshToken(ctx, "tok-live"); err != nil {
		t.Fatalf("DeleteRefreshToken: %v", err)
	}
	// Idempotent: deleting again is not an error.
	if err := d.DeleteRefreshToken(ctx, "tok-live"); err != nil {
		t.Fatalf("DeleteRefreshToken(repeat): %v", err)
	}
}

// TestDeleteUserCascades removes grants and tokens with the user.
func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	alice, _ := d.CreateUser(ctx, "alice", "hash", false)
	bob, _ := d.CreateUser(ctx, "bob", "hash", false)
	base := t.TempDir()
	sh, err := d.CreateShare(ctx, "docs", alice, func(id int64) string {
		return filepath.Join(base, strconv.FormatInt(id, 10))
	})
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	if err := d.SetShareUserAccess(ctx, sh.ID, bob, "write"); err != nil {
		t.Fatalf("SetShareUserAccess: %v", err)
	}
	if err := d.InsertRefreshToken(ctx, bob, "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}

	if err := d.DeleteUser(ctx, bob); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, ok, _ := d.UserShareLevel(ctx, bob, sh.ID); ok {
		t.Fatalf("grant should cascade away")
	}
	if _, ok, _ := d.GetRefreshToken(ctx, "tok"); ok {
		t.Fatalf("token should cascade away")
	}
}

// TestNotificationOwnership keeps users from deleting other users' rows.
func TestNotificationOwnership(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	alice, _ := d.CreateUser(ctx, "alice", "hash", false)
	bob, _ := d.CreateUser(ctx, "bob", "hash", false)
	if err := d.AddNotification(ctx, alice, "hello"); err != nil {
		t.Fatalf("AddNotification: %v", err)
	}
	notes, err := d.ListNotifications(ctx, alice, 0)
	if err != nil || len(notes) != 1 {
		t.Fatalf("ListNotifications: len=%d err=%v", len(notes), err)
	}

	removed, err := d.DeleteNotification(ctx, notes[0].ID, bob)
	if err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}
	if removed {
		t.Fatalf("bob must not delete alice's notification")
	}
	removed, err = d.DeleteNotification(ctx, notes[0].ID, alice)
	if err != nil || !removed {
		t.Fatalf("owner delete failed: removed=%v err=%v", removed, err)
	}
}

// TestConfigRoundTrip covers the key/value store and the init flag.
func TestConfigRoundTrip(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	if _, ok, _ := d.GetConfig(ctx, "jwt_secret"); ok {
		t.Fatalf("expected missing key")
	}
	if err := d.SetConfig(ctx, "jwt_secret", "abc"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}
	if err := d.SetConfig(ctx, "jwt_secret", "def"); err != nil {
		t.Fatalf("SetConfig(update): %v", err)
	}
	v, ok, err := d.GetConfig(ctx, "jwt_secret")
	if err != nil || !ok || v != "def" {
		t.Fatalf("GetConfig: v=%q ok=%v err=%v", v, ok, err)
	}

	init, err := d.IsInitialized(ctx)
	if err != nil || init {
		t.Fatalf("fresh db should not be initialized")
	}
	if err := d.SetInitialized(ctx); err != nil {
		t.Fatalf("SetInitialized: %v", err)
	}
	init, err = d.IsInitialized(ctx)
	if err != nil || !init {
		t.Fatalf("db should be initialized")
	}
}

// TestFileActivityQueries covers the admin and per-user listings.
func TestFileActivityQueries(t *testing.T) {
	ctx := context.Background()
	d := testDB(t)

	alice, _ := d.CreateUser(ctx, "alice", "hash", false)
	bob, _ := d.CreateUser(ctx, "bob", "hash", false)
	base := t.TempDir()
	sh, err := d.CreateShare(ctx, "docs", alice, func(id int64) string {
		return filepath.Join(base, strconv.FormatInt(id, 10))
	})
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}

	if err := d.LogFileActivity(ctx, sh.ID, alice, "upload", "a.txt"); err != nil {
		t.Fatalf("LogFileActivity: %v", err)
	}
	if err := d.LogFileActivity(ctx, sh.ID, bob, "download", "a.txt"); err != nil {
		t.Fatalf("LogFileActivity: %v", err)
	}

	all, err := d.ListFileActivity(ctx, 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("ListFileActivity: len=%d err=%v", len(all), err)
	}
	if all[0].Username == "" || all[0].ShareName != "docs" {
		t.Fatalf("joined names missing: %+v", all[0])
	}

	mine, err := d.ListFileActivityForUser(ctx, bob, 0)
	if err != nil || len(mine) != 1 || mine[0].Action != "download" {
		t.Fatalf("ListFileActivityForUser: %+v err=%v", mine, err)
	}
}
