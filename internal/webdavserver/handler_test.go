// Package webdavserver tests cover auth and method-level permissions.
package webdavserver

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/arogoff/nas/internal/auth"
	"github.com/arogoff/nas/internal/db"
	"github.com/arogoff/nas/internal/perm"
)

func testHandler(t *testing.T) (*Handler, *db.DB) {
	t.Helper()
	d, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	h := &Handler{
		DB:     d,
		Perms:  &perm.Resolver{DB: d},
		Prefix: "/webdav",
		Logger: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})),
	}
	return h, d
}

func mkUser(t *testing.T, d *db.DB, name, password string) int64 {
	t.Helper()
	hash, err := auth.HashPassword(password, auth.DefaultArgon2Params())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	id, err := d.CreateUser(context.Background(), name, hash, false)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

func mkShare(t *testing.T, d *db.DB, owner int64) *db.Share {
	t.Helper()
	base := t.TempDir()
	sh, err := d.CreateShare(context.Background(), "docs", owner, func(id int64) string {
		return filepath.Join(base, strconv.FormatInt(id, 10))
	})
	if err != nil {
		t.Fatalf("CreateShare: %v", err)
	}
	if err := os.MkdirAll(sh.RootPath, 0o700); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	return sh
}

// TestRequiresBasicAuth challenges anonymous and wrong-password requests.
func TestRequiresBasicAuth(t *testing.T) {
	h, d := testHandler(t)
	owner := mkUser(t, d, "alice", "hunter2longer")
	sh := mkShare(t, d, owner)
	path := "/webdav/" + strconv.FormatInt(sh.ID, 10) + "/"

	r := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 401 || w.Header().Get("WWW-Authenticate") == "" {
		t.Fatalf("anonymous status=%d", w.Code)
	}

	r = httptest.NewRequest("GET", path, nil)
	r.SetBasicAuth("alice", "wrong")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 401 {
		t.Fatalf("wrong password status=%d", w.Code)
	}
}

// TestReadGrantServesButRejectsWrites checks the method-to-level map.
func TestReadGrantServesButRejectsWrites(t *testing.T) {
	h, d := testHandler(t)
	owner := mkUser(t, d, "alice", "hunter2longer")
	sh := mkShare(t, d, owner)
	if err := os.WriteFile(filepath.Join(sh.RootPath, "a.txt"), []byte("dav"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	bob := mkUser(t, d, "bob", "hunter2longer")
	if err := d.SetShareUserAccess(context.Background(), sh.ID, bob, "read"); err != nil {
		t.Fatalf("SetShareUserAccess: %v", err)
	}
	base := "/webdav/" + strconv.FormatInt(sh.ID, 10)

	r := httptest.NewRequest("GET", base+"/a.txt", nil)
	r.SetBasicAuth("bob", "hunter2longer")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 200 || w.Body.String() != "dav" {
		t.Fatalf("read status=%d body=%q", w.Code, w.Body.String())
	}

	r = httptest.NewRequest("PUT", base+"/b.txt", strings.NewReader("no"))
	r.SetBasicAuth("bob", "hunter2longer")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 403 {
		t.Fatalf("put status=%d, want 403", w.Code)
	}
}

// TestUngrantedShareIsForbidden denies users with no grant at all.
func TestUngrantedShareIsForbidden(t *testing.T) {
	h, d := testHandler(t)
	owner := mkUser(t, d, "alice", "hunter2longer")
	sh := mkShare(t, d, owner)
	mkUser(t, d, "mallory", "hunter2longer")

	r := httptest.NewRequest("GET", "/webdav/"+strconv.FormatInt(sh.ID, 10)+"/", nil)
	r.SetBasicAuth("mallory", "hunter2longer")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != 403 {
		t.Fatalf("status=%d, want 403", w.Code)
	}
}
