// Package session tests cover the issue/renew/revoke lifecycle.
package session

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/arogoff/nas/internal/auth"
	"github.com/arogoff/nas/internal/db"
)

func testIssuer(t *testing.T) (*Issuer, *db.DB) {
	t.Helper()
	d, err := db.Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })

	signer, err := auth.NewTokenSigner(bytes.Repeat([]byte("s"), 32))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	return &Issuer{
		DB:         d,
		Signer:     signer,
		AccessTTL:  15 * time.Minute,
		RenewalTTL: 7 * 24 * time.Hour,
	}, d
}

func mkUser(t *testing.T, d *db.DB, name, password string, admin bool) int64 {
	t.Helper()
	hash, err := auth.HashPassword(password, auth.DefaultArgon2Params())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	id, err := d.CreateUser(context.Background(), name, hash, admin)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return id
}

// TestAuthenticateAndRenew walks the happy path: login, then exchange
// the refresh token for a fresh access token carrying the identity.
func TestAuthenticateAndRenew(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	uid := mkUser(t, d, "alice", "hunter2longer", true)

	creds, err := iss.Authenticate(ctx, "alice", "hunter2longer")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	claims, err := iss.Signer.VerifyAccess(creds.AccessToken)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != uid || claims.Username != "alice" || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	access, err := iss.Renew(ctx, creds.RefreshToken)
	if err != nil {
		t.Fatalf("Renew: %v", err)
	}
	claims, err = iss.Signer.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess(renewed): %v", err)
	}
	if claims.UserID != uid {
		t.Fatalf("renewed UserID=%d, want %d", claims.UserID, uid)
	}

	// Renewal does not rotate: the same refresh token keeps working.
	if _, err := iss.Renew(ctx, creds.RefreshToken); err != nil {
		t.Fatalf("Renew(repeat): %v", err)
	}
}

// TestAuthenticateRejectsBadCredentials returns the same error for an
// unknown user and a wrong password.
func TestAuthenticateRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	mkUser(t, d, "alice", "hunter2longer", false)

	_, err := iss.Authenticate(ctx, "nobody", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v", err)
	}
	_, err = iss.Authenticate(ctx, "alice", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v", err)
	}
}

// TestRenewMissingToken maps an empty token to ErrTokenMissing.
func TestRenewMissingToken(t *testing.T) {
	iss, _ := testIssuer(t)
	if _, err := iss.Renew(context.Background(), ""); !errors.Is(err, ErrTokenMissing) {
		t.Fatalf("got %v, want ErrTokenMissing", err)
	}
}

// TestRenewUnknownToken maps a token with no row to ErrTokenInvalid,
// even when its signature would verify.
func TestRenewUnknownToken(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	uid := mkUser(t, d, "alice", "hunter2longer", false)

	tok, err := iss.Signer.MintRenewal(uid, time.Hour)
	if err != nil {
		t.Fatalf("MintRenewal: %v", err)
	}
	if _, err := iss.Renew(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

// TestRenewExpiredRowDeletesIt returns ErrTokenExpired once, then the
// deleted row makes the same token invalid.
func TestRenewExpiredRowDeletesIt(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	uid := mkUser(t, d, "alice", "hunter2longer", false)

	tok, err := iss.Signer.MintRenewal(uid, time.Hour)
	if err != nil {
		t.Fatalf("MintRenewal: %v", err)
	}
	if err := d.InsertRefreshToken(ctx, uid, tok, time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}

	if _, err := iss.Renew(ctx, tok); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("first renew: got %v, want ErrTokenExpired", err)
	}
	if _, err := iss.Renew(ctx, tok); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("second renew: got %v, want ErrTokenInvalid", err)
	}
}

// TestRenewBadSignature rejects a tampered token that still has a row.
func TestRenewBadSignature(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	uid := mkUser(t, d, "alice", "hunter2longer", false)

	// A row whose value is not a validly signed token.
	if err := d.InsertRefreshToken(ctx, uid, "forged-token", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}
	if _, err := iss.Renew(ctx, "forged-token"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid", err)
	}
}

// TestRenewDeletedUser maps a vanished identity to ErrUserNotFound.
func TestRenewDeletedUser(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	uid := mkUser(t, d, "alice", "hunter2longer", false)

	tok, err := iss.Signer.MintRenewal(uid, time.Hour)
	if err != nil {
		t.Fatalf("MintRenewal: %v", err)
	}
	if err := d.InsertRefreshToken(ctx, uid, tok, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}
	// Deleting the user cascades the row away, so re-insert it under a
	// second user to keep the row while the identity is gone.
	other := mkUser(t, d, "keeper", "hunter2longer", false)
	if err := d.DeleteUser(ctx, uid); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if err := d.InsertRefreshToken(ctx, other, tok, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("InsertRefreshToken: %v", err)
	}

	if _, err := iss.Renew(ctx, tok); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

// TestRevoke invalidates the refresh token and tolerates repeats.
func TestRevoke(t *testing.T) {
	ctx := context.Background()
	iss, d := testIssuer(t)
	mkUser(t, d, "alice", "hunter2longer", false)

	creds, err := iss.Authenticate(ctx, "alice", "hunter2longer")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := iss.Revoke(ctx, creds.RefreshToken); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := iss.Renew(ctx, creds.RefreshToken); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("got %v, want ErrTokenInvalid after revoke", err)
	}
	if err := iss.Revoke(ctx, creds.RefreshToken); err != nil {
		t.Fatalf("Revoke(repeat): %v", err)
	}
	if err := iss.Revoke(ctx, ""); err != nil {
		t.Fatalf("Revoke(empty): %v", err)
	}
}
