package auth

import (
	"bytes"
	"testing"
	"time"
)

func testSigner(t *testing.T) *TokenSigner {
	t.Helper()
	s, err := NewTokenSigner(bytes.Repeat([]byte("k"), 32))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	return s
}

// TestNewTokenSignerRejectsShortSecret enforces the minimum secret size.
func TestNewTokenSignerRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenSigner([]byte("short")); err == nil {
		t.Fatalf("expected short secret to be rejected")
	}
}

// TestAccessTokenRoundTrip checks that claims survive mint and verify.
func TestAccessTokenRoundTrip(t *testing.T) {
	s := testSigner(t)
	tok, err := s.MintAccess(42, "alice", true, time.Minute)
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	claims, err := s.VerifyAccess(tok)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "alice" || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

// TestVerifyAccessRejectsExpired rejects a token past its expiry.
func TestVerifyAccessRejectsExpired(t *testing.T) {
	s := testSigner(t)
	tok, err := s.MintAccess(1, "bob", false, -time.Minute)
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	if _, err := s.VerifyAccess(tok); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

// TestVerifyRejectsForeignSignature rejects tokens from another secret.
func TestVerifyRejectsForeignSignature(t *testing.T) {
	s := testSigner(t)
	other, err := NewTokenSigner(bytes.Repeat([]byte("x"), 32))
	if err != nil {
		t.Fatalf("NewTokenSigner: %v", err)
	}
	tok, err := other.MintRenewal(7, time.Minute)
	if err != nil {
		t.Fatalf("MintRenewal: %v", err)
	}
	if _, err := s.VerifyRenewal(tok); err == nil {
		t.Fatalf("expected foreign signature to fail")
	}
}

// TestRenewalTokenRoundTrip checks that the user id survives the trip.
func TestRenewalTokenRoundTrip(t *testing.T) {
	s := testSigner(t)
	tok, err := s.MintRenewal(9, time.Hour)
	if err != nil {
		t.Fatalf("MintRenewal: %v", err)
	}
	claims, err := s.VerifyRenewal(tok)
	if err != nil {
		t.Fatalf("VerifyRenewal: %v", err)
	}
	if claims.UserID != 9 {
		t.Fatalf("UserID=%d, want 9", claims.UserID)
	}
}
