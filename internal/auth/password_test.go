// Package auth tests cover password hashing and token minting.
package auth

import "testing"

// TestHashAndVerifyPassword validates positive and negative password checks.
func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("secret", DefaultArgon2Params())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	ok, err := VerifyPassword("secret", h)
	if err != nil {
		t.Fatalf("VerifyPassword: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify")
	}

	ok, err = VerifyPassword("wrong", h)
	if err != nil {
		t.Fatalf("VerifyPassword(wrong): %v", err)
	}
	if ok {
		t.Fatalf("expected wrong password to fail")
	}
}

// TestVerifyPasswordRejectsMalformedHash rejects non-PHC strings.
func TestVerifyPasswordRejectsMalformedHash(t *testing.T) {
	for _, bad := range []string{"", "plaintext", "argon2id$broken", "$argon2i$v=19$m=1,t=1,p=1$x$y"} {
		if ok, err := VerifyPassword("secret", bad); err == nil && ok {
			t.Fatalf("hash %q should not verify", bad)
		}
	}
}
