// Package session issues, renews, and revokes authentication credentials.
//
// A login yields a stateless short-lived access token plus a refresh
// token whose value is also persisted as a store row. Renewal requires
// both a live row and a valid signature; the refresh token itself is
// never rotated or extended, it stays usable until its own expiry or
// an explicit revoke.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arogoff/nas/internal/auth"
	"github.com/arogoff/nas/internal/db"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenMissing       = errors.New("refresh token required")
	ErrTokenInvalid       = errors.New("invalid refresh token")
	ErrTokenExpired       = errors.New("refresh token expired")
	ErrUserNotFound       = errors.New("user not found")
)

// Issuer owns the refresh_tokens table and all credential minting.
// TTLs and the signing secret are injected at construction.
type Issuer struct {
	DB         *db.DB
	Signer     *auth.TokenSigner
	AccessTTL  time.Duration
	RenewalTTL time.Duration
}

// Credentials is the result of a successful login.
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// Authenticate verifies a username/password pair and mints both
// credentials. An unknown username and a wrong password produce the
// same ErrInvalidCredentials.
func (i *Issuer) Authenticate(ctx context.Context, username, password string) (*Credentials, error) {
	u, ok, err := i.DB.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	okPw, err := auth.VerifyPassword(password, u.PassHash)
	if err != nil || !okPw {
		return nil, ErrInvalidCredentials
	}

	access, err := i.Signer.MintAccess(u.ID, u.Username, u.IsAdmin, i.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("mint access token: %w", err)
	}
	refresh, err := i.Signer.MintRenewal(u.ID, i.RenewalTTL)
	if err != nil {
		return nil, fmt.Errorf("mint refresh token: %w", err)
	}
	if err := i.DB.InsertRefreshToken(ctx, u.ID, refresh, time.Now().Add(i.RenewalTTL)); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}
	return &Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

// Renew exchanges a refresh token for a fresh access token. The row is
// read, never mutated, so concurrent renewals of the same token are
// safe. An expired row is deleted on first sight; the same token then
// fails as invalid rather than expired.
func (i *Issuer) Renew(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrTokenMissing
	}

	row, ok, err := i.DB.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return "", fmt.Errorf("lookup refresh token: %w", err)
	}
	if !ok {
		return "", ErrTokenInvalid
	}
	if row.ExpiresAt < time.Now().Unix() {
		if err := i.DB.DeleteRefreshTokenByID(ctx, row.ID); err != nil {
			return "", fmt.Errorf("delete expired refresh token: %w", err)
		}
		return "", ErrTokenExpired
	}

	claims, err := i.Signer.VerifyRenewal(refreshToken)
	if err != nil {
		return "", ErrTokenInvalid
	}

	// Re-fetch the identity: the user may have been deleted or had the
	// admin flag flipped since the refresh token was issued.
	u, ok, err := i.DB.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", fmt.Errorf("lookup user: %w", err)
	}
	if !ok {
		return "", ErrUserNotFound
	}

	access, err := i.Signer.MintAccess(u.ID, u.Username, u.IsAdmin, i.AccessTTL)
	if err != nil {
		return "", fmt.Errorf("mint access token: %w", err)
	}
	return access, nil
}

// Revoke deletes the matching store row. Revoking an unknown token is
// not an error.
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return i.DB.DeleteRefreshToken(ctx, refreshToken)
}
