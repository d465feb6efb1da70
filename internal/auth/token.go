package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of a short-lived access token. The
// identity fields are re-derived from these claims on every request;
// nothing server-side backs an access token.
type AccessClaims struct {
	UserID   int64  `json:"uid"`
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// RenewalClaims is the payload of a long-lived refresh token. Refresh
// tokens are additionally tracked in the refresh_tokens table; the
// signature alone is not sufficient to renew.
type RenewalClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies HS256 tokens with a shared secret.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner validates the secret and returns a signer.
func NewTokenSigner(secret []byte) (*TokenSigner, error) {
	if len(secret) < 32 {
		return nil, errors.New("token secret must be at least 32 bytes")
	}
	return &TokenSigner{secret: secret}, nil
}

// MintAccess issues an access token for the given identity.
func (s *TokenSigner) MintAccess(userID int64, username string, isAdmin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID:   userID,
		Username: username,
		IsAdmin:  isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyAccess checks signature and expiry and returns the claims.
func (s *TokenSigner) VerifyAccess(token string) (*AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

// MintRenewal issues a refresh token embedding only the user id.
func (s *TokenSigner) MintRenewal(userID int64, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := RenewalClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyRenewal checks signature and expiry and returns the claims.
func (s *TokenSigner) VerifyRenewal(token string) (*RenewalClaims, error) {
	var claims RenewalClaims
	if err := s.parse(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (s *TokenSigner) parse(token string, claims jwt.Claims) error {
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return err
	}
	if !tok.Valid {
		return errors.New("token invalid")
	}
	return nil
}
