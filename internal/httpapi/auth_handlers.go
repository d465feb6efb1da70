package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arogoff/nas/internal/session"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing credentials"})
		return
	}

	creds, err := s.Sessions.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		// Unknown username and wrong password are indistinguishable.
		if errors.Is(err, session.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid username or password"})
			return
		}
		s.Logger.Error("login failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"accessToken":  creds.AccessToken,
		"refreshToken": creds.RefreshToken,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	access, err := s.Sessions.Renew(r.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrTokenMissing):
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "refresh token required"})
		case errors.Is(err, session.ErrTokenExpired):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "refresh token expired"})
		case errors.Is(err, session.ErrTokenInvalid), errors.Is(err, session.ErrUserNotFound):
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid refresh token"})
		default:
			s.Logger.Error("token refresh failed", "err", err.Error())
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	// Revocation is idempotent; logout always succeeds for the caller.
	if err := s.Sessions.Revoke(r.Context(), req.RefreshToken); err != nil {
		s.Logger.Warn("logout revoke failed", "err", err.Error())
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}
