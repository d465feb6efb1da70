package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/arogoff/nas/internal/db"
	"github.com/arogoff/nas/internal/perm"
	"github.com/arogoff/nas/internal/validate"
)

func (s *Server) handleShares(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleShareList(w, r)
	case http.MethodPost:
		s.handleShareCreate(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	}
}

func (s *Server) handleShareList(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	shares, err := s.DB.ListSharesForUser(r.Context(), ident.ID)
	if err != nil {
		s.Logger.Error("list shares failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	type item struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	out := make([]item, 0, len(shares))
	for _, sh := range shares {
		out = append(out, item{ID: sh.ID, Name: sh.Name})
	}
	writeJSON(w, http.StatusOK, map[string]any{"shares": out})
}

func (s *Server) handleShareCreate(w http.ResponseWriter, r *http.Request) {
	ident := identityFrom(r)
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if err := validate.ShareName(req.Name); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	// Share row and creator's owner grant commit together; the root
	// directory is provisioned after the row exists.
	share, err := s.DB.CreateShare(r.Context(), strings.TrimSpace(req.Name), ident.ID, func(id int64) string {
		return filepath.Join(s.SharesDir, strconv.FormatInt(id, 10))
	})
	if err != nil {
		s.Logger.Error("create share failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	if err := os.MkdirAll(share.RootPath, 0o700); err != nil {
		s.Logger.Error("provision share root failed", "share_id", share.ID, "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": share.ID, "name": share.Name})
}

// handleShareSubtree dispatches /api/shares/{id}[/...] requests.
func (s *Server) handleShareSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/shares/")
	parts := strings.Split(rest, "/")
	if len(parts) < 1 || parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	shareID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || shareID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid share id"})
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		s.handleShareDelete(w, r, shareID)
	case parts[1] == "add-user" && len(parts) == 2:
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
			return
		}
		s.handleShareAddUser(w, r, shareID)
	case parts[1] == "files":
		s.handleShareFiles(w, r, shareID, parts[2:])
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleShareDelete(w http.ResponseWriter, r *http.Request, shareID int64) {
	if !identityFrom(r).IsAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admins only"})
		return
	}
	if err := s.DB.DeleteShare(r.Context(), shareID); err != nil {
		s.Logger.Error("delete share failed", "share_id", shareID, "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	// Files on disk are kept; removing them is an operator decision.
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

func (s *Server) handleShareAddUser(w http.ResponseWriter, r *http.Request, shareID int64) {
	ident := identityFrom(r)
	var req struct {
		UserID      int64  `json:"user_id"`
		AccessLevel string `json:"access_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id"})
		return
	}
	if req.AccessLevel == "" {
		req.AccessLevel = "write"
	}
	level, ok := perm.ParseLevel(req.AccessLevel)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid access_level"})
		return
	}

	// Only the share's owner (or an admin) may extend access.
	if !ident.IsAdmin {
		allowed, err := s.Perms.HasAccess(r.Context(), ident.ID, shareID, perm.LevelOwner)
		if err != nil {
			s.Logger.Error("permission check failed", "err", err.Error())
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
			return
		}
		if !allowed {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "no permission to modify this share"})
			return
		}
	}

	share, ok, err := s.DB.GetShareByID(r.Context(), shareID)
	if err != nil {
		s.Logger.Error("share lookup failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "share not found"})
		return
	}

	if err := s.DB.SetShareUserAccess(r.Context(), shareID, req.UserID, level.String()); err != nil {
		s.Logger.Error("set share access failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	msg := fmt.Sprintf("You were granted %s access to share %q", level, share.Name)
	if err := s.DB.AddNotification(r.Context(), req.UserID, msg); err != nil {
		s.Logger.Warn("notification insert failed", "err", err.Error())
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// shareForAccess loads the share and enforces the required level for
// the caller. It writes the error response itself when returning nil.
func (s *Server) shareForAccess(w http.ResponseWriter, r *http.Request, shareID int64, required perm.Level) *db.Share {
	ident := identityFrom(r)
	allowed, err := s.Perms.HasAccess(r.Context(), ident.ID, shareID, required)
	if err != nil {
		s.Logger.Error("permission check failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return nil
	}
	if !allowed {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "no permission for this share"})
		return nil
	}
	share, ok, err := s.DB.GetShareByID(r.Context(), shareID)
	if err != nil {
		s.Logger.Error("share lookup failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return nil
	}
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "share not found"})
		return nil
	}
	return share
}
