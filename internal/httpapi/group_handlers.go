package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/arogoff/nas/internal/perm"
)

func (s *Server) handleGroupCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing group name"})
		return
	}

	id, err := s.DB.CreateGroup(r.Context(), req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "group name already taken"})
			return
		}
		s.Logger.Error("create group failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "name": req.Name})
}

func (s *Server) handleGroupAddUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		UserID  int64 `json:"user_id"`
		GroupID int64 `json:"group_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.UserID <= 0 || req.GroupID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing user_id or group_id"})
		return
	}

	if err := s.DB.AddUserToGroup(r.Context(), req.UserID, req.GroupID); err != nil {
		s.Logger.Error("add user to group failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// handleGroupAssignShare grants (or updates) a group's level on a share.
func (s *Server) handleGroupAssignShare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	var req struct {
		ShareID     int64  `json:"share_id"`
		GroupID     int64  `json:"group_id"`
		AccessLevel string `json:"access_level"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ShareID <= 0 || req.GroupID <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing share_id or group_id"})
		return
	}
	level, ok := perm.ParseLevel(req.AccessLevel)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid access_level"})
		return
	}

	if _, ok, err := s.DB.GetShareByID(r.Context(), req.ShareID); err != nil {
		s.Logger.Error("share lookup failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	} else if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "share not found"})
		return
	}

	if err := s.DB.SetShareGroupAccess(r.Context(), req.ShareID, req.GroupID, level.String()); err != nil {
		s.Logger.Error("assign share to group failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}
