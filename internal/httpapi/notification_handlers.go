package httpapi

import (
	"net/http"
	"strconv"
	"strings"
)

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	ident := identityFrom(r)
	notes, err := s.DB.ListNotifications(r.Context(), ident.ID, queryLimit(r))
	if err != nil {
		s.Logger.Error("list notifications failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	type item struct {
		ID        int64  `json:"id"`
		Message   string `json:"message"`
		CreatedAt int64  `json:"created_at"`
	}
	out := make([]item, 0, len(notes))
	for _, n := range notes {
		out = append(out, item{ID: n.ID, Message: n.Message, CreatedAt: n.CreatedAt})
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

// handleNotificationByID serves DELETE /api/notifications/{id}. Users
// can only remove their own rows.
func (s *Server) handleNotificationByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/notifications/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid notification id"})
		return
	}
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	ident := identityFrom(r)
	removed, err := s.DB.DeleteNotification(r.Context(), id, ident.ID)
	if err != nil {
		s.Logger.Error("delete notification failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	if !removed {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}
