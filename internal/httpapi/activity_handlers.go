package httpapi

import (
	"net/http"
	"strconv"

	"github.com/arogoff/nas/internal/db"
)

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	entries, err := s.DB.ListFileActivity(r.Context(), queryLimit(r))
	if err != nil {
		s.Logger.Error("list activity failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": activityItems(entries)})
}

func (s *Server) handleMyActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	ident := identityFrom(r)
	entries, err := s.DB.ListFileActivityForUser(r.Context(), ident.ID, queryLimit(r))
	if err != nil {
		s.Logger.Error("list my activity failed", "err", err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "server error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": activityItems(entries)})
}

type activityItem struct {
	ID        int64  `json:"id"`
	ShareID   int64  `json:"share_id"`
	ShareName string `json:"share_name"`
	Username  string `json:"username"`
	Action    string `json:"action"`
	Filename  string `json:"filename"`
	CreatedAt int64  `json:"created_at"`
}

func activityItems(entries []db.ActivityEntry) []activityItem {
	out := make([]activityItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityItem{
			ID:        e.ID,
			ShareID:   e.ShareID,
			ShareName: e.ShareName,
			Username:  e.Username,
			Action:    e.Action,
			Filename:  e.Filename,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

// queryLimit parses an optional ?limit=; zero lets the store pick its
// default.
func queryLimit(r *http.Request) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 || n > 1000 {
		return 0
	}
	return n
}
