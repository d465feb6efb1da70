// Package webdavserver mounts every share under a WebDAV prefix,
// reusing the same permission resolution as the JSON API.
package webdavserver

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/net/webdav"

	"github.com/arogoff/nas/internal/auth"
	"github.com/arogoff/nas/internal/db"
	"github.com/arogoff/nas/internal/perm"
)

// Handler serves /webdav/{shareID}/... with HTTP basic auth. Read-only
// methods need read access on the share, everything else needs write.
type Handler struct {
	DB     *db.DB
	Perms  *perm.Resolver
	Prefix string
	Logger *slog.Logger

	once sync.Once
	ls   webdav.LockSystem
}

func (h *Handler) lockSystem() webdav.LockSystem {
	h.once.Do(func() {
		h.ls = webdav.NewMemLS()
	})
	return h.ls
}

// requiredLevel maps a DAV method to the share level it needs.
func requiredLevel(method string) perm.Level {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, "PROPFIND":
		return perm.LevelRead
	default:
		return perm.LevelWrite
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	lg := h.Logger
	if lg == nil {
		lg = slog.Default()
	}

	username, password, ok := r.BasicAuth()
	if !ok {
		unauthorized(w)
		return
	}

	u, found, err := h.DB.GetUserByUsername(r.Context(), username)
	if err != nil {
		lg.Error("webdav db error", "err", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !found {
		unauthorized(w)
		return
	}
	okPw, err := auth.VerifyPassword(password, u.PassHash)
	if err != nil || !okPw {
		unauthorized(w)
		return
	}

	prefix := strings.TrimSuffix(h.Prefix, "/")
	rest := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
	idStr, _, _ := strings.Cut(rest, "/")
	shareID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || shareID <= 0 {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	allowed, err := h.Perms.HasAccess(r.Context(), u.ID, shareID, requiredLevel(r.Method))
	if err != nil {
		lg.Error("webdav permission check failed", "err", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !allowed {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	share, found, err := h.DB.GetShareByID(r.Context(), shareID)
	if err != nil {
		lg.Error("webdav share lookup failed", "err", err.Error())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	lg.Debug("webdav authenticated", "user", username, "share_id", shareID, "method", r.Method, "path", r.URL.Path)

	dav := &webdav.Handler{
		Prefix:     prefix + "/" + idStr,
		FileSystem: newDavFS(share.RootPath),
		LockSystem: h.lockSystem(),
		Logger: func(r *http.Request, err error) {
			if err != nil {
				lg.Warn("webdav request error", "method", r.Method, "path", r.URL.Path, "err", err.Error())
			}
		},
	}
	dav.ServeHTTP(w, r)
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="NAS WebDAV"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
