// Package httpapi serves the JSON API and composes authentication,
// permission resolution, and path sandboxing in front of every file
// and share operation.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/arogoff/nas/internal/auth"
	"github.com/arogoff/nas/internal/db"
	"github.com/arogoff/nas/internal/perm"
	"github.com/arogoff/nas/internal/session"
)

type Server struct {
	DB       *db.DB
	Signer   *auth.TokenSigner
	Sessions *session.Issuer
	Perms    *perm.Resolver
	Logger   *slog.Logger

	BindAddr string
	Port     int
	CertPath string
	KeyPath  string

	SharesDir      string
	MaxUploadBytes int64
	LoginRateMax   int

	// WebDAV, when non-nil, is mounted under /webdav/.
	WebDAV http.Handler

	authLimiter *fixedWindowLimiter
}

// Handler assembles the route table with the middleware stack applied.
func (s *Server) Handler() (http.Handler, error) {
	if s.DB == nil || s.Signer == nil || s.Sessions == nil || s.Perms == nil {
		return nil, errors.New("db, signer, sessions, and perms are required")
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}
	max := s.LoginRateMax
	if max <= 0 {
		max = 10
	}
	s.authLimiter = newFixedWindowLimiter(max, time.Minute)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/login", s.limited(s.handleLogin))
	mux.HandleFunc("/api/token/refresh", s.limited(s.handleRefresh))
	mux.HandleFunc("/api/logout", s.handleLogout)

	mux.HandleFunc("/api/shares", s.withIdentity(s.handleShares))
	mux.HandleFunc("/api/shares/", s.withIdentity(s.handleShareSubtree))

	mux.HandleFunc("/api/users", s.withAdmin(s.handleUsers))
	mux.HandleFunc("/api/users/", s.withAdmin(s.handleUserByID))

	mux.HandleFunc("/api/groups", s.withAdmin(s.handleGroupCreate))
	mux.HandleFunc("/api/groups/add-user", s.withAdmin(s.handleGroupAddUser))
	mux.HandleFunc("/api/groups/assign-share", s.withAdmin(s.handleGroupAssignShare))

	mux.HandleFunc("/api/activity", s.withAdmin(s.handleActivity))
	mux.HandleFunc("/api/activity/my", s.withIdentity(s.handleMyActivity))

	mux.HandleFunc("/api/notifications", s.withIdentity(s.handleNotifications))
	mux.HandleFunc("/api/notifications/", s.withIdentity(s.handleNotificationByID))

	if s.WebDAV != nil {
		mux.Handle("/webdav/", s.WebDAV)
	}

	return s.withRecover(s.withRequestLog(withSecurityHeaders(mux))), nil
}

// ListenAndServe runs the API, over TLS when certificate paths are set.
func (s *Server) ListenAndServe() error {
	h, err := s.Handler()
	if err != nil {
		return err
	}
	addr := s.BindAddr + ":" + strconv.Itoa(s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if s.CertPath != "" && s.KeyPath != "" {
		return srv.ListenAndServeTLS(s.CertPath, s.KeyPath)
	}
	return srv.ListenAndServe()
}
