// Package daemon wires the store, token signer, permission resolver,
// and HTTP surfaces into a running server process.
package daemon

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/arogoff/nas/internal/auth"
	"github.com/arogoff/nas/internal/db"
	"github.com/arogoff/nas/internal/httpapi"
	"github.com/arogoff/nas/internal/perm"
	"github.com/arogoff/nas/internal/session"
	"github.com/arogoff/nas/internal/webdavserver"
)

type Options struct {
	DBPath    string
	DataDir   string
	SharesDir string
	BindAddr  string
	WebPort   int

	MaxUploadBytes int64
	AccessTTL      time.Duration
	RenewalTTL     time.Duration
	LoginRateMax   int

	// Optional overrides. If empty, values are read from DB config
	// (set by `setup`).
	TLSCertPath string
	TLSKeyPath  string

	WebDAVEnable bool
	WebDAVPrefix string

	Logger *slog.Logger
}

func Run(ctx context.Context, opt Options) error {
	if opt.DBPath == "" {
		return errors.New("db path is required")
	}
	if opt.SharesDir == "" {
		return errors.New("shares dir is required")
	}
	lg := opt.Logger
	if lg == nil {
		lg = slog.Default()
	}

	d, err := db.Open(ctx, opt.DBPath)
	if err != nil {
		return err
	}
	defer d.Close()
	initialized, err := d.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		return errors.New("not initialized; run setup")
	}

	secretHex, ok, err := d.GetConfig(ctx, "jwt_secret")
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("missing token secret config; run setup")
	}
	secret, err := hex.DecodeString(secretHex)
	if err != nil {
		return errors.New("corrupt token secret config; re-run setup")
	}
	signer, err := auth.NewTokenSigner(secret)
	if err != nil {
		return err
	}

	certPath := strings.TrimSpace(opt.TLSCertPath)
	keyPath := strings.TrimSpace(opt.TLSKeyPath)
	if certPath == "" || keyPath == "" {
		if v, ok, err := d.GetConfig(ctx, "tls_cert_path"); err != nil {
			return err
		} else if ok {
			certPath = v
		}
		if v, ok, err := d.GetConfig(ctx, "tls_key_path"); err != nil {
			return err
		} else if ok {
			keyPath = v
		}
	}

	if err := os.MkdirAll(opt.SharesDir, 0o700); err != nil {
		return err
	}

	accessTTL := opt.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	renewalTTL := opt.RenewalTTL
	if renewalTTL <= 0 {
		renewalTTL = 7 * 24 * time.Hour
	}

	issuer := &session.Issuer{
		DB:         d,
		Signer:     signer,
		AccessTTL:  accessTTL,
		RenewalTTL: renewalTTL,
	}
	resolver := &perm.Resolver{DB: d}

	// Startup sweep keeps the token table from accumulating rows that
	// expired while the process was down.
	if n, err := d.DeleteExpiredRefreshTokens(ctx, time.Now().Unix()); err != nil {
		lg.Warn("expired token sweep failed", "err", err.Error())
	} else if n > 0 {
		lg.Info("swept expired refresh tokens", "count", n)
	}

	api := &httpapi.Server{
		DB:             d,
		Signer:         signer,
		Sessions:       issuer,
		Perms:          resolver,
		Logger:         lg,
		BindAddr:       opt.BindAddr,
		Port:           opt.WebPort,
		CertPath:       certPath,
		KeyPath:        keyPath,
		SharesDir:      opt.SharesDir,
		MaxUploadBytes: opt.MaxUploadBytes,
		LoginRateMax:   opt.LoginRateMax,
	}
	if opt.WebDAVEnable {
		prefix := opt.WebDAVPrefix
		if prefix == "" {
			prefix = "/webdav"
		}
		api.WebDAV = &webdavserver.Handler{DB: d, Perms: resolver, Prefix: prefix, Logger: lg}
	}

	lg.Info("server starting", "bind", opt.BindAddr, "port", opt.WebPort, "tls", certPath != "")
	return api.ListenAndServe()
}
