package server

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arogoff/nas/internal/config"
	"github.com/arogoff/nas/internal/daemon"
	"github.com/arogoff/nas/internal/logging"
	"github.com/arogoff/nas/internal/version"
)

type Options struct {
	ConfigPath string
	LogLevel   string

	DBPath       string
	DataDir      string
	SharesDir    string
	BindAddr     string
	WebPort      int
	WebDAVEnable bool
	WebDAVPrefix string
}

func Run(args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	var opt Options
	var showVersion bool
	fs.StringVar(&opt.ConfigPath, "config", "", "path to nas.yaml (when set, other flags are ignored)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	fs.StringVar(&opt.LogLevel, "log-level", "info", "log level: debug|info|warning|error")
	fs.StringVar(&opt.DBPath, "db", "./data/nas.db", "sqlite database path")
	fs.StringVar(&opt.DataDir, "data-dir", "./data", "data directory (keys/certs)")
	fs.StringVar(&opt.SharesDir, "shares-dir", "./data/shares", "share roots directory")
	fs.StringVar(&opt.BindAddr, "bind", "127.0.0.1", "bind address")
	fs.IntVar(&opt.WebPort, "port", 5080, "API port")
	fs.BoolVar(&opt.WebDAVEnable, "webdav-enable", false, "enable WebDAV access")
	fs.StringVar(&opt.WebDAVPrefix, "webdav-prefix", "/webdav", "WebDAV URL prefix")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if showVersion {
		fmt.Printf("nas server %s\n", version.Version)
		return nil
	}

	if opt.ConfigPath != "" {
		c, err := config.Load(opt.ConfigPath)
		if err != nil {
			return err
		}
		base := filepath.Dir(opt.ConfigPath)
		level := c.Log.Level
		// CLI overrides config.
		if strings.TrimSpace(opt.LogLevel) != "" {
			level = opt.LogLevel
		}
		lg, err := logging.New(logging.Options{Level: level, JSON: c.Log.JSON, DefaultSlog: true})
		if err != nil {
			return err
		}
		return daemon.Run(context.Background(), daemon.Options{
			DBPath:         resolvePath(base, c.DB.Path),
			DataDir:        resolvePath(base, c.DataDir),
			SharesDir:      resolvePath(base, c.SharesDir),
			BindAddr:       c.HTTP.Bind,
			WebPort:        c.HTTP.Port,
			MaxUploadBytes: int64(c.HTTP.MaxUploadMB) << 20,
			AccessTTL:      time.Duration(c.Auth.AccessTTLMinutes) * time.Minute,
			RenewalTTL:     time.Duration(c.Auth.RefreshTTLDays) * 24 * time.Hour,
			LoginRateMax:   c.Auth.LoginRatePerMin,
			TLSCertPath:    resolvePath(base, c.HTTP.TLS.CertPath),
			TLSKeyPath:     resolvePath(base, c.HTTP.TLS.KeyPath),
			WebDAVEnable:   c.WebDAV.Enable,
			WebDAVPrefix:   c.WebDAV.Prefix,
			Logger:         lg,
		})
	}

	lg, err := logging.New(logging.Options{Level: opt.LogLevel, DefaultSlog: true})
	if err != nil {
		return err
	}
	return daemon.Run(context.Background(), daemon.Options{
		DBPath:       opt.DBPath,
		DataDir:      opt.DataDir,
		SharesDir:    opt.SharesDir,
		BindAddr:     opt.BindAddr,
		WebPort:      opt.WebPort,
		WebDAVEnable: opt.WebDAVEnable,
		WebDAVPrefix: opt.WebDAVPrefix,
		Logger:       lg,
	})
}

func resolvePath(baseDir, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
