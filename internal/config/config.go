// Package config loads and validates the nas YAML configuration.
// It applies defaults so the server can rely on fully populated values.
package config

import (
	"errors"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TLSConfig holds TLS certificate paths. Both empty means plain HTTP.
type TLSConfig struct {
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Bind        string    `yaml:"bind"`
	Port        int       `yaml:"port"`
	MaxUploadMB int       `yaml:"max_upload_mb"`
	TLS         TLSConfig `yaml:"tls"`
}

// AuthConfig holds credential lifetimes. The signing secret itself is
// generated during setup and kept in the database, not in this file.
type AuthConfig struct {
	AccessTTLMinutes int `yaml:"access_ttl_minutes"`
	RefreshTTLDays   int `yaml:"refresh_ttl_days"`
	LoginRatePerMin  int `yaml:"login_rate_per_min"`
}

// Config mirrors the nas.yaml schema.
type Config struct {
	Log       LogConfig  `yaml:"log"`
	DB        DBConfig   `yaml:"db"`
	DataDir   string     `yaml:"data_dir"`
	SharesDir string     `yaml:"shares_dir"`
	HTTP      HTTPConfig `yaml:"http"`
	Auth      AuthConfig `yaml:"auth"`
	WebDAV    struct {
		Enable bool   `yaml:"enable"`
		Prefix string `yaml:"prefix"`
	} `yaml:"webdav"`
}

// Load reads a YAML config file, applies defaults, and validates it.
func Load(path string) (Config, error) {
	var c Config
	if path == "" {
		return c, errors.New("config path is required")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return c, err
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return c, err
	}
	applyDefaults(&c)
	if err := validate(&c); err != nil {
		return Config{}, err
	}
	c.DB.Path = strings.TrimSpace(c.DB.Path)
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.SharesDir = strings.TrimSpace(c.SharesDir)
	c.HTTP.TLS.CertPath = strings.TrimSpace(c.HTTP.TLS.CertPath)
	c.HTTP.TLS.KeyPath = strings.TrimSpace(c.HTTP.TLS.KeyPath)
	return c, nil
}

// Default populates a Config without reading a file, for flag-only runs.
func Default() Config {
	var c Config
	applyDefaults(&c)
	return c
}

func applyDefaults(c *Config) {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.DB.Path == "" {
		c.DB.Path = "./data/nas.db"
	}
	if c.DataDir == "" {
		c.DataDir = "./data"
	}
	if c.SharesDir == "" {
		c.SharesDir = "./data/shares"
	}
	if c.HTTP.Bind == "" {
		c.HTTP.Bind = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 5080
	}
	if c.HTTP.MaxUploadMB == 0 {
		c.HTTP.MaxUploadMB = 512
	}
	if c.Auth.AccessTTLMinutes == 0 {
		c.Auth.AccessTTLMinutes = 15
	}
	if c.Auth.RefreshTTLDays == 0 {
		c.Auth.RefreshTTLDays = 7
	}
	if c.Auth.LoginRatePerMin == 0 {
		c.Auth.LoginRatePerMin = 10
	}
	if c.WebDAV.Prefix == "" {
		c.WebDAV.Prefix = "/webdav"
	}
}

func validate(c *Config) error {
	if c.DB.Path == "" {
		return errors.New("db.path is required")
	}
	if c.SharesDir == "" {
		return errors.New("shares_dir is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http.port is invalid")
	}
	if c.HTTP.MaxUploadMB < 1 || c.HTTP.MaxUploadMB > 102400 {
		return errors.New("http.max_upload_mb is invalid")
	}
	if c.Auth.AccessTTLMinutes < 1 {
		return errors.New("auth.access_ttl_minutes is invalid")
	}
	if c.Auth.RefreshTTLDays < 1 {
		return errors.New("auth.refresh_ttl_days is invalid")
	}
	cp := c.HTTP.TLS.CertPath
	kp := c.HTTP.TLS.KeyPath
	if (strings.TrimSpace(cp) == "") != (strings.TrimSpace(kp) == "") {
		return errors.New("http.tls.cert_path and http.tls.key_path must be set together")
	}
	return nil
}
