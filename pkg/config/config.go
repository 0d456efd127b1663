package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for defectdb-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables; environment variables override YAML values. Secrets
// (passwords, session key) must only come from environment variables.
type Config struct {
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8086"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`

	// BaseURL is the public URL of the front end. QR codes encode
	// detail-page links built from it. Auto-derived from Port if empty.
	BaseURL string `yaml:"base_url" env:"BASE_URL" env-default:""`

	// Debug enables detailed error payloads (underlying database and
	// server error messages). Never enable in production.
	Debug bool `yaml:"debug" env:"DEBUG_MODE" env-default:"false"`

	Version string `yaml:"-"` // Set at load time, not from config

	Database DatabaseConfig `yaml:"database"`
	Session  SessionConfig  `yaml:"session"`
	Storage  StorageConfig  `yaml:"storage"`

	// MigrationsPath is the directory holding SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"defectdb"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"defectdb"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// SessionConfig holds the session cookie settings. The login flow itself
// lives in a separate service; this engine only reads the cookie.
type SessionConfig struct {
	// Secret signs session cookies. Must match the auth service's key.
	Secret string `yaml:"-" env:"SESSION_SECRET"`

	// CookieName is the name of the shared session cookie.
	CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"defectdb_session"`

	// MaxAgeSeconds is the session lifetime. Zero means session cookie.
	MaxAgeSeconds int `yaml:"max_age_seconds" env:"SESSION_MAX_AGE" env-default:"28800"`

	// Secure marks the cookie HTTPS-only. Disable for local development.
	Secure bool `yaml:"secure" env:"SESSION_SECURE" env-default:"true"`
}

// StorageConfig selects where uploaded defect images live. The upload path
// is handled by a separate endpoint; this engine only removes files when a
// defect is deleted.
type StorageConfig struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"local"`

	// UploadDir is the local image directory (backend=local).
	UploadDir string `yaml:"upload_dir" env:"UPLOAD_DIR" env-default:"uploads"`

	S3 S3Config `yaml:"s3"`
}

// S3Config holds S3-compatible object store settings (backend=s3).
type S3Config struct {
	Endpoint  string `yaml:"endpoint" env:"S3_ENDPOINT" env-default:"localhost:9000"`
	AccessKey string `yaml:"-" env:"S3_ACCESS_KEY"` // Secret - not in YAML
	SecretKey string `yaml:"-" env:"S3_SECRET_KEY"` // Secret - not in YAML
	Bucket    string `yaml:"bucket" env:"S3_BUCKET" env-default:"defect-images"`
	UseSSL    bool   `yaml:"use_ssl" env:"S3_USE_SSL" env-default:"false"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET must be set")
	}
	switch c.Storage.Backend {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage backend %q (want local or s3)", c.Storage.Backend)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// URL returns the connection string in URL form for pgxpool and migrate.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password),
		c.Host, c.Port, c.Database, c.SSLMode)
}
