package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	ModeCloud = "cloud"
	ModeLocal = "local"
)

type Config struct {
	// Application
	AppName string
	AppEnv  string
	AppURL  string
	Port    string

	// Cloud document store. Leaving DB_DRIVER empty runs the app in
	// local mode: no accounts, goals kept in the key-value store.
	DBDriver     string
	DBConnection string

	// Local key-value store ("file" or "s3")
	StorageDriver string
	DataDir       string

	// Display
	DefaultCurrency string
	Locale          string

	// Security
	JWTSecret string
	JWTExpiry time.Duration
	// SecureCookies marks the session cookie Secure (HTTPS only)
	SecureCookies bool

	// Observability
	LogLevel  string
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3Prefix    string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName: envString("APP_NAME", "Goalkeeper"),
		AppEnv:  envString("APP_ENV", "development"),
		AppURL:  envString("APP_URL", "http://localhost:8090"),
		Port:    envString("PORT", "8090"),

		// Database
		DBDriver:     envString("DB_DRIVER", ""),
		DBConnection: envString("DB_CONNECTION", "./data/goalkeeper.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// Local storage
		StorageDriver: envString("STORAGE_DRIVER", "file"),
		DataDir:       envString("DATA_DIR", "./data"),

		// Display
		DefaultCurrency: strings.ToUpper(envString("CURRENCY", "USD")),
		Locale:          envString("LOCALE", "en-US"),

		// Security
		JWTSecret:     envString("JWT_SECRET", ""),
		JWTExpiry:     envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		SecureCookies: envBool("SECURE_COOKIES", envString("APP_ENV", "development") == "production"),

		// Observability
		LogLevel:  envString("LOG_LEVEL", ""),
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (only read when STORAGE_DRIVER=s3)
		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", ""),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),
		S3Prefix:    envString("S3_PREFIX", "goalkeeper"),
	}

	if cfg.IsCloud() && cfg.JWTSecret == "" {
		cfg.JWTSecret = envRequired("JWT_SECRET")
	}
	if cfg.StorageDriver == "s3" && !cfg.IsCloud() {
		cfg.S3Bucket = envRequired("S3_BUCKET")
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures production deployments do not run with
// development defaults.
func validateProduction(cfg *Config) {
	if cfg.IsCloud() && len(cfg.JWTSecret) < 32 {
		slog.Error("production deployment requires a JWT_SECRET of at least 32 characters")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

// Mode is ModeCloud when a document database is configured, ModeLocal
// otherwise. It is fixed for the lifetime of the process.
func (c *Config) Mode() string {
	if c.DBDriver != "" {
		return ModeCloud
	}
	return ModeLocal
}

func (c *Config) IsCloud() bool {
	return c.Mode() == ModeCloud
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Sanitized returns a copy of the config with only public/safe fields.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:         c.AppName,
		AppEnv:          c.AppEnv,
		AppURL:          c.AppURL,
		Port:            c.Port,
		DBDriver:        c.DBDriver,
		StorageDriver:   c.StorageDriver,
		DefaultCurrency: c.DefaultCurrency,
		Locale:          c.Locale,
		SecureCookies:   c.SecureCookies,
	}
}
