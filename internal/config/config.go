package config

import (
	"codereview-backend/internal/crypto"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// settings is the raw layered configuration. Keys are the lower-cased
// environment variable names.
type settings struct {
	AppEnv             string `koanf:"app_env"`
	HTTPPort           string `koanf:"http_port"`
	DatabaseURL        string `koanf:"database_url"`
	StoreDriver        string `koanf:"store_driver"`
	JWTSecret          string `koanf:"jwt_secret"`
	JWTExpirationHours int    `koanf:"jwt_expiration_hours"`
	EncryptionKey      string `koanf:"encryption_key"`
	AdminEmails        string `koanf:"admin_emails"`
	ReloadSchedule     string `koanf:"reload_schedule"`
	LogLevel           string `koanf:"log_level"`
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

func defaults() settings {
	return settings{
		AppEnv:             "development",
		HTTPPort:           "8080",
		StoreDriver:        StoreDriverPostgres,
		JWTSecret:          "default-super-secret-key", // CHANGE THIS IN PRODUCTION!
		JWTExpirationHours: 24,
		ReloadSchedule:     "@every 5m",
		LogLevel:           "info",
		CORSAllowedOrigins: "*",
	}
}

// Config holds application configuration values.
type Config struct {
	AppEnv             string
	HTTPPort           string
	DatabaseURL        string
	StoreDriver        string
	JWTSecret          string
	TokenExpiration    time.Duration
	EncryptionKey      []byte // Raw key bytes (32 for AES-256), nil when unset
	AdminEmails        []string
	ReloadSchedule     string // cron spec; empty disables periodic reloads
	LogLevel           string
	CORSAllowedOrigins []string

	// Warnings are problems that did not stop loading, logged once the logger exists.
	Warnings []string
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS.
func (c *Config) IsAdminEmail(email string) bool {
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(admin, email) {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from defaults, then config.toml, then the
// environment. A .env file, when present, is loaded into the environment first.
func LoadConfig() (*Config, error) {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, fmt.Sprintf("could not load .env file, using environment variables only: %v", err))
	}

	cfg, err := Load("config.toml")
	if err != nil {
		return nil, err
	}
	cfg.Warnings = append(warnings, cfg.Warnings...)
	return cfg, nil
}

// Load layers the defaults, the TOML file at path (optional) and the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	var warnings []string

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		warnings = append(warnings, fmt.Sprintf("error loading %s: %v", path, err))
	}

	// Replace __ with . so nested keys can be set as A__B.
	if err := k.Load(env.Provider("", ".", func(source string) string {
		return strings.ReplaceAll(strings.ToLower(source), "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	var raw settings
	if err := k.Unmarshal("", &raw); err != nil {
		return nil, fmt.Errorf("error un-marshalling config: %w", err)
	}

	cfg, err := raw.validate()
	if err != nil {
		return nil, err
	}
	cfg.Warnings = append(warnings, cfg.Warnings...)
	return cfg, nil
}

func (s settings) validate() (*Config, error) {
	cfg := &Config{
		AppEnv:             s.AppEnv,
		HTTPPort:           s.HTTPPort,
		DatabaseURL:        s.DatabaseURL,
		StoreDriver:        strings.ToLower(s.StoreDriver),
		JWTSecret:          s.JWTSecret,
		ReloadSchedule:     strings.TrimSpace(s.ReloadSchedule),
		LogLevel:           s.LogLevel,
		AdminEmails:        splitList(s.AdminEmails),
		CORSAllowedOrigins: splitList(s.CORSAllowedOrigins),
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL environment variable is not set")
		}
		if s.EncryptionKey == "" {
			return nil, errors.New("ENCRYPTION_KEY environment variable is not set")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (want %q or %q)", s.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	if s.EncryptionKey != "" {
		key, err := crypto.ParseHexKey(s.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("invalid ENCRYPTION_KEY: %w", err)
		}
		cfg.EncryptionKey = key
	}

	hours := s.JWTExpirationHours
	if hours <= 0 {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("invalid JWT_EXPIRATION_HOURS %d, using default 24h", hours))
		hours = 24
	}
	cfg.TokenExpiration = time.Duration(hours) * time.Hour

	if cfg.JWTSecret == defaults().JWTSecret {
		cfg.Warnings = append(cfg.Warnings, "JWT_SECRET is not set, using the insecure default")
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
