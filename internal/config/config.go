package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Config captures runtime configuration sourced from environment variables.
type Config struct {
	Environment  string
	HTTPPort     string
	DatabasePath string

	// AdminEmail is the address of the single shared admin identity.
	AdminEmail string
	// ServiceSecret signs admin bearer tokens. The service refuses to boot
	// without it.
	ServiceSecret string

	// Transactional email provider. An empty API key makes reset-code
	// delivery fail outright; an empty sender falls back to the provider
	// default.
	MailAPIKey string
	MailSender string

	// NotifyURLs is a comma-separated list of shoutrrr URLs that receive
	// security alerts (lockouts, passcode resets). Optional.
	NotifyURLs string
}

var (
	ErrMissingAdminEmail    = errors.New("NOOR_ADMIN_EMAIL is required")
	ErrMissingServiceSecret = errors.New("NOOR_SERVICE_SECRET is required")
)

// Load reads env vars. Infrastructure credentials are fatal when absent;
// everything else falls back to defaults so local boots stay cheap.
func Load() (Config, error) {
	cfg := Config{
		Environment:   getEnv("NOOR_ENV", "development"),
		HTTPPort:      getEnv("NOOR_HTTP_PORT", "8080"),
		DatabasePath:  getEnv("NOOR_DB_PATH", filepath.Join("data", "noorgate.db")),
		AdminEmail:    os.Getenv("NOOR_ADMIN_EMAIL"),
		ServiceSecret: os.Getenv("NOOR_SERVICE_SECRET"),
		MailAPIKey:    os.Getenv("NOOR_MAIL_API_KEY"),
		MailSender:    os.Getenv("NOOR_MAIL_FROM"),
		NotifyURLs:    os.Getenv("NOOR_NOTIFY_URLS"),
	}

	if cfg.AdminEmail == "" {
		return Config{}, ErrMissingAdminEmail
	}
	if cfg.ServiceSecret == "" {
		return Config{}, ErrMissingServiceSecret
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0o755); err != nil {
		return Config{}, fmt.Errorf("ensure data directory: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return fallback
}
