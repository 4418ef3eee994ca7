package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_RequiresCredentials(t *testing.T) {
	t.Setenv("NOOR_ADMIN_EMAIL", "")
	t.Setenv("NOOR_SERVICE_SECRET", "")

	_, err := Load()
	assert.ErrorIs(t, err, ErrMissingAdminEmail)

	t.Setenv("NOOR_ADMIN_EMAIL", "admin@example.com")
	_, err = Load()
	assert.ErrorIs(t, err, ErrMissingServiceSecret)
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NOOR_ADMIN_EMAIL", "admin@example.com")
	t.Setenv("NOOR_SERVICE_SECRET", "secret")
	t.Setenv("NOOR_DB_PATH", filepath.Join(dir, "gate.db"))
	t.Setenv("NOOR_HTTP_PORT", "9090")
	t.Setenv("NOOR_MAIL_API_KEY", "key-1")
	t.Setenv("NOOR_MAIL_FROM", "Noor <admin@noor.app>")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "admin@example.com", cfg.AdminEmail)
	assert.Equal(t, "key-1", cfg.MailAPIKey)
	assert.Equal(t, "Noor <admin@noor.app>", cfg.MailSender)
}
