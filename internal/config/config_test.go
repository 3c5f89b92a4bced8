package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsingDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenExpiration)
	assert.Equal(t, "@every 5m", cfg.ReloadSchedule)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Nil(t, cfg.EncryptionKey)
	assert.NotEmpty(t, cfg.Warnings)
}

func TestLoadUsingEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/reviews")
	t.Setenv("ENCRYPTION_KEY", strings.Repeat("ab", 32))
	t.Setenv("JWT_EXPIRATION_HOURS", "2")
	t.Setenv("ADMIN_EMAILS", "root@example.com, ops@example.com")
	t.Setenv("HTTP_PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 2*time.Hour, cfg.TokenExpiration)
	assert.Len(t, cfg.EncryptionKey, 32)
	assert.True(t, cfg.IsAdminEmail("OPS@example.com"))
	assert.False(t, cfg.IsAdminEmail("someone@example.com"))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("store_driver = \"memory\"\nreload_schedule = \"\"\nlog_level = \"debug\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
	assert.Empty(t, cfg.ReloadSchedule)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "DATABASE_URL")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("ENCRYPTION_KEY", "abcd")
	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "ENCRYPTION_KEY")

	t.Setenv("ENCRYPTION_KEY", "")
	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorContains(t, err, "STORE_DRIVER")
}
