package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 24, cfg.Auth.TokenExpireHours)
	assert.Equal(t, 24*time.Hour, cfg.Scan.Interval)
	assert.Equal(t, 5*time.Minute, cfg.Scan.Timeout)
	assert.True(t, cfg.Scan.Enabled)
	assert.Equal(t, "info", cfg.LoggerConfig().Level)
}

func TestLoadFileThenEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
database:
  driver: postgres
  dsn: "host=db user=app"
auth:
  jwt_secret: from-file
scan:
  interval: 12h
  timeout: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("SCAN_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "host=db user=app", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.Scan.Interval)
	assert.Equal(t, time.Minute, cfg.Scan.Timeout)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "unknown driver",
			env:  map[string]string{"DB_DRIVER": "oracle", "DB_DSN": "x", "JWT_SECRET": "s"},
		},
		{
			name: "mysql without dsn",
			env:  map[string]string{"DB_DRIVER": "mysql", "JWT_SECRET": "s"},
		},
		{
			name: "missing secret",
			env:  map[string]string{"DB_DRIVER": "sqlite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_DSN", "")
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
