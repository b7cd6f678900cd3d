package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps a developer's .env out of the test.
func isolate(t *testing.T) {
	t.Helper()
	old := envFile
	envFile = filepath.Join(t.TempDir(), ".env")
	t.Cleanup(func() { envFile = old })
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Equal(t, "inspections", c.S3Bucket)
	assert.True(t, c.MigrateOnStart)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_Precedence(t *testing.T) {
	isolate(t)
	// godotenv sets process variables; register them for restore first
	t.Setenv("FIELDSYNC_S3_BUCKET", "")
	require.NoError(t, os.Unsetenv("FIELDSYNC_S3_BUCKET"))
	require.NoError(t, os.WriteFile(envFile, []byte("FIELDSYNC_S3_BUCKET=from-dotenv\nFIELDSYNC_S3_REGION=eu-west-1\n"), 0o600))
	t.Setenv("FIELDSYNC_DATABASE_DSN", "postgres://env/db")
	t.Setenv("FIELDSYNC_SECRET_KEY", "env-secret-key")
	t.Setenv("FIELDSYNC_TOKEN_VALIDITY", "1h")
	t.Setenv("FIELDSYNC_MIGRATE", "false")
	t.Setenv("FIELDSYNC_S3_REGION", "us-west-2")

	js := filepath.Join(t.TempDir(), "server.json")
	require.NoError(t, os.WriteFile(js, []byte(`{"secret_key":"json-secret-key","s3_url_expiry":"5m"}`), 0o600))

	cfg, err := LoadConfig([]string{"-config", js, "-a", "127.0.0.1:6000", "-issue", "tablet-1"})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:6000", cfg.EndpointAddrGRPC)
	assert.Equal(t, "postgres://env/db", cfg.DatabaseDSN)
	assert.Equal(t, "json-secret-key", cfg.SecretKey)
	assert.Equal(t, time.Hour, cfg.TokenValidity)
	assert.Equal(t, 5*time.Minute, cfg.S3URLExpiry)
	assert.False(t, cfg.MigrateOnStart)
	assert.Equal(t, "from-dotenv", cfg.S3Bucket)
	// the process environment wins over .env
	assert.Equal(t, "us-west-2", cfg.S3Region)
}

func TestLoadConfig_Errors(t *testing.T) {
	isolate(t)

	t.Run("bad duration env", func(t *testing.T) {
		t.Setenv("FIELDSYNC_TOKEN_VALIDITY", "forever")
		_, err := LoadConfig(nil)
		require.Error(t, err)
	})
	t.Run("bad bool env", func(t *testing.T) {
		t.Setenv("FIELDSYNC_MIGRATE", "perhaps")
		_, err := LoadConfig(nil)
		require.Error(t, err)
	})
	t.Run("short secret", func(t *testing.T) {
		_, err := LoadConfig([]string{"-s", "short"})
		require.Error(t, err)
	})
	t.Run("bad level", func(t *testing.T) {
		_, err := LoadConfig([]string{"-l", "chatty"})
		require.Error(t, err)
	})
	t.Run("missing json", func(t *testing.T) {
		_, err := LoadConfig([]string{"-c", filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
	})
}
