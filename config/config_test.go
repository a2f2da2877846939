package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATAQUERY_BASE_URL", "DATAQUERY_FILES_BASE_URL", "DATAQUERY_CLIENT_ID",
		"DATAQUERY_CLIENT_SECRET", "DATAQUERY_OAUTH_TOKEN_URL", "DATAQUERY_OAUTH_AUD",
		"DATAQUERY_BEARER_TOKEN", "DATAQUERY_TIMEOUT", "DATAQUERY_USER_AGENT",
		"DATAQUERY_DOWNLOAD_DIR", "DATAQUERY_CREATE_DIRS", "DATAQUERY_OVERWRITE",
		"DATAQUERY_MAX_CONCURRENT_DOWNLOADS", "DATAQUERY_DEBUG",
	} {
		t.Setenv(key, "") // register restore of the original value
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATAQUERY_BASE_URL", "https://api.example.com/v2")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/v2", cfg.BaseURL)
	assert.Equal(t, 60*time.Second, cfg.Timeout)
	assert.Equal(t, "./downloads", cfg.DownloadDir)
	assert.True(t, cfg.CreateDirectories)
	assert.False(t, cfg.OverwriteExisting)
	assert.Equal(t, 5, cfg.MaxConcurrentDownloads)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	clearEnv(t)
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATAQUERY_BASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATAQUERY_BASE_URL", "https://api.example.com/v2")
	t.Setenv("DATAQUERY_TIMEOUT", "2m")
	t.Setenv("DATAQUERY_DOWNLOAD_DIR", "/tmp/dq")
	t.Setenv("DATAQUERY_OVERWRITE", "true")
	t.Setenv("DATAQUERY_CREATE_DIRS", "false")
	t.Setenv("DATAQUERY_MAX_CONCURRENT_DOWNLOADS", "8")
	t.Setenv("DATAQUERY_DEBUG", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "/tmp/dq", cfg.DownloadDir)
	assert.True(t, cfg.OverwriteExisting)
	assert.False(t, cfg.CreateDirectories)
	assert.Equal(t, 8, cfg.MaxConcurrentDownloads)
	assert.True(t, cfg.Debug)
}

func TestLoadInvalidValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATAQUERY_BASE_URL", "https://api.example.com/v2")

	t.Setenv("DATAQUERY_TIMEOUT", "soon")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("DATAQUERY_TIMEOUT", "30s")
	t.Setenv("DATAQUERY_MAX_CONCURRENT_DOWNLOADS", "0")
	_, err = Load("")
	require.Error(t, err)
}

func TestLoadOAuthRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATAQUERY_BASE_URL", "https://api.example.com/v2")
	t.Setenv("DATAQUERY_OAUTH_TOKEN_URL", "https://auth.example.com/token")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATAQUERY_CLIENT_ID")

	t.Setenv("DATAQUERY_CLIENT_ID", "id")
	t.Setenv("DATAQUERY_CLIENT_SECRET", "secret")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://auth.example.com/token", cfg.TokenURL)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "DATAQUERY_BASE_URL=https://file.example.com/v2\nDATAQUERY_USER_AGENT=from-file\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0644))

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com/v2", cfg.BaseURL)
	assert.Equal(t, "from-file", cfg.UserAgent)
}

func TestLoadMissingEnvFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}
