package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfiguration_Defaults(t *testing.T) {
	cfg := Config{}
	initQueues(&cfg)

	require.Equal(t, 5, cfg.Scraper.Concurrency)
	require.Equal(t, 100, cfg.Scraper.IntervalMs)
	require.Equal(t, 12, cfg.Thumbnail.Concurrency)
	require.Equal(t, 250, cfg.Thumbnail.IntervalMs)
	require.Equal(t, 2, cfg.Fetch.Retries)
	require.Equal(t, 3600, cfg.Fetch.CacheTTLSeconds)
	require.Equal(t, "redis", cfg.Fetch.Backend)
}

func TestConfiguration_EnvOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "8081")
	t.Setenv("CRON_SECRET", "s3cret")
	t.Setenv("ALLOWED_ORIGINS", "https://admin.example.com,https://example.com")

	cfg := Config{App: App{Port: 9000, CronSecret: "from-file"}}
	initApp(&cfg)

	assert.Equal(t, 8081, cfg.App.Port)
	assert.Equal(t, "s3cret", cfg.App.CronSecret)
	assert.Equal(t, []string{"https://admin.example.com", "https://example.com"}, cfg.App.AllowedOrigins)
	assert.Equal(t, "Asia/Tokyo", cfg.App.TimeZone)
	assert.Equal(t, "thumbnails", cfg.Storage.Bucket)
}

func TestGetConfigValue(t *testing.T) {
	t.Setenv("CFG_TEST_KEY", "")
	assert.Equal(t, "file", getConfigValue("file", "CFG_TEST_KEY", "default"))
	assert.Equal(t, "default", getConfigValue("YOUR_API_KEY", "CFG_TEST_KEY", "default"))

	t.Setenv("CFG_TEST_KEY", "env")
	assert.Equal(t, "env", getConfigValue("file", "CFG_TEST_KEY", "default"))
}

func TestLoadEnvFromFile_DoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CFG_LOADED=from-file\nCFG_KEPT=from-file\n"), 0o600))
	t.Setenv("CFG_KEPT", "from-env")
	os.Unsetenv("CFG_LOADED")
	t.Cleanup(func() { os.Unsetenv("CFG_LOADED") })

	LoadEnvFromFile(filepath.Join(dir, "missing.env"), path)

	assert.Equal(t, "from-file", os.Getenv("CFG_LOADED"))
	assert.Equal(t, "from-env", os.Getenv("CFG_KEPT"))
}

func TestYouTubeConfig_UsesOAuth(t *testing.T) {
	assert.False(t, (&YouTubeConfig{APIKey: "key"}).UsesOAuth())
	assert.True(t, (&YouTubeConfig{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}).UsesOAuth())
}
