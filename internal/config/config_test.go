package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8080", cfg.ServerURL)
	assert.False(t, cfg.Constrained)
	assert.Equal(t, 2*time.Second, cfg.Cooldown)
	assert.Equal(t, 2*time.Minute, cfg.ScanTimeout)
	assert.NotEmpty(t, cfg.LogDir)
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `
server_url = "https://books.example.net/"
constrained = true
cooldown_seconds = 5
scan_timeout_seconds = 30
log_dir = "` + dir + `"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://books.example.net", cfg.ServerURL, "trailing slash trimmed")
	assert.True(t, cfg.Constrained)
	assert.Equal(t, 5*time.Second, cfg.Cooldown)
	assert.Equal(t, 30*time.Second, cfg.ScanTimeout)
	assert.Equal(t, filepath.Join(dir, "scan.log"), cfg.ClientLogPath())
}

func TestLoadRejectsBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("server_url = [broken"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
