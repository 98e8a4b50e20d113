package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.Headless)
	assert.True(t, cfg.StopOnMandatoryFailure)
	assert.Equal(t, 5, cfg.SessionCheckInterval)
	assert.Equal(t, "/api/v1/me", cfg.SessionEndpoint)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
guide_url: https://app.example.test/guides/getting-started
timeout: 45s
log_level: debug
headless: false
session_check_interval: 3
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://app.example.test/guides/getting-started", cfg.GuideURL)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.Headless)
	assert.Equal(t, 3, cfg.SessionCheckInterval)
	// Untouched keys keep their defaults.
	assert.Equal(t, ".guidewalk/artifacts", cfg.ArtifactsDir)
	assert.True(t, cfg.StopOnMandatoryFailure)
}

func TestLoadConfigExplicitFalseOverridesDefault(t *testing.T) {
	path := writeConfig(t, `
stop_on_mandatory_failure: false
final_screenshot: false
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.StopOnMandatoryFailure)
	assert.False(t, cfg.FinalScreenshot)
}

func TestLoadConfigNestedSectionPartialMerge(t *testing.T) {
	path := writeConfig(t, `
history:
  enabled: false
report:
  html: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.False(t, cfg.History.Enabled)
	// Keys absent from the section keep their defaults.
	assert.Equal(t, ".guidewalk/history.db", cfg.History.DBPath)
	assert.Equal(t, 90, cfg.History.KeepRunsDays)
	assert.True(t, cfg.Report.Enabled)
	assert.True(t, cfg.Report.HTML)
}

func TestLoadConfigMalformedYAML(t *testing.T) {
	path := writeConfig(t, "timeout: [what")

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigBadTimeout(t *testing.T) {
	path := writeConfig(t, "timeout: fast")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timeout format")
}

func TestLoadConfigFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".guidewalk"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".guidewalk", "config.yaml"), []byte("log_level: warn\n"), 0o644))

	cfg, err := LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestMergeWithFlags(t *testing.T) {
	cfg := DefaultConfig()
	url := "https://app.example.test/guide"
	timeout := time.Minute
	headless := false

	cfg.MergeWithFlags(&url, &timeout, nil, &headless, nil, nil)

	assert.Equal(t, url, cfg.GuideURL)
	assert.Equal(t, time.Minute, cfg.Timeout)
	assert.False(t, cfg.Headless)
	// Nil flags leave config values alone.
	assert.Equal(t, ".guidewalk/artifacts", cfg.ArtifactsDir)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.LogLevel = "loud"
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Timeout = -time.Second
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.SessionCheckInterval = -1
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.History.DBPath = ""
	assert.Error(t, bad.Validate())
}

func TestGetGuidewalkHomeEnvOverride(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "custom-home")
	t.Setenv("GUIDEWALK_HOME", dir)

	home, err := GetGuidewalkHome()
	require.NoError(t, err)
	assert.Equal(t, dir, home)
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
