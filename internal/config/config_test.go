package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("NANABOX_CONFIG", "")
	t.Setenv("NANABOX_LOG_LEVEL", "")

	s, err := LoadFrom(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "", s.DefaultConfig)
	assert.Equal(t, LogConfig{
		Level:      "info",
		MaxSizeMB:  10,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}, s.Log)
}

func TestLoadSettingsFile(t *testing.T) {
	t.Setenv("NANABOX_CONFIG", "")
	t.Setenv("NANABOX_LOG_LEVEL", "")

	dir := t.TempDir()
	content := `default_config: /vms/gaming.json
log:
  level: debug
  file: /tmp/nanabox.log
  compress: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte(content), 0644))

	s, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "/vms/gaming.json", s.DefaultConfig)
	assert.Equal(t, "debug", s.Log.Level)
	assert.Equal(t, "/tmp/nanabox.log", s.Log.File)
	assert.True(t, s.Log.Compress)
	assert.Equal(t, 3, s.Log.MaxBackups)
}

func TestLoadInvalidSettingsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "settings.yaml"), []byte("log: [unclosed"), 0644))

	_, err := LoadFrom(dir)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("NANABOX_CONFIG", "/override.json")
	t.Setenv("NANABOX_LOG_LEVEL", "warn")

	s, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "/override.json", s.DefaultConfig)
	assert.Equal(t, "warn", s.Log.Level)
}

func TestConfigHomeUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	assert.Equal(t, filepath.Join("/xdg", "nanabox"), getConfigHome())
}
