package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripLineComments(t *testing.T) {
	in := "// header\n{\n  // note\n  \"a\": 1 // not stripped\n}\n"
	got := string(stripLineComments([]byte(in)))
	assert.NotContains(t, got, "header")
	assert.NotContains(t, got, "note")
	assert.Contains(t, got, "// not stripped")
}

func TestTemplateParsesToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(configTemplate), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoadFileFirstRunWritesTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, configTemplate, string(data))
}

func TestLoadFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"timezone": "Europe/Berlin"}`), 0o600))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", cfg.Timezone)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.AuthTimeout())
	assert.Equal(t, DefaultRequestsPerMinute, cfg.RequestsPerMinute)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadFileCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_base_url": `), 0o600))

	cfg, err := LoadFile(path)
	require.Error(t, err)
	assert.Equal(t, DefaultAPIBaseURL, cfg.APIBaseURL, "defaults returned alongside the error")
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"api_base_url": "https://file.example"}`), 0o600))
	t.Setenv(EnvAPIURL, "http://127.0.0.1:9999")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9999", cfg.APIBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestInvalidTimezone(t *testing.T) {
	cfg := Config{Timezone: "Mars/Olympus"}
	loc, err := cfg.Location()
	assert.Error(t, err)
	assert.Equal(t, time.Local, loc)
}
