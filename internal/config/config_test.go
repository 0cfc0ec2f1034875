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
	path := filepath.Join(t.TempDir(), "cofrance.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
addr = "127.0.0.1:9000"

[logging]
level = "debug"
format = "json"

[gate]
api_base_url = "http://localhost:7001"

[oceanic]
polling_interval_seconds = 120
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "http://localhost:7001", cfg.Gate.APIBaseURL)
	assert.Equal(t, 30, cfg.Gate.PollingIntervalSeconds)
	assert.Equal(t, 3000, cfg.Gate.MaxAltitudeFt)
	assert.True(t, cfg.Gate.Enabled)
	assert.Equal(t, 120, cfg.Oceanic.PollingIntervalSeconds)
	assert.Equal(t, "https://nattrak.vatsim.net", cfg.Oceanic.APIBaseURL)
	assert.Equal(t, 10*time.Second, cfg.Gateway.Timeout())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"non-http gate url", "[gate]\napi_base_url = \"ftp://example.com\"\n"},
		{"zero oceanic interval", "[oceanic]\npolling_interval_seconds = 0\n"},
		{"negative timeout", "[gateway]\ntimeout_seconds = -1\n"},
		{"malformed toml", "[gate\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDisabledReconcilerSkipsValidation(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[gate]\nenabled = false\napi_base_url = \"\"\n"))
	require.NoError(t, err)
	assert.False(t, cfg.Gate.Enabled)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
