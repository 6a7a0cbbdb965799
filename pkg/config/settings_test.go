package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSettings(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSettingsFileMissing(t *testing.T) {
	settings, err := LoadSettingsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultBackendURL, settings.BackendURL)
	assert.Equal(t, DefaultRequestTimeout, settings.RequestTimeout)
	assert.Equal(t, DefaultLogLevel, settings.LogLevel)
	assert.Equal(t, ".", settings.ExportDir)
	assert.NotContains(t, settings.LogFile, "~")
}

func TestLoadSettingsFileOverrides(t *testing.T) {
	path := writeSettings(t, `
backend_url: https://sniffers.internal:9443
request_timeout: 3s
log_level: warn
export_dir: /tmp/exports
`)
	settings, err := LoadSettingsFile(path)
	require.NoError(t, err)

	assert.Equal(t, "https://sniffers.internal:9443", settings.BackendURL)
	assert.Equal(t, 3*time.Second, settings.RequestTimeout)
	assert.Equal(t, "warn", settings.LogLevel)
	assert.Equal(t, "/tmp/exports", settings.ExportDir)
}

func TestLoadSettingsFileZeroTimeout(t *testing.T) {
	path := writeSettings(t, "request_timeout: 0s\n")
	settings, err := LoadSettingsFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRequestTimeout, settings.RequestTimeout)
}

func TestLoadSettingsFileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not a url", "backend_url: localhost:8787\n"},
		{"empty url", "backend_url: \"  \"\n"},
		{"negative timeout", "request_timeout: -1s\n"},
		{"malformed yaml", "backend_url: [unterminated\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings, err := LoadSettingsFile(writeSettings(t, tt.content))
			assert.Error(t, err)
			assert.Equal(t, DefaultBackendURL, settings.BackendURL)
		})
	}
}

func TestExpandHomeDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandHomeDir("~/.sniffctl/config.yaml")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".sniffctl/config.yaml"), got)

	got, err = expandHomeDir("/etc/sniffctl.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/etc/sniffctl.yaml", got)
}
