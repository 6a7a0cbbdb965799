package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xlttj/sniffctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// SettingsFilePath is where user settings are read from.
const SettingsFilePath = "~/.sniffctl/config.yaml"

// Default settings values.
const (
	DefaultBackendURL     = "http://127.0.0.1:8787"
	DefaultRequestTimeout = 10 * time.Second
	DefaultLogLevel       = "debug"
)

// Settings holds the client configuration.
type Settings struct {
	BackendURL     string        `yaml:"backend_url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	LogFile        string        `yaml:"log_file"`
	LogLevel       string        `yaml:"log_level"`
	ExportDir      string        `yaml:"export_dir"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		BackendURL:     DefaultBackendURL,
		RequestTimeout: DefaultRequestTimeout,
		LogFile:        "~/.sniffctl/" + logging.DefaultLogFile,
		LogLevel:       DefaultLogLevel,
		ExportDir:      ".",
	}
}

// expandHomeDir replaces the leading ~ with the user's home directory
func expandHomeDir(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, path[1:]), nil
}

// LoadSettings reads settings from the default location.
func LoadSettings() (Settings, error) {
	path, err := expandHomeDir(SettingsFilePath)
	if err != nil {
		return DefaultSettings(), fmt.Errorf("failed to resolve settings path: %w", err)
	}
	return LoadSettingsFile(path)
}

// LoadSettingsFile reads settings from path. A missing file yields defaults;
// fields absent from the file keep their default values.
func LoadSettingsFile(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		logging.LogDebug("Settings file %s does not exist, using defaults", path)
		return settings.expanded()
	} else if err != nil {
		return settings, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return DefaultSettings(), fmt.Errorf("failed to unmarshal settings file %s: %w", path, err)
	}

	if err := settings.validate(); err != nil {
		return DefaultSettings(), fmt.Errorf("settings validation failed: %w", err)
	}

	return settings.expanded()
}

func (s Settings) validate() error {
	if strings.TrimSpace(s.BackendURL) == "" {
		return fmt.Errorf("backend_url cannot be empty")
	}
	if !strings.HasPrefix(s.BackendURL, "http://") && !strings.HasPrefix(s.BackendURL, "https://") {
		return fmt.Errorf("backend_url '%s' must be an http(s) URL", s.BackendURL)
	}
	if s.RequestTimeout < 0 {
		return fmt.Errorf("request_timeout must not be negative")
	}
	return nil
}

func (s Settings) expanded() (Settings, error) {
	var err error
	if s.LogFile, err = expandHomeDir(s.LogFile); err != nil {
		return s, err
	}
	if s.ExportDir, err = expandHomeDir(s.ExportDir); err != nil {
		return s, err
	}
	if s.RequestTimeout == 0 {
		s.RequestTimeout = DefaultRequestTimeout
	}
	return s, nil
}
