// Package config provides configuration management for i2cssh: the
// application settings (viper) and the ~/.i2csshrc cluster file (yaml.v3).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultConfigFile is the rc file name looked up in the home directory.
const DefaultConfigFile = ".i2csshrc"

// Settings represents the application settings that are not host options
type Settings struct {
	ConfigFile string `mapstructure:"config"`     // Path to the rc file
	LogLevel   string `mapstructure:"log-level"`  // Log level (debug, info, warn, error)
	LogFormat  string `mapstructure:"log-format"` // Log format (auto, pretty, text, json)
	Tmux       string `mapstructure:"tmux"`       // tmux binary
}

// Manager defines the interface for settings management
type Manager interface {
	// Load reads settings from defaults, environment and bound flags
	Load() (*Settings, error)

	// BindFlags binds command-line flags to settings keys
	BindFlags(flags *pflag.FlagSet) error

	// Validate ensures settings values are valid
	Validate(settings *Settings) error
}

// ViperManager implements the Manager interface using Viper
type ViperManager struct {
	v *viper.Viper
}

// NewManager creates a new settings manager
func NewManager() Manager {
	return &ViperManager{v: viper.New()}
}

// SetDefaults establishes default settings values
func (m *ViperManager) SetDefaults() {
	m.v.SetDefault("config", defaultConfigPath())
	m.v.SetDefault("log-level", "info")
	m.v.SetDefault("log-format", "auto")
	m.v.SetDefault("tmux", "tmux")
}

// BindFlags binds the settings flags that exist on flags. Flag values only
// win over the environment when the flag was passed explicitly.
func (m *ViperManager) BindFlags(flags *pflag.FlagSet) error {
	for _, key := range []string{"config", "log-level", "log-format", "tmux"} {
		f := flags.Lookup(key)
		if f == nil {
			continue
		}
		if err := m.v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", key, err)
		}
	}
	return nil
}

// Load reads settings with precedence flag > environment > default
func (m *ViperManager) Load() (*Settings, error) {
	m.SetDefaults()

	// I2CSSH_LOG_LEVEL, I2CSSH_CONFIG, ...
	m.v.SetEnvPrefix("I2CSSH")
	m.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	m.v.AutomaticEnv()

	var settings Settings
	if err := m.v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling settings: %w", err)
	}
	settings.ConfigFile = expandHome(settings.ConfigFile)

	if err := m.Validate(&settings); err != nil {
		return nil, fmt.Errorf("settings validation failed: %w", err)
	}
	return &settings, nil
}

// Validate ensures settings values are valid and consistent
func (m *ViperManager) Validate(settings *Settings) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[settings.LogLevel] {
		return fmt.Errorf("invalid log level '%s': must be one of 'debug', 'info', 'warn' or 'error'", settings.LogLevel)
	}

	validLogFormats := map[string]bool{"auto": true, "pretty": true, "text": true, "json": true}
	if !validLogFormats[settings.LogFormat] {
		return fmt.Errorf("invalid log format '%s': must be one of 'auto', 'pretty', 'text' or 'json'", settings.LogFormat)
	}

	if settings.Tmux == "" {
		return fmt.Errorf("tmux binary cannot be empty")
	}
	return nil
}

// GetEnvVarNames returns a list of all supported environment variable names
func GetEnvVarNames() []string {
	return []string{
		"I2CSSH_CONFIG",
		"I2CSSH_LOG_LEVEL",
		"I2CSSH_LOG_FORMAT",
		"I2CSSH_TMUX",
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultConfigFile
	}
	return filepath.Join(home, DefaultConfigFile)
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
