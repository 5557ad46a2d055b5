package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const appName = "nanabox"

// Load reads settings from the config home or the working directory.
// A missing settings file is not an error; defaults are used instead.
func Load() (*Settings, error) {
	return LoadFrom(getConfigHome(), ".")
}

// LoadFrom reads settings.yaml from the first of dirs that has one.
func LoadFrom(dirs ...string) (*Settings, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	v.SetConfigName("settings")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading settings file: %w", err)
		}
		logrus.Debugf("Settings file not found in %v, using defaults", dirs)
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error parsing settings: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&s)

	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default_config", "")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
}

func getConfigHome() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("$HOME", ".config", appName)
	}
	return filepath.Join(home, ".config", appName)
}

func applyEnvOverrides(s *Settings) {
	// Override from environment if set
	if path := os.Getenv("NANABOX_CONFIG"); path != "" {
		s.DefaultConfig = path
	}

	if level := os.Getenv("NANABOX_LOG_LEVEL"); level != "" {
		s.Log.Level = level
	}
}
