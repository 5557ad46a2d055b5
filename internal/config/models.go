package config

// Settings represents the tool's own settings file
type Settings struct {
	DefaultConfig string    `mapstructure:"default_config" yaml:"default_config"`
	Log           LogConfig `mapstructure:"log" yaml:"log"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	File       string `mapstructure:"file" yaml:"file,omitempty"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}
