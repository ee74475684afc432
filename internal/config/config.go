package config

import "time"

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Store    StoreConfig    `mapstructure:"store"`
	Server   ServerConfig   `mapstructure:"server"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
	Detect   DetectConfig   `mapstructure:"detect"`
}

// LogConfig configures logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// StoreConfig selects where layers are persisted.
type StoreConfig struct {
	Backend string `mapstructure:"backend"` // sqlite | file | memory
	Path    string `mapstructure:"path"`    // database file or directory
	Format  string `mapstructure:"format"`  // yaml | toml, file backend only
	Watch   bool   `mapstructure:"watch"`   // reload sessions when files change
}

// ServerConfig configures the REST API.
type ServerConfig struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	CORSOrigins     []string `mapstructure:"cors_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

// AutosaveConfig configures debounced saving of editing sessions.
type AutosaveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Delay   string `mapstructure:"delay"`
}

// DelayDuration parses Delay; invalid values were rejected by the validator.
func (c AutosaveConfig) DelayDuration() time.Duration {
	d, err := time.ParseDuration(c.Delay)
	if err != nil {
		return 0
	}
	return d
}

// DetectConfig configures profile detection.
type DetectConfig struct {
	MinConfidence float64 `mapstructure:"min_confidence"`
	MaxTextBytes  int64   `mapstructure:"max_text_bytes"`
}

// ShutdownDuration parses ShutdownTimeout.
func (c ServerConfig) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(c.ShutdownTimeout)
	if err != nil {
		return 0
	}
	return d
}
