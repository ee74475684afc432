package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config validation: %s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// HasErrors returns true if there are any validation errors.
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Validator validates configuration.
type Validator struct {
	errors ValidationErrors
}

// NewValidator creates a new validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate validates the entire configuration.
func (v *Validator) Validate(cfg *Config) error {
	v.validateLog(&cfg.Log)
	v.validateStore(&cfg.Store)
	v.validateServer(&cfg.Server)
	v.validateAutosave(&cfg.Autosave)
	v.validateDetect(&cfg.Detect)

	if len(v.errors) > 0 {
		return v.errors
	}
	return nil
}

// Errors returns the collected validation errors.
func (v *Validator) Errors() ValidationErrors {
	return v.errors
}

func (v *Validator) addError(field string, value interface{}, msg string) {
	v.errors = append(v.errors, ValidationError{
		Field:   field,
		Value:   value,
		Message: msg,
	})
}

func (v *Validator) oneOf(field, value string, allowed ...string) {
	for _, a := range allowed {
		if value == a {
			return
		}
	}
	v.addError(field, value, "must be one of: "+strings.Join(allowed, ", "))
}

func (v *Validator) validateLog(cfg *LogConfig) {
	v.oneOf("log.level", cfg.Level, "debug", "info", "warn", "error")
	v.oneOf("log.format", cfg.Format, "auto", "text", "json")
	if cfg.File != "" && !isValidPath(cfg.File) {
		v.addError("log.file", cfg.File, "invalid file path")
	}
}

func (v *Validator) validateStore(cfg *StoreConfig) {
	v.oneOf("store.backend", cfg.Backend, "sqlite", "file", "memory")
	if cfg.Backend == "memory" {
		return
	}
	if cfg.Path == "" {
		v.addError("store.path", cfg.Path, "path required")
	} else if !isValidPath(cfg.Path) {
		v.addError("store.path", cfg.Path, "invalid path")
	}
	if cfg.Backend == "file" {
		v.oneOf("store.format", cfg.Format, "yaml", "toml")
	}
	if cfg.Watch && cfg.Backend != "file" {
		v.addError("store.watch", cfg.Watch, "only the file backend can be watched")
	}
}

func (v *Validator) validateServer(cfg *ServerConfig) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		v.addError("server.port", cfg.Port, "must be between 1 and 65535")
	}
	if _, err := time.ParseDuration(cfg.ShutdownTimeout); err != nil {
		v.addError("server.shutdown_timeout", cfg.ShutdownTimeout, "invalid duration")
	}
	for _, origin := range cfg.CORSOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			v.addError("server.cors_origins", origin, "must be * or an http(s) origin")
		}
	}
}

func (v *Validator) validateAutosave(cfg *AutosaveConfig) {
	d, err := time.ParseDuration(cfg.Delay)
	if err != nil {
		v.addError("autosave.delay", cfg.Delay, "invalid duration")
		return
	}
	if d <= 0 {
		v.addError("autosave.delay", cfg.Delay, "must be positive")
	}
}

func (v *Validator) validateDetect(cfg *DetectConfig) {
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		v.addError("detect.min_confidence", cfg.MinConfidence, "must be between 0 and 1")
	}
	if cfg.MaxTextBytes <= 0 {
		v.addError("detect.max_text_bytes", cfg.MaxTextBytes, "must be positive")
	}
}

func isValidPath(path string) bool {
	dir := filepath.Dir(path)
	_, err := os.Stat(dir)
	return err == nil || os.IsNotExist(err)
}

// ValidateConfig is a convenience function that creates a validator and validates config.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg)
}
