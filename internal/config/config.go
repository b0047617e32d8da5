// Package config handles run configuration for the normalizer: the flag
// surface of one normalization run, plus an optional JSON defaults file so
// build pipelines can pin settings (float precision above all) next to
// their sources.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"ufonorm/internal/xmlwriter"
)

// ConfigErrorType represents the type of configuration error.
type ConfigErrorType string

const (
	FileNotFound    ConfigErrorType = "FILE_NOT_FOUND"
	InvalidJSON     ConfigErrorType = "INVALID_JSON"
	ValidationError ConfigErrorType = "VALIDATION_ERROR"
)

// ConfigError represents an error that occurred during configuration
// loading or validation.
type ConfigError struct {
	Type    ConfigErrorType
	Path    string
	Message string
}

func (e *ConfigError) Error() string {
	switch e.Type {
	case FileNotFound:
		return fmt.Sprintf("configuration file not found: %s", e.Path)
	case InvalidJSON:
		return fmt.Sprintf("invalid JSON in configuration file: %s", e.Message)
	case ValidationError:
		return fmt.Sprintf("configuration validation error: %s", e.Message)
	default:
		return fmt.Sprintf("configuration error: %s", e.Message)
	}
}

// Configuration holds the settings of a normalization run.
type Configuration struct {
	// FloatPrecision is the number of decimal digits for floats. The
	// value -1 disables rounding.
	FloatPrecision int `json:"floatPrecision"`
	// All processes every file instead of only those modified since the
	// previous normalization.
	All bool `json:"all"`
	// NoModTimes disables writing normalization time stamps.
	NoModTimes bool `json:"noModTimes"`
	// OutputPath, when set, normalizes a copy of the package there.
	OutputPath string `json:"outputPath,omitempty"`
}

// Default returns the configuration an argument-less invocation uses.
func Default() Configuration {
	return Configuration{
		FloatPrecision: xmlwriter.DefaultPrecision,
	}
}

// Validate checks that the configuration is usable.
func (c *Configuration) Validate() error {
	if c.FloatPrecision < xmlwriter.NoRounding {
		return &ConfigError{
			Type:    ValidationError,
			Message: fmt.Sprintf("floatPrecision must be >= 0, or -1 for no rounding (got %d)", c.FloatPrecision),
		}
	}
	return nil
}

// Load reads and validates a configuration file. Fields absent from the
// file keep their defaults.
func Load(filePath string) (*Configuration, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Type: FileNotFound, Path: filePath}
		}
		return nil, &ConfigError{Type: FileNotFound, Path: filePath, Message: err.Error()}
	}
	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, &ConfigError{Type: InvalidJSON, Message: err.Error()}
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
