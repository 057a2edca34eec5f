package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// Config holds all configurable edittrail settings.
type Config struct {
	BackendURL           string   `json:"backend_url"`
	FlushIntervalSeconds int      `json:"flush_interval_seconds"`
	BurstThreshold       int      `json:"burst_threshold"`
	IgnorePatterns       []string `json:"ignore_patterns"`
	BridgeAddr           string   `json:"bridge_addr"`
	LogLevel             string   `json:"log_level"`
	LogFile              string   `json:"log_file"` // empty means stderr
}

// Defaults returns sensible default configuration values.
func Defaults() Config {
	return Config{
		BackendURL:           "http://127.0.0.1:8080",
		FlushIntervalSeconds: 20,
		BurstThreshold:       20,
		IgnorePatterns:       []string{},
		BridgeAddr:           "127.0.0.1:7341",
		LogLevel:             "info",
	}
}

// FlushInterval returns the flush interval as a duration.
func (c Config) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalSeconds) * time.Second
}

// LoadGlobal reads ~/.config/edittrail/config.json.
// Returns defaults if the file is absent.
func LoadGlobal() (*Config, error) {
	path, err := GlobalPath()
	if err != nil {
		return nil, err
	}
	return loadFile(path, true)
}

// GlobalPath returns the location of the global config file.
func GlobalPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "edittrail", "config.json"), nil
}

// LoadProject reads .edittrailconfig in the current working directory.
// Returns nil (no error) if the file is absent.
func LoadProject() (*Config, error) {
	return loadFile(".edittrailconfig", false)
}

// loadFile reads and parses a JSON config file at path.
// If returnDefaults is true, returns defaults when the file is absent.
// If returnDefaults is false, returns nil when the file is absent.
func loadFile(path string, returnDefaults bool) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if returnDefaults {
				d := Defaults()
				return &d, nil
			}
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &cfg, nil
}

// Merge combines global and project configs, with project taking precedence.
// Missing keys fall back to global, then defaults.
func Merge(global, project *Config) Config {
	result := Defaults()

	apply := func(c *Config) {
		if c == nil {
			return
		}
		if c.BackendURL != "" {
			result.BackendURL = c.BackendURL
		}
		if c.FlushIntervalSeconds > 0 {
			result.FlushIntervalSeconds = c.FlushIntervalSeconds
		}
		if c.BurstThreshold > 0 {
			result.BurstThreshold = c.BurstThreshold
		}
		if len(c.IgnorePatterns) > 0 {
			result.IgnorePatterns = c.IgnorePatterns
		}
		if c.BridgeAddr != "" {
			result.BridgeAddr = c.BridgeAddr
		}
		if c.LogLevel != "" {
			result.LogLevel = c.LogLevel
		}
		if c.LogFile != "" {
			result.LogFile = c.LogFile
		}
	}

	// Apply global values over defaults, then project values over global.
	apply(global)
	apply(project)

	return result
}

// Save writes cfg as indented JSON to path, creating parent directories.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
