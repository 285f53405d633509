package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config holds the configuration for a single replacer instance.
type Config struct {
	// Policy selects the replacement policy ("lru-k" or "arc").
	Policy string `json:"policy"`

	// NumFrames is the number of frame slots the replacer tracks.
	NumFrames uint32 `json:"num_frames"`

	// K is the history depth for the lru-k policy; ignored by arc.
	K uint32 `json:"k"`

	// EnableMetrics is the on/off setting for hit/miss/eviction
	// counters. Nothing in this package reads it: the replacers always
	// collect their counters.
	EnableMetrics bool `json:"enable_metrics"`

	// LogLevel names a logger verbosity (debug, info, warn, error) and
	// is checked by Validate. Nothing else in this package reads it: the
	// replacers log through slog.Default() or the logger given to
	// SetLogger.
	LogLevel string `json:"log_level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Policy:        "lru-k",
		NumFrames:     100,
		K:             2,
		EnableMetrics: true,
		LogLevel:      "info",
	}
}

// LoadConfigFromFile loads configuration from a JSON file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	err = json.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFromEnv loads configuration from environment variables.
// Falls back to default values if environment variables are not set.
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()

	if val := os.Getenv("HEXREPLACE_POLICY"); val != "" {
		config.Policy = val
	}

	if val := os.Getenv("HEXREPLACE_NUM_FRAMES"); val != "" {
		if n, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.NumFrames = uint32(n)
		}
	}

	if val := os.Getenv("HEXREPLACE_K"); val != "" {
		if k, err := strconv.ParseUint(val, 10, 32); err == nil {
			config.K = uint32(k)
		}
	}

	if val := os.Getenv("HEXREPLACE_ENABLE_METRICS"); val != "" {
		config.EnableMetrics = val == "true" || val == "1"
	}

	if val := os.Getenv("HEXREPLACE_LOG_LEVEL"); val != "" {
		config.LogLevel = val
	}

	return config
}

// SaveToFile saves the configuration to a JSON file.
func (c *Config) SaveToFile(path string) error {
	data, err := json.MarshalIndent(c, "", " ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(path, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Policy != "lru-k" && c.Policy != "arc" {
		return fmt.Errorf("invalid policy: %s (must be lru-k or arc)", c.Policy)
	}

	if c.NumFrames == 0 {
		return fmt.Errorf("num frames must be greater than 0")
	}

	if c.Policy == "lru-k" && c.K == 0 {
		return fmt.Errorf("k must be greater than 0 for the lru-k policy")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info": true,
		"warn": true,
		"error": true,
	}

	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	return &Config{
		Policy:        c.Policy,
		NumFrames:     c.NumFrames,
		K:             c.K,
		EnableMetrics: c.EnableMetrics,
		LogLevel:      c.LogLevel,
	}
}
