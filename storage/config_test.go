package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Policy != "lru-k" {
		t.Errorf("Expected policy 'lru-k', got '%s'", config.Policy)
	}

	if config.NumFrames != 100 {
		t.Errorf("Expected num frames 100, got %d", config.NumFrames)
	}

	if config.K != 2 {
		t.Errorf("Expected k 2, got %d", config.K)
	}

	if !config.EnableMetrics {
		t.Error("Expected metrics to be enabled by default")
	}

	if config.LogLevel != "info" {
		t.Errorf("Expected log level 'info', got '%s'", config.LogLevel)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		config *Config
		expectError bool
	}{
		{
			name: "valid config",
			config: DefaultConfig(),
			expectError: false,
		},
		{
			name: "valid arc config",
			config: &Config{
				Policy: "arc",
				NumFrames: 50,
				LogLevel: "info",
			},
			expectError: false,
		},
		{
			name: "zero num frames",
			config: &Config{
				Policy: "lru-k",
				NumFrames: 0,
				K: 2,
				LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "zero k for lru-k",
			config: &Config{
				Policy: "lru-k",
				NumFrames: 100,
				K: 0,
				LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "unknown policy",
			config: &Config{
				Policy: "2q",
				NumFrames: 100,
				K: 2,
				LogLevel: "info",
			},
			expectError: true,
		},
		{
			name: "invalid log level",
			config: &Config{
				Policy: "lru-k",
				NumFrames: 100,
				K: 2,
				LogLevel: "invalid",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.expectError && err == nil {
				t.Error("Expected error but got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.json")

	originalConfig := DefaultConfig()
	originalConfig.NumFrames = 200
	originalConfig.LogLevel = "debug"

	err := originalConfig.SaveToFile(configPath)
	if err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loadedConfig, err := LoadConfigFromFile(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if loadedConfig.NumFrames != 200 {
		t.Errorf("Expected num frames 200, got %d", loadedConfig.NumFrames)
	}

	if loadedConfig.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", loadedConfig.LogLevel)
	}
}

func TestLoadConfigFromInvalidFile(t *testing.T) {
	_, err := LoadConfigFromFile("/nonexistent/config.json")
	if err == nil {
		t.Error("Expected error when loading nonexistent file")
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	originalVars := map[string]string{
		"HEXREPLACE_NUM_FRAMES": os.Getenv("HEXREPLACE_NUM_FRAMES"),
		"HEXREPLACE_POLICY": os.Getenv("HEXREPLACE_POLICY"),
		"HEXREPLACE_LOG_LEVEL": os.Getenv("HEXREPLACE_LOG_LEVEL"),
	}

	defer func() {
		for key, val := range originalVars {
			if val == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, val)
			}
		}
	}()

	os.Setenv("HEXREPLACE_NUM_FRAMES", "500")
	os.Setenv("HEXREPLACE_POLICY", "arc")
	os.Setenv("HEXREPLACE_LOG_LEVEL", "debug")

	config := LoadConfigFromEnv()

	if config.NumFrames != 500 {
		t.Errorf("Expected num frames 500, got %d", config.NumFrames)
	}

	if config.Policy != "arc" {
		t.Errorf("Expected policy 'arc', got '%s'", config.Policy)
	}

	if config.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", config.LogLevel)
	}
}

func TestConfigClone(t *testing.T) {
	original := DefaultConfig()
	original.NumFrames = 500
	original.LogLevel = "debug"

	clone := original.Clone()

	if clone.NumFrames != original.NumFrames {
		t.Errorf("Clone num frames mismatch: got %d, want %d",
			clone.NumFrames, original.NumFrames)
	}

	if clone.LogLevel != original.LogLevel {
		t.Errorf("Clone log level mismatch: got %s, want %s",
			clone.LogLevel, original.LogLevel)
	}

	clone.NumFrames = 1000

	if original.NumFrames == 1000 {
		t.Error("Modifying clone should not affect original")
	}
}

func TestEnvVarBooleanParsing(t *testing.T) {
	tests := []struct {
		name string
		value string
		expected bool
	}{
		{"true string", "true", true},
		{"1 string", "1", true},
		{"false string", "false", false},
		{"0 string", "0", false},
		{"other string", "other", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Setenv("HEXREPLACE_ENABLE_METRICS", tt.value)
			defer os.Unsetenv("HEXREPLACE_ENABLE_METRICS")

			config := LoadConfigFromEnv()
			if config.EnableMetrics != tt.expected {
				t.Errorf("Expected EnableMetrics=%v for value '%s', got %v",
					tt.expected, tt.value, config.EnableMetrics)
			}
		})
	}
}
