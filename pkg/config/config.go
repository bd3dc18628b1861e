/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ssargent/chim/pkg/codec"
	"github.com/ssargent/chim/pkg/logging"
)

// Config represents the chim configuration
type Config struct {
	DataDir  string   `yaml:"data_dir"`
	Port     int      `yaml:"port"`
	Bind     string   `yaml:"bind"`
	Render   Render   `yaml:"render"`
	Security Security `yaml:"security"`
	Logging  Logging  `yaml:"logging"`
}

// Render controls the hex layout of XML output
type Render struct {
	RowWidth   int `yaml:"row_width"`
	GroupWidth int `yaml:"group_width"`
}

// Security contains security-related configuration
type Security struct {
	APIKey          string `yaml:"api_key"`
	MaxDocumentSize int64  `yaml:"max_document_size"`
}

// Logging contains logging configuration
type Logging struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		DataDir: "./data",
		Port:    8080,
		Bind:    "127.0.0.1",
		Render: Render{
			RowWidth:   codec.DefaultHexLayout.RowWidth,
			GroupWidth: codec.DefaultHexLayout.GroupWidth,
		},
		Security: Security{
			APIKey:          "auto",
			MaxDocumentSize: 64 << 20,
		},
		Logging: Logging{
			Level: "info",
		},
	}
}

// HexLayout returns the configured hex layout for rendering
func (c *Config) HexLayout() codec.HexLayout {
	return codec.HexLayout{RowWidth: c.Render.RowWidth, GroupWidth: c.Render.GroupWidth}
}

// Validate checks the configuration for values the CLI and server cannot use
func (c *Config) Validate() error {
	var errs []error
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Render.RowWidth < 0 || c.Render.GroupWidth < 0 {
		errs = append(errs, fmt.Errorf("render widths must not be negative (row %d, group %d)", c.Render.RowWidth, c.Render.GroupWidth))
	}
	if c.Security.MaxDocumentSize < 0 {
		errs = append(errs, fmt.Errorf("max document size %d must not be negative", c.Security.MaxDocumentSize))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig loads configuration from the specified path. Keys missing from
// the file keep their default values.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	// Validate path to prevent directory traversal
	if !filepath.IsAbs(configPath) {
		absPath, err := filepath.Abs(configPath)
		if err != nil {
			return nil, fmt.Errorf("invalid config path: %w", err)
		}
		configPath = absPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves the configuration to the specified path with secure permissions
func SaveConfig(config *Config, configPath string) error {
	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write with secure permissions (0600)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GenerateSecureKey generates a cryptographically secure random key
func GenerateSecureKey(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate secure key: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// BootstrapConfig creates a new configuration with a generated API key
func BootstrapConfig(configPath string, dataDir string) (*Config, error) {
	config := DefaultConfig()
	if dataDir != "" {
		config.DataDir = dataDir
	}

	apiKey, err := GenerateSecureKey(32) // 256 bits
	if err != nil {
		return nil, fmt.Errorf("failed to generate API key: %w", err)
	}
	config.Security.APIKey = apiKey

	if err := SaveConfig(config, configPath); err != nil {
		return nil, fmt.Errorf("failed to save bootstrap config: %w", err)
	}

	return config, nil
}

// GetDefaultConfigPath returns the default configuration path for the current platform
func GetDefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./chim.yaml"
	}

	// For Linux/macOS, use ~/.config/chim/config.yaml
	configDir := filepath.Join(homeDir, ".config", "chim")
	return filepath.Join(configDir, "config.yaml")
}

// ConfigExists checks if a configuration file exists
func ConfigExists(configPath string) bool {
	_, err := os.Stat(configPath)
	return !os.IsNotExist(err)
}
