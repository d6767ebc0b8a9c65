// Package config loads the anthro CLI configuration from a YAML file with
// ANTHRO_* environment variable overrides. API keys are intentionally not
// part of the file; they come from ANTHROPIC_API_KEY / ANTHROPIC_ADMIN_KEY.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config is the anthro CLI configuration, corresponding to ~/.anthro.yml.
type Config struct {
	Model             string `yaml:"model" koanf:"model"`
	MaxTokens         int    `yaml:"max_tokens" koanf:"max_tokens"`
	System            string `yaml:"system" koanf:"system"`
	BaseURL           string `yaml:"base_url" koanf:"base_url"`
	APIVersion        string `yaml:"api_version" koanf:"api_version"`
	HistoryPath       string `yaml:"history_path" koanf:"history_path"`
	RequestsPerMinute int    `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxRetries        int    `yaml:"max_retries" koanf:"max_retries"`
}

// DefaultConfig returns the configuration used before any file or
// environment overrides.
func DefaultConfig() *Config {
	return &Config{
		Model:      "claude-sonnet-4-5-20250929",
		MaxTokens:  1024,
		MaxRetries: 2,
	}
}

// DefaultPath returns the default config file location, ~/.anthro.yml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".anthro.yml"
	}
	return filepath.Join(home, ".anthro.yml")
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (ANTHRO_*). A missing file is not an
// error; defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: ANTHRO_MODEL -> model, etc.
	if err := k.Load(env.Provider("ANTHRO_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "ANTHRO_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be non-negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	return nil
}
