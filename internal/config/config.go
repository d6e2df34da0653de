// Package config handles taskchat configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/taskchat/config.yaml, /etc/taskchat/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "taskchat", "config.yaml"))
	}

	paths = append(paths, "/etc/taskchat/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all taskchat configuration.
type Config struct {
	Listen    ListenConfig   `yaml:"listen"`
	Database  DatabaseConfig `yaml:"database"`
	Auth      AuthConfig     `yaml:"auth"`
	LLM       LLMConfig      `yaml:"llm"`
	LogLevel  string         `yaml:"log_level"`
	LogFormat string         `yaml:"log_format"` // "text" or "json"
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// DatabaseConfig defines where persistent state lives.
type DatabaseConfig struct {
	// Path is the SQLite database file. The parent directory is created
	// on startup if missing.
	Path string `yaml:"path"`
}

// AuthConfig defines token issuance settings.
type AuthConfig struct {
	// JWTSecret signs and verifies access tokens. Required.
	JWTSecret string `yaml:"jwt_secret"`
	// TokenExpiry is a Go duration string (default "24h").
	TokenExpiry string `yaml:"token_expiry"`
}

// Expiry parses TokenExpiry, falling back to 24h when unset.
func (a AuthConfig) Expiry() (time.Duration, error) {
	if a.TokenExpiry == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(a.TokenExpiry)
}

// LLMConfig defines the model provider connection.
// Any OpenAI-compatible chat completions server works; the default
// base URL points at OpenRouter.
type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:   ListenConfig{Port: 8080},
		Database: DatabaseConfig{Path: "taskchat.db"},
		Auth:     AuthConfig{TokenExpiry: "24h"},
		LLM: LLMConfig{
			BaseURL: "https://openrouter.ai/api/v1",
			Model:   "qwen/qwen-2.5-72b-instruct",
		},
		LogFormat: "text",
	}
}

// Validate checks the configuration for values that would only fail later
// at an inconvenient time. Called by Load; safe to call on hand-built configs.
func (c *Config) Validate() error {
	if c.Listen.Port <= 0 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if _, err := c.Auth.Expiry(); err != nil {
		return fmt.Errorf("auth.token_expiry: %w", err)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("llm.model is required")
	}
	if c.LogLevel != "" {
		if _, err := ParseLogLevel(c.LogLevel); err != nil {
			return err
		}
	}
	if c.LogFormat != "" && c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("log_format %q (valid: text, json)", c.LogFormat)
	}
	return nil
}
