// Package config handles loading and saving application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const appName = "slack-tui"

// Config represents the application configuration.
type Config struct {
	Auth  AuthConfig  `yaml:"auth"`
	UI    UIConfig    `yaml:"ui"`
	API   APIConfig   `yaml:"api"`
	Cache CacheConfig `yaml:"cache"`
	Log   LogConfig   `yaml:"log"`
}

// AuthConfig holds authentication-related settings.
type AuthConfig struct {
	// BotToken is a Slack bot token (xoxb-...). The keyring and the
	// SLACK_BOT_TOKEN environment variable take precedence.
	BotToken string `yaml:"bot_token,omitempty"`
}

// UIConfig holds chat-view settings.
type UIConfig struct {
	HistoryLimit int           `yaml:"history_limit"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Notify       bool          `yaml:"notify"`
	Editor       string        `yaml:"editor,omitempty"`
}

// APIConfig holds Slack client settings.
type APIConfig struct {
	RateLimit float64       `yaml:"rate_limit"` // requests per second
	Burst     int           `yaml:"burst"`
	Timeout   time.Duration `yaml:"timeout"`
}

// CacheConfig holds on-disk cache settings. An empty path uses the user
// cache directory.
type CacheConfig struct {
	Path    string        `yaml:"path,omitempty"`
	TTL     time.Duration `yaml:"ttl"`
	Disable bool          `yaml:"disable,omitempty"`
}

// LogConfig holds debug log settings.
type LogConfig struct {
	Path  string `yaml:"path,omitempty"`
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		UI: UIConfig{
			HistoryLimit: 50,
			PollInterval: 5 * time.Second,
			Notify:       true,
		},
		API: APIConfig{
			RateLimit: 1,
			Burst:     5,
			Timeout:   30 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ConfigDir returns the path to the configuration directory.
// Creates the directory if it doesn't exist.
func ConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", appName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// CacheDir returns the per-user cache directory for the application.
func CacheDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to get cache directory: %w", err)
	}
	return filepath.Join(base, appName), nil
}

// CachePath returns the cache database location.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// LogPath returns the debug log location.
func (c *Config) LogPath() (string, error) {
	if c.Log.Path != "" {
		return c.Log.Path, nil
	}
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// EditorCommand returns the configured editor, then $VISUAL, then $EDITOR,
// then vi.
func (c *Config) EditorCommand() string {
	for _, e := range []string{c.UI.Editor, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if e != "" {
			return e
		}
	}
	return "vi"
}

// Load reads the configuration from the config file.
// If the file doesn't exist, returns a default configuration.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the configuration at path, falling back to defaults when
// the file does not exist.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if file doesn't exist
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the configuration to the config file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	// Write with restricted permissions (owner read/write only)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.UI.HistoryLimit < 1 || c.UI.HistoryLimit > 1000:
		return fmt.Errorf("ui.history_limit must be between 1 and 1000, got %d", c.UI.HistoryLimit)
	case c.UI.PollInterval < time.Second:
		return fmt.Errorf("ui.poll_interval must be at least 1s, got %s", c.UI.PollInterval)
	case c.API.RateLimit < 0:
		return fmt.Errorf("api.rate_limit must not be negative")
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}
	return nil
}

// HasValidAuth returns true if the config file carries a token.
func (c *Config) HasValidAuth() bool {
	return c.Auth.BotToken != ""
}
