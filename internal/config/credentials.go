package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = appName
	keyringUser    = "bot-token"
	credFileName   = ".credentials"

	// TokenEnv is the environment variable holding a bot token.
	TokenEnv = "SLACK_BOT_TOKEN"
)

// TokenSource says where a token was found.
type TokenSource string

const (
	SourceNone    TokenSource = ""
	SourceEnv     TokenSource = "environment"
	SourceKeyring TokenSource = "keyring"
	SourceFile    TokenSource = "credentials file"
	SourceConfig  TokenSource = "config file"
)

// DataDir returns the path to the data directory for secure storage.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/slack-tui/
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		dataHome = filepath.Join(homeDir, ".local", "share")
	}

	dataDir := filepath.Join(dataHome, appName)
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	return dataDir, nil
}

func credPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, credFileName), nil
}

// LookupToken finds the bot token and reports its source.
// Priority: SLACK_BOT_TOKEN, system keyring, credentials file, cfg.
func LookupToken(cfg *Config) (string, TokenSource, error) {
	if token := strings.TrimSpace(os.Getenv(TokenEnv)); token != "" {
		return token, SourceEnv, nil
	}

	token, err := keyring.Get(keyringService, keyringUser)
	if err == nil && strings.TrimSpace(token) != "" {
		return strings.TrimSpace(token), SourceKeyring, nil
	}

	path, err := credPath()
	if err != nil {
		return "", SourceNone, err
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil && strings.TrimSpace(string(data)) != "":
		return strings.TrimSpace(string(data)), SourceFile, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return "", SourceNone, fmt.Errorf("failed to read credentials file: %w", err)
	}

	if cfg != nil && cfg.HasValidAuth() {
		return strings.TrimSpace(cfg.Auth.BotToken), SourceConfig, nil
	}
	return "", SourceNone, nil
}

// SaveToken stores the bot token, in the keyring when one is available and
// in a private credentials file otherwise.
func SaveToken(token string) (TokenSource, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return SourceNone, fmt.Errorf("token cannot be empty")
	}

	if err := keyring.Set(keyringService, keyringUser, token); err == nil {
		return SourceKeyring, nil
	}

	path, err := credPath()
	if err != nil {
		return SourceNone, err
	}
	if err := os.WriteFile(path, []byte(token), 0600); err != nil {
		return SourceNone, fmt.Errorf("failed to write credentials file: %w", err)
	}
	return SourceFile, nil
}

// ClearToken removes the stored bot token from the keyring and the
// credentials file.
func ClearToken() error {
	// Try to delete from keyring (ignore errors)
	_ = keyring.Delete(keyringService, keyringUser)

	path, err := credPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove credentials file: %w", err)
	}

	return nil
}

// HasToken returns true if a token is available from any source.
func HasToken(cfg *Config) bool {
	token, _, _ := LookupToken(cfg)
	return token != ""
}
