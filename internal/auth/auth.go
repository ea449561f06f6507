// Package auth resolves and verifies the Slack bot token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/config"
)

// ErrNoToken is returned when no token is configured anywhere.
var ErrNoToken = errors.New("no Slack token configured")

// tokenPrefixes are the token kinds the Web API accepts for this client.
var tokenPrefixes = []string{"xoxb-", "xoxp-"}

// Verifier checks a token against Slack.
type Verifier interface {
	AuthTest(ctx context.Context) (*api.Identity, error)
}

// ResolveToken returns the token to use and where it came from.
func ResolveToken(cfg *config.Config) (string, config.TokenSource, error) {
	token, src, err := config.LookupToken(cfg)
	if err != nil {
		return "", config.SourceNone, fmt.Errorf("failed to read credentials: %w", err)
	}
	if token == "" {
		return "", config.SourceNone, ErrNoToken
	}
	if err := CheckFormat(token); err != nil {
		return "", src, fmt.Errorf("token from %s: %w", src, err)
	}
	return token, src, nil
}

// CheckFormat rejects strings that cannot be Slack tokens.
func CheckFormat(token string) error {
	if strings.ContainsAny(token, " \t\r\n") {
		return errors.New("token contains whitespace")
	}
	for _, p := range tokenPrefixes {
		if strings.HasPrefix(token, p) && len(token) > len(p) {
			return nil
		}
	}
	return fmt.Errorf("token must start with %s", strings.Join(tokenPrefixes, " or "))
}

// Verify calls auth.test and returns the identity behind the token.
func Verify(ctx context.Context, v Verifier) (*api.Identity, error) {
	id, err := v.AuthTest(ctx)
	if err != nil {
		if apiErr, ok := api.IsAPIError(err); ok && apiErr.IsUnauthorized() {
			return nil, fmt.Errorf("token rejected by Slack (%s): %w", apiErr.Code, err)
		}
		return nil, fmt.Errorf("failed to verify token: %w", err)
	}
	return id, nil
}
