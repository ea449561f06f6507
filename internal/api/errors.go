package api

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/slack-go/slack"
)

// APIError represents an error returned by the Slack Web API.
type APIError struct {
	Method     string
	StatusCode int
	Code       string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *APIError) Error() string {
	switch {
	case e.Code != "" && e.StatusCode != 0:
		return fmt.Sprintf("%s: API error (status %d): %s", e.Method, e.StatusCode, e.Code)
	case e.Code != "":
		return fmt.Sprintf("%s: API error: %s", e.Method, e.Code)
	default:
		return fmt.Sprintf("%s: API error (status %d)", e.Method, e.StatusCode)
	}
}

// IsNotFound returns true if the requested object does not exist.
func (e *APIError) IsNotFound() bool {
	switch e.Code {
	case "channel_not_found", "user_not_found", "message_not_found", "thread_not_found":
		return true
	}
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the token is missing, invalid or revoked.
func (e *APIError) IsUnauthorized() bool {
	switch e.Code {
	case "not_authed", "invalid_auth", "token_revoked", "token_expired", "account_inactive":
		return true
	}
	return e.StatusCode == http.StatusUnauthorized
}

// IsRateLimited returns true if the error is a 429 Too Many Requests error.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == "ratelimited"
}

// IsMissingScope returns true if the token lacks an OAuth scope for the method.
func (e *APIError) IsMissingScope() bool {
	return e.Code == "missing_scope"
}

// IsNotInChannel returns true if the bot has to be invited first.
func (e *APIError) IsNotInChannel() bool {
	return e.Code == "not_in_channel"
}

// IsServerError returns true if the error is a 5xx server error.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// Remediation returns hints the user can act on, or nil.
func (e *APIError) Remediation() []string {
	switch {
	case e.IsMissingScope():
		return []string{
			"The bot token is missing an OAuth scope for " + e.Method + ".",
			"Add channels:read, channels:history, groups:read, groups:history, chat:write,",
			"users:read and usergroups:read under OAuth & Permissions, then reinstall the app.",
		}
	case e.IsNotInChannel():
		return []string{
			"The bot is not a member of this channel.",
			"Invite it from Slack with /invite @your-bot-name and try again.",
		}
	case e.Code == "channel_not_found":
		return []string{
			"Channel not found. Use the channel ID from `slack-tui list`,",
			"or check that the bot can see private channels it was invited to.",
		}
	case e.IsUnauthorized():
		return []string{"The token was rejected. Run `slack-tui login` with a valid bot token."}
	case e.IsRateLimited():
		return []string{fmt.Sprintf("Slack is rate limiting this client; retry in %s.", e.RetryAfter)}
	}
	return nil
}

// IsAPIError checks if an error is an APIError and returns it.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

var slackCode = regexp.MustCompile(`^[a-z][a-z_]*$`)

// wrapError maps slack-go errors onto *APIError. Transport failures keep
// their own type and are only wrapped with the method name.
func wrapError(method string, err error) error {
	if err == nil {
		return nil
	}

	var (
		resp    slack.SlackErrorResponse
		limited *slack.RateLimitedError
		status  slack.StatusCodeError
	)
	switch {
	case errors.As(err, &limited):
		return &APIError{Method: method, StatusCode: http.StatusTooManyRequests, Code: "ratelimited", RetryAfter: limited.RetryAfter}
	case errors.As(err, &status):
		return &APIError{Method: method, StatusCode: status.Code}
	case errors.As(err, &resp):
		return &APIError{Method: method, Code: resp.Err}
	case slackCode.MatchString(err.Error()):
		// Some endpoints still surface the bare error code.
		return &APIError{Method: method, Code: err.Error()}
	}
	return fmt.Errorf("%s: %w", method, err)
}
