package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
	"golang.org/x/time/rate"
)

const (
	// BaseURL is the Slack Web API base URL.
	BaseURL = "https://slack.com/api/"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default number of requests per second.
	DefaultRateLimit = 1.0

	// DefaultBurst is the number of requests allowed before the limiter kicks in.
	DefaultBurst = 5

	pageSize = 200
)

// Client is the Slack Web API client used by the CLI and the chat session.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	slack      *slack.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root (tests, proxies).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithRateLimit sets the sustained request rate and burst.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		lim := rate.Limit(perSecond)
		if perSecond <= 0 {
			lim = rate.Inf
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(lim, burst)
	}
}

// WithTimeout sets the HTTP timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a new Slack API client with the given bot token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL: BaseURL,
		token:   token,
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rebuild()
	return c
}

// SetHTTPClient allows overriding the default HTTP client (useful for testing).
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
	c.rebuild()
}

func (c *Client) rebuild() {
	c.slack = slack.New(c.token,
		slack.OptionHTTPClient(c.httpClient),
		slack.OptionAPIURL(c.baseURL),
	)
}

// wait blocks until the limiter admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// AuthTest verifies the token and returns who it belongs to.
func (c *Client) AuthTest(ctx context.Context) (*Identity, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.slack.AuthTestContext(ctx)
	if err != nil {
		return nil, wrapError("auth.test", err)
	}
	return &Identity{
		UserID: resp.UserID,
		User:   resp.User,
		TeamID: resp.TeamID,
		Team:   resp.Team,
		BotID:  resp.BotID,
	}, nil
}
