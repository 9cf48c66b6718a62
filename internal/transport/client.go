// Package transport is the HTTP layer for the Wikibase and SPARQL
// endpoints: authentication, user agent, request pacing and retries.
package transport

import (
	"context"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
	"github.com/agentstation/factmap/pkg/logging"
)

// Client provides HTTP client functionality with authentication.
type Client struct {
	http       *http.Client
	auth       Authenticator
	limiter    *rate.Limiter
	userAgent  string
	maxRetries int
	backoff    time.Duration
	maxBackoff time.Duration
	retryable  func(error) bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithAuthenticator sets the credentials.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		if a != nil {
			c.auth = a
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRequestsPerMinute paces requests. Zero or less disables pacing.
func WithRequestsPerMinute(n int) Option {
	return func(c *Client) {
		if n <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), constants.BurstSize)
	}
}

// WithRetries sets the retry budget and the base and maximum backoff.
func WithRetries(maxRetries int, backoff, maxBackoff time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.backoff = backoff
		c.maxBackoff = maxBackoff
	}
}

// WithRetryPolicy decides which failures are resent. The default is
// errors.IsRetryable. Non-idempotent requests should use errors.IsRefused,
// since a server error or dropped connection may follow a committed write.
func WithRetryPolicy(retryable func(error) bool) Option {
	return func(c *Client) {
		if retryable != nil {
			c.retryable = retryable
		}
	}
}

// New creates a new transport client.
func New(opts ...Option) *Client {
	c := &Client{
		http:       &http.Client{Timeout: constants.DefaultHTTPTimeout},
		auth:       &NoAuth{},
		userAgent:  constants.DefaultUserAgent,
		maxRetries: constants.MaxRetries,
		backoff:    constants.RetryBackoff,
		maxBackoff: constants.MaxRetryBackoff,
		retryable:  errors.IsRetryable,
	}
	WithRequestsPerMinute(constants.DefaultEditsPerMinute)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Authenticated reports whether the client carries credentials.
func (c *Client) Authenticated() bool {
	return c.auth.Authenticated()
}

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Do sends the request built by build and decodes the JSON response into
// target, retrying retryable API errors with exponential backoff. A
// Retry-After header overrides the computed delay.
func (c *Client) Do(ctx context.Context, build RequestFunc, target any) error {
	logger := logging.FromContext(ctx)
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.delay(attempt, lastErr)
			logger.Debug().
				Int("attempt", attempt).
				Dur("delay", delay).
				Err(lastErr).
				Msg("Retrying request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		lastErr = c.once(ctx, build, target)
		if lastErr == nil || !c.retryable(lastErr) {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, build RequestFunc, target any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
	}
	req, err := build(ctx)
	if err != nil {
		return errors.WrapResource("create", "request", "", err)
	}
	c.auth.Apply(req)
	req.Header.Set("User-Agent", c.userAgent)
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &errors.APIError{Endpoint: req.URL.Host, Message: err.Error(), Err: err}
	}
	return DecodeResponse(resp, target)
}

// delay is base * 2^(attempt-1) with jitter, capped, unless the server
// asked for a specific wait.
func (c *Client) delay(attempt int, lastErr error) time.Duration {
	var apiErr *errors.APIError
	if errors.As(lastErr, &apiErr) && apiErr.RetryAfter > 0 {
		return min(apiErr.RetryAfter, c.maxBackoff)
	}
	d := c.backoff << (attempt - 1)
	if d <= 0 || d > c.maxBackoff {
		d = c.maxBackoff
	}
	if d > 0 {
		d += time.Duration(rand.Int63n(int64(d)/4 + 1))
	}
	return min(d, c.maxBackoff)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
