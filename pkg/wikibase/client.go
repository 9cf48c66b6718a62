// Package wikibase implements record fetching and plan persistence against
// a Wikibase action API, plus identifier resolution over its SPARQL endpoint.
package wikibase

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/agentstation/factmap/internal/transport"
	"github.com/agentstation/factmap/pkg/constants"
	"github.com/agentstation/factmap/pkg/errors"
)

// Client talks to one Wikibase installation. It implements
// reconciler.Fetcher and reconciler.Persister.
type Client struct {
	apiURL    string
	sparqlURL string
	prefix    string
	summary   string
	maxLag    int
	bot       bool
	reads     *transport.Client
	edits     *transport.Client
	codec     codec
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	apiURL         string
	sparqlURL      string
	prefix         string
	token          string
	auth           transport.Authenticator
	userAgent      string
	editsPerMinute int
	httpClient     *http.Client
	summary        string
	maxLag         int
	bot            bool
	retries        *retryOptions
}

type retryOptions struct {
	max        int
	backoff    time.Duration
	maxBackoff time.Duration
}

// WithAPIURL sets the action API endpoint, e.g. https://www.wikidata.org/w/api.php.
func WithAPIURL(u string) Option {
	return func(o *clientOptions) { o.apiURL = u }
}

// WithSPARQLURL sets the query service endpoint.
func WithSPARQLURL(u string) Option {
	return func(o *clientOptions) { o.sparqlURL = u }
}

// WithEntityPrefix sets the concept URI prefix of the installation.
func WithEntityPrefix(prefix string) Option {
	return func(o *clientOptions) { o.prefix = prefix }
}

// WithToken authenticates with an OAuth 2.0 owner-only access token.
func WithToken(token string) Option {
	return func(o *clientOptions) { o.token = token }
}

// WithAuthenticator overrides token authentication.
func WithAuthenticator(a transport.Authenticator) Option {
	return func(o *clientOptions) { o.auth = a }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *clientOptions) { o.userAgent = ua }
}

// WithEditsPerMinute paces API requests. Zero disables pacing.
func WithEditsPerMinute(n int) Option {
	return func(o *clientOptions) { o.editsPerMinute = n }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithSummary sets the edit summary sent with every persisted plan.
func WithSummary(summary string) Option {
	return func(o *clientOptions) { o.summary = summary }
}

// WithMaxLag sets the maxlag parameter. Zero omits it.
func WithMaxLag(seconds int) Option {
	return func(o *clientOptions) { o.maxLag = seconds }
}

// WithBotFlag controls the bot=1 edit flag.
func WithBotFlag(bot bool) Option {
	return func(o *clientOptions) { o.bot = bot }
}

// WithRetries sets the retry budget and backoff bounds.
func WithRetries(maxRetries int, backoff, maxBackoff time.Duration) Option {
	return func(o *clientOptions) {
		o.retries = &retryOptions{max: maxRetries, backoff: backoff, maxBackoff: maxBackoff}
	}
}

// NewClient returns a client for the configured installation. Defaults
// target Wikidata.
func NewClient(opts ...Option) (*Client, error) {
	o := &clientOptions{
		apiURL:         constants.DefaultAPIURL,
		sparqlURL:      constants.DefaultSPARQLURL,
		prefix:         constants.DefaultEntityPrefix,
		userAgent:      constants.DefaultUserAgent,
		editsPerMinute: constants.DefaultEditsPerMinute,
		maxLag:         constants.MaxLag,
		bot:            true,
	}
	for _, opt := range opts {
		opt(o)
	}
	if _, err := url.ParseRequestURI(o.apiURL); err != nil {
		return nil, errors.NewValidationError("api_url", o.apiURL, "not a valid URL")
	}
	if o.auth == nil {
		o.auth = transport.ForToken(o.token)
	}

	topts := []transport.Option{
		transport.WithAuthenticator(o.auth),
		transport.WithUserAgent(o.userAgent),
		transport.WithHTTPClient(o.httpClient),
	}
	if o.retries != nil {
		topts = append(topts, transport.WithRetries(o.retries.max, o.retries.backoff, o.retries.maxBackoff))
	}
	// Only edits are paced; reads go out as fast as the retry policy allows.
	// An edit is resent only when the API refused it outright: after a
	// server error or a dropped connection the write may have landed, and
	// the bot re-runs the record from a fresh fetch instead.
	reads := transport.New(append(slices.Clip(topts), transport.WithRequestsPerMinute(0))...)
	edits := transport.New(append(slices.Clip(topts),
		transport.WithRequestsPerMinute(o.editsPerMinute),
		transport.WithRetryPolicy(errors.IsRefused),
	)...)

	return &Client{
		apiURL:    o.apiURL,
		sparqlURL: o.sparqlURL,
		prefix:    o.prefix,
		summary:   o.summary,
		maxLag:    o.maxLag,
		bot:       o.bot,
		reads:     reads,
		edits:     edits,
		codec:     codec{prefix: o.prefix},
	}, nil
}

// Summary returns the edit summary the client sends.
func (c *Client) Summary() string {
	return c.summary
}

// get issues a GET against the action API.
func (c *Client) get(ctx context.Context, params url.Values, target any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	u := c.apiURL + "?" + params.Encode()
	return c.reads.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	}, target)
}

// post issues a form POST against the action API.
func (c *Client) post(ctx context.Context, params url.Values, target any) error {
	params.Set("format", "json")
	params.Set("formatversion", "2")
	if c.maxLag > 0 {
		params.Set("maxlag", strconv.Itoa(c.maxLag))
	}
	body := params.Encode()
	return c.edits.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}, target)
}
