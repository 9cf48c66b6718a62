package transport

import (
	"net/http"
)

// Authenticator applies credentials to HTTP requests.
type Authenticator interface {
	Apply(req *http.Request)
	// Authenticated reports whether credentials are present, so callers
	// can refuse to attempt edits anonymously.
	Authenticated() bool
}

// NoAuth implements anonymous access.
type NoAuth struct{}

// Apply implements the Authenticator interface for NoAuth.
func (a *NoAuth) Apply(_ *http.Request) {}

// Authenticated implements the Authenticator interface for NoAuth.
func (a *NoAuth) Authenticated() bool { return false }

// BearerAuth implements OAuth 2.0 bearer token authentication, as used by
// owner-only consumers on Wikimedia wikis.
type BearerAuth struct {
	Token string
}

// Apply implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Apply(req *http.Request) {
	if a.Token != "" {
		req.Header.Set("Authorization", "Bearer "+a.Token)
	}
}

// Authenticated implements the Authenticator interface for BearerAuth.
func (a *BearerAuth) Authenticated() bool { return a.Token != "" }

// HeaderAuth sends the token in a custom header, for proxies in front of
// private Wikibase installs.
type HeaderAuth struct {
	Header string
	Token  string
}

// Apply implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Apply(req *http.Request) {
	if a.Header != "" && a.Token != "" {
		req.Header.Set(a.Header, a.Token)
	}
}

// Authenticated implements the Authenticator interface for HeaderAuth.
func (a *HeaderAuth) Authenticated() bool { return a.Header != "" && a.Token != "" }

// ForToken returns BearerAuth for a non-empty token and NoAuth otherwise.
func ForToken(token string) Authenticator {
	if token == "" {
		return &NoAuth{}
	}
	return &BearerAuth{Token: token}
}
