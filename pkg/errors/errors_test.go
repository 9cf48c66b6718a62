package errors_test

import (
	"errors"
	"testing"

	pkgerrors "github.com/agentstation/factmap/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{
			Resource: "entity",
			ID:       "Q42",
		}
		assert.Equal(t, "entity with ID Q42 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("entity", "Q1")
		wrapped := errors.Join(errors.New("fetch failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("entity_url", "http://www.wikidata.org/entity/", "empty entity ID")
		assert.Equal(t, "validation failed for field entity_url: empty entity ID", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bundle has no record ID"}
		assert.Equal(t, "validation failed: bundle has no record ID", err.Error())
	})
}

func TestMalformedValueError(t *testing.T) {
	err := pkgerrors.NewMalformedValueError("quantity", "12x", "amount is not a decimal")
	assert.Equal(t, `malformed quantity value "12x": amount is not a decimal`, err.Error())
	assert.True(t, pkgerrors.IsMalformedValue(err))
	assert.True(t, pkgerrors.IsValidationError(err))

	err.Property = "P1082"
	assert.Contains(t, err.Error(), "for P1082")
}

func TestAPIError(t *testing.T) {
	tests := []struct {
		name      string
		err       *pkgerrors.APIError
		sentinel  error
		retryable bool
	}{
		{"http 429", pkgerrors.NewAPIError("wbeditentity", 429, "", "slow down"), pkgerrors.ErrRateLimited, true},
		{"maxlag", pkgerrors.NewAPIError("wbeditentity", 200, "maxlag", "lagged"), pkgerrors.ErrRateLimited, true},
		{"server error", pkgerrors.NewAPIError("wbgetentities", 503, "", "unavailable"), pkgerrors.ErrStoreUnavailable, true},
		{"edit conflict", pkgerrors.NewAPIError("wbeditentity", 200, "editconflict", "conflict"), pkgerrors.ErrEditConflict, false},
		{"no response", &pkgerrors.APIError{Endpoint: "wbeditentity", Message: "connection reset"}, pkgerrors.ErrUnreachable, true},
		{"missing entity", pkgerrors.NewAPIError("wbgetentities", 200, "no-such-entity", "gone"), pkgerrors.ErrNotFound, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Equal(t, tt.retryable, pkgerrors.IsRetryable(tt.err))
		})
	}

	t.Run("refused", func(t *testing.T) {
		assert.True(t, pkgerrors.IsRefused(pkgerrors.NewAPIError("wbeditentity", 429, "", "slow down")))
		assert.True(t, pkgerrors.IsRefused(pkgerrors.NewAPIError("wbeditentity", 200, "maxlag", "lagged")))
		assert.False(t, pkgerrors.IsRefused(pkgerrors.NewAPIError("wbeditentity", 502, "", "bad gateway")))
		assert.False(t, pkgerrors.IsRefused(&pkgerrors.APIError{Endpoint: "wbeditentity", Message: "EOF"}))
		assert.False(t, pkgerrors.IsRefused(errors.New("plain")))
	})

	t.Run("message", func(t *testing.T) {
		err := pkgerrors.NewAPIError("wbeditentity", 200, "badtoken", "Invalid CSRF token.")
		assert.Equal(t, "API error from wbeditentity (status 200) [badtoken]: Invalid CSRF token.", err.Error())
	})

	t.Run("unwrap", func(t *testing.T) {
		base := errors.New("connection reset")
		err := &pkgerrors.APIError{Endpoint: "wbgetentities", Message: "request failed", Err: base}
		assert.Equal(t, base, err.Unwrap())
	})
}

func TestAuthenticationError(t *testing.T) {
	err := pkgerrors.NewAuthenticationError("oauth2", "no access token configured", nil)
	assert.Contains(t, err.Error(), "oauth2")
	assert.True(t, errors.Is(err, pkgerrors.ErrTokenRequired))
}

func TestWrapHelpers(t *testing.T) {
	t.Run("nil passthrough", func(t *testing.T) {
		assert.Nil(t, pkgerrors.WrapIO("read", "file", nil))
		assert.Nil(t, pkgerrors.WrapResource("fetch", "record", "Q1", nil))
		assert.Nil(t, pkgerrors.WrapParse("yaml", "bundle.yaml", nil))
	})

	t.Run("WrapResource", func(t *testing.T) {
		base := pkgerrors.ErrEditConflict
		err := pkgerrors.WrapResource("persist", "record", "Q42", base)
		var resErr *pkgerrors.ResourceError
		require.True(t, errors.As(err, &resErr))
		assert.Equal(t, "persist", resErr.Operation)
		assert.True(t, pkgerrors.IsEditConflict(err))
	})

	t.Run("WrapParse", func(t *testing.T) {
		err := pkgerrors.WrapParse("toml", "bundle.toml", errors.New("expected '='"))
		var parseErr *pkgerrors.ParseError
		require.True(t, errors.As(err, &parseErr))
		assert.Equal(t, "parse error in toml file bundle.toml: expected '='", err.Error())
	})
}
