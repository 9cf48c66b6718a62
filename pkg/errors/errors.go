// Package errors provides custom error types for factmap.
// Callers check errors programmatically with errors.Is against the sentinel
// values below, or with errors.As against the typed errors.
package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Join is an alias for the standard library errors.Join.
var Join = errors.Join

// Common sentinel errors
var (
	// ErrNotFound indicates that a requested entity or resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedValue indicates a value failed kind-specific validation
	ErrMalformedValue = errors.New("malformed value")

	// ErrTokenRequired indicates that an edit token or credential is required but not provided
	ErrTokenRequired = errors.New("token required")

	// ErrRateLimited indicates that the store throttled the request (HTTP 429 or maxlag)
	ErrRateLimited = errors.New("rate limited")

	// ErrStoreUnavailable indicates that the store is temporarily unavailable
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEditConflict indicates that the record changed since it was fetched
	ErrEditConflict = errors.New("edit conflict")

	// ErrUnreachable indicates that the request got no HTTP response
	ErrUnreachable = errors.New("store unreachable")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError represents a validation failure
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// MalformedValueError reports a value that failed the rules of its kind.
// Property is empty when the value was validated outside of a snak.
type MalformedValueError struct {
	Kind     string
	Property string
	Value    string
	Message  string
}

// Error implements the error interface
func (e *MalformedValueError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("malformed %s value %q for %s: %s", e.Kind, e.Value, e.Property, e.Message)
	}
	return fmt.Sprintf("malformed %s value %q: %s", e.Kind, e.Value, e.Message)
}

// Is implements errors.Is support
func (e *MalformedValueError) Is(target error) bool {
	return target == ErrMalformedValue || target == ErrInvalidInput
}

// NewMalformedValueError creates a new MalformedValueError
func NewMalformedValueError(kind, value, message string) *MalformedValueError {
	return &MalformedValueError{Kind: kind, Value: value, Message: message}
}

// APIError represents an error returned by the store's HTTP API.
// Code carries the API error code (e.g. "maxlag", "editconflict") when the
// request reached the API but was refused.
type APIError struct {
	Endpoint   string
	StatusCode int
	Code       string
	Message    string
	// RetryAfter is the server-requested delay before retrying, if any.
	RetryAfter time.Duration
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString("API error")
	if e.Endpoint != "" {
		fmt.Fprintf(&b, " from %s", e.Endpoint)
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " [%s]", e.Code)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	return b.String()
}

// Unwrap implements errors.Unwrap
func (e *APIError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == 429 || e.Code == "maxlag" || e.Code == "ratelimited"
	case ErrStoreUnavailable:
		return e.StatusCode >= 500
	case ErrUnreachable:
		return e.StatusCode == 0 && e.Code == ""
	case ErrEditConflict:
		return e.Code == "editconflict"
	case ErrNotFound:
		return e.Code == "no-such-entity"
	}
	return false
}

// Retryable reports whether resending the same request may succeed.
// An edit conflict is not: it needs a fresh fetch.
func (e *APIError) Retryable() bool {
	return e.Is(ErrRateLimited) || e.Is(ErrStoreUnavailable) || e.Is(ErrUnreachable)
}

// Refused reports whether the store turned the request away before acting
// on it, so a resend cannot apply it twice.
func (e *APIError) Refused() bool {
	return e.Is(ErrRateLimited)
}

// NewAPIError creates a new APIError
func NewAPIError(endpoint string, statusCode int, code, message string) *APIError {
	return &APIError{
		Endpoint:   endpoint,
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", "toml", "wikibase-json"
	File    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open"
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// ResourceError represents an error during resource operations
type ResourceError struct {
	Operation string // "fetch", "persist", "build", "resolve"
	Resource  string // "record", "bundle", "plan", "config"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// AuthenticationError represents an authentication/authorization error
type AuthenticationError struct {
	Method  string // "oauth2", "bearer", "csrf"
	Message string
	Err     error
}

// Error implements the error interface
func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication error (%s): %s", e.Method, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrTokenRequired
}

// NewAuthenticationError creates a new AuthenticationError
func NewAuthenticationError(method, message string, err error) *AuthenticationError {
	return &AuthenticationError{
		Method:  method,
		Message: message,
		Err:     err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsMalformedValue checks if an error is a malformed value error
func IsMalformedValue(err error) bool {
	return errors.Is(err, ErrMalformedValue)
}

// IsRateLimited checks if an error is a rate limit error
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// IsEditConflict checks if an error is an edit conflict
func IsEditConflict(err error) bool {
	return errors.Is(err, ErrEditConflict)
}

// IsRetryable reports whether err is an APIError that may succeed on retry.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// IsRefused reports whether err is an APIError for a request the store
// did not act on.
func IsRefused(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Refused()
	}
	return false
}

// As is an alias for the standard library errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is an alias for the standard library errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// Helper wrapping functions for common patterns

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Operation: operation, Path: path, Message: err.Error(), Err: err}
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return &ResourceError{Operation: operation, Resource: resource, ID: id, Message: err.Error(), Err: err}
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
