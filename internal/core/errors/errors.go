// Package errors provides centralized error definitions for newsgate.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors are defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Content errors.
var (
	// ErrMalformedContent indicates an article body that is empty or not
	// decodable as text. Recovered locally as an automatic rejection.
	ErrMalformedContent = errors.New("malformed content")
)

// Configuration errors. These are fatal at startup.
var (
	// ErrInvalidConfig indicates invalid or missing configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Collaborator errors.
var (
	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")

	// ErrEmptyResponse indicates an empty response from a collaborator.
	ErrEmptyResponse = errors.New("empty response")

	// ErrClientDisabled indicates a client or feature is disabled.
	ErrClientDisabled = errors.New("client disabled")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
