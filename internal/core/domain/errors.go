package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks caller-fault input (empty text, short query).
	// Surfaced immediately, never retried.
	ErrValidation = errors.New("validation failed")
	// ErrAuth marks missing or invalid source credentials. Connectors convert
	// it to a placeholder document; it never crosses a connector boundary.
	ErrAuth = errors.New("authentication failed")
	// ErrTransient marks rate limits and network blips on provider calls.
	// Retried with backoff, then surfaced.
	ErrTransient = errors.New("temporary failure")
	// ErrConfiguration marks missing required keys. Fatal, no fallback.
	ErrConfiguration = errors.New("configuration invalid")

	ErrDocumentNotFound = errors.New("document not found")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
