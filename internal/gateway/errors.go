package gateway

import (
	"fmt"
)

// ValidationError rejects malformed or out-of-bounds input before any
// gated work happens.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// ProviderError wraps a backend failure. It propagates to the caller
// unmodified: not retried, not cached, and it never debits quota.
type ProviderError struct {
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
