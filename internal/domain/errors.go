package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("market not found")
	ErrMarketClosed        = errors.New("market is closed")
	ErrAlreadyResolved     = errors.New("market already resolved")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotConnected        = errors.New("wallet not connected")
	ErrRateLimited         = errors.New("rate limited")
	ErrExternalService     = errors.New("external service failure")
)

// ValidationError reports a missing or malformed input to a create or resolve
// operation. It carries the offending field so callers can surface a precise
// message.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
