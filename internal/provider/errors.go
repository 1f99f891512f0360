package provider

import (
	"errors"
	"fmt"
)

// Every error returned by a provider wraps exactly one of these.
var (
	// ErrFetch covers bad HTTP status, API-reported errors, unexpected
	// payload structure and transport failures.
	ErrFetch = errors.New("fetch failed")
	// ErrValidation covers input rejected before any request is made.
	ErrValidation = errors.New("invalid input")
)

// Fetchf returns an error wrapping ErrFetch. The format may itself use %w.
func Fetchf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrFetch}, args...)...)
}

// Validationf returns an error wrapping ErrValidation.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
