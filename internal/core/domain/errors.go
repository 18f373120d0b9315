package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")
	ErrIndexUnavailable = errors.New("index unavailable")
	ErrEmptyResultSet   = errors.New("empty result set")

	// ErrAnalysisPermanent marks generation failures that a retry cannot fix.
	ErrAnalysisPermanent = errors.New("permanent analysis failure")
	ErrQuotaExhausted    = errors.New("quota exhausted")
	ErrRateLimited       = errors.New("rate limited")
	ErrAttemptTimeout    = errors.New("attempt timed out")
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
