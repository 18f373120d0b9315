package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "qdrant status error"
	}
	if e.Body == "" {
		return fmt.Sprintf("qdrant %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("qdrant %s status: %s: %s", e.Operation, e.Status, e.Body)
}

func classifyQdrantError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if resilience.IsRetryableHTTPStatus(statusErr.StatusCode) {
			return resilience.Transient
		}
		// 404 on a missing collection and 409 on create are expected answers.
		return resilience.Rejected
	}
	return resilience.Broken
}

func hasStatus(err error, code int) bool {
	var statusErr *HTTPStatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// toIndexError maps read-path failures: a missing collection, an unreachable server or an
// open breaker all mean the index cannot serve queries.
func toIndexError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if hasStatus(err, http.StatusNotFound) || resilience.IsCircuitOpen(err) || classifyQdrantError(err).Retryable {
		return domain.WrapError(domain.ErrIndexUnavailable, operation, err)
	}
	return err
}
