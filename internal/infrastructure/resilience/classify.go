package resilience

import (
	"context"
	"errors"
	"net"
	"net/http"
)

var (
	// Transient failures are retried and count against the breaker.
	Transient = ErrorClassification{Retryable: true, RecordFailure: true}
	// Rejected failures are the caller's doing: cancellation, bad input, an open breaker.
	Rejected = ErrorClassification{Retryable: false, RecordFailure: false}
	// Broken failures are not worth retrying but still say the upstream is unhealthy.
	Broken = ErrorClassification{Retryable: false, RecordFailure: true}
)

// ClassifyCommon handles what every upstream shares. ok=false leaves err to the adapter.
func ClassifyCommon(err error) (ErrorClassification, bool) {
	switch {
	case err == nil:
		return ErrorClassification{}, true
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return Rejected, true
	case IsCircuitOpen(err):
		return Rejected, true
	case IsNetworkError(err):
		return Transient, true
	}
	return ErrorClassification{}, false
}

func IsNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

func IsRetryableHTTPStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
