package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kirillkom/vector-insight/internal/core/domain"
	"github.com/kirillkom/vector-insight/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	APIStatus  string
	Message    string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "gemini status error"
	}
	detail := strings.TrimSpace(e.Message)
	if detail == "" {
		detail = strings.TrimSpace(e.Body)
	}
	if detail == "" {
		return fmt.Sprintf("gemini %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("gemini %s status: %s: %s", e.Operation, e.Status, detail)
}

// classifyGenerateError tags a transport error with the domain kind the analysis
// layer retries or reports on. Context errors pass through untouched.
func classifyGenerateError(operation string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden:
			return domain.WrapError(domain.ErrUnauthorized, operation, err)
		case statusErr.StatusCode == http.StatusTooManyRequests && isQuotaExhausted(statusErr):
			return domain.WrapError(domain.ErrQuotaExhausted, operation, err)
		case statusErr.StatusCode == http.StatusTooManyRequests:
			return domain.WrapError(domain.ErrTemporary, operation, domain.WrapError(domain.ErrRateLimited, operation, err))
		case resilience.IsRetryableHTTPStatus(statusErr.StatusCode):
			return domain.WrapError(domain.ErrTemporary, operation, err)
		case statusErr.StatusCode == http.StatusBadRequest:
			if statusErr.APIStatus == "FAILED_PRECONDITION" {
				return domain.WrapError(domain.ErrAnalysisPermanent, operation, err)
			}
			return domain.WrapError(domain.ErrInvalidInput, operation, err)
		default:
			return domain.WrapError(domain.ErrAnalysisPermanent, operation, err)
		}
	}

	if resilience.IsNetworkError(err) {
		return domain.WrapError(domain.ErrTemporary, operation, err)
	}
	return domain.WrapError(domain.ErrAnalysisPermanent, operation, err)
}

// isQuotaExhausted separates a spent quota from a short-lived rate limit; Gemini
// reports both as RESOURCE_EXHAUSTED.
func isQuotaExhausted(e *HTTPStatusError) bool {
	msg := strings.ToLower(e.Message + " " + e.Body)
	return strings.Contains(msg, "quota") && !strings.Contains(msg, "per minute")
}
