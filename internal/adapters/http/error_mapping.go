package httpadapter

import (
	"net/http"

	"github.com/kirillkom/vector-insight/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrIndexUnavailable):
		return http.StatusServiceUnavailable
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// publicErrorMessage keeps upstream error text out of 5xx responses.
func publicErrorMessage(err error, status int) string {
	switch {
	case status == http.StatusBadRequest, status == http.StatusNotFound:
		return err.Error()
	case domain.IsKind(err, domain.ErrIndexUnavailable):
		return "search index unavailable"
	case status == http.StatusServiceUnavailable:
		return "service temporarily unavailable"
	case status == http.StatusUnauthorized:
		return "unauthorized"
	default:
		return "internal error"
	}
}
