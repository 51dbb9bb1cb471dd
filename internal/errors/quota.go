package errors

import (
	stdErrors "errors"
	"fmt"
)

// QuotaExceededError represents an HTTP 403 from an API that signals the
// daily quota (or the API key) is exhausted. It is never retried.
type QuotaExceededError struct {
	Service    string
	StatusCode int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("%s: quota exceeded (HTTP %d)", e.Service, e.StatusCode)
}

// NewQuotaExceededError creates a QuotaExceededError for the given service.
func NewQuotaExceededError(service string, statusCode int) *QuotaExceededError {
	return &QuotaExceededError{Service: service, StatusCode: statusCode}
}

// IsQuotaExceededError reports whether err is a QuotaExceededError (even when wrapped).
func IsQuotaExceededError(err error) bool {
	var quotaErr *QuotaExceededError
	return stdErrors.As(err, &quotaErr)
}
