package errors

import (
	stdErrors "errors"
	"fmt"
	"time"
)

// RateLimitError is returned when an upstream API keeps answering HTTP 429
// after all retry attempts are used up.
type RateLimitError struct {
	Service    string
	Attempts   int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	msg := fmt.Sprintf("%s: rate limited after %d attempts", e.Service, e.Attempts)
	if e.RetryAfter > 0 {
		msg = fmt.Sprintf("%s (retry after %s)", msg, e.RetryAfter)
	}
	return msg
}

// NewRateLimitError creates a RateLimitError for the given service.
func NewRateLimitError(service string, attempts int) *RateLimitError {
	return &RateLimitError{Service: service, Attempts: attempts}
}

// IsRateLimitError checks if err is (or wraps) a RateLimitError
func IsRateLimitError(err error) bool {
	var rateErr *RateLimitError
	return stdErrors.As(err, &rateErr)
}
