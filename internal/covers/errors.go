package covers

import "errors"

var (
	// ErrNotFound is returned when a source has no match for the query.
	ErrNotFound = errors.New("no match")

	// ErrNoIdentifier is returned when a query has neither an ISBN nor a title.
	ErrNoIdentifier = errors.New("no ISBN or title to look up")

	// ErrMalformedResponse is returned when an API answers with a body that cannot be decoded.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrNetwork wraps transport level failures.
	ErrNetwork = errors.New("network failure")

	// ErrTimeout wraps requests that ran out of time.
	ErrTimeout = errors.New("request timed out")

	// ErrUnexpectedStatus is returned when retries for a non-2xx status are exhausted.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

func isTransportFailure(err error) bool {
	return errors.Is(err, ErrNetwork) || errors.Is(err, ErrTimeout)
}
