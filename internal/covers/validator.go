package covers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	// DefaultMinImageBytes filters the tiny "no cover" placeholders that
	// image hosts serve with HTTP 200.
	DefaultMinImageBytes   = 1000
	defaultValidateTimeout = 5 * time.Second
)

// Outcome is the result of probing a candidate cover URL.
type Outcome int

const (
	// OutcomeValid means the URL answered 2xx with a large enough image.
	OutcomeValid Outcome = iota
	// OutcomeTooSmall means the advertised size is a placeholder (or unknown).
	OutcomeTooSmall
	// OutcomeUnreachable means the host answered with a non-success status.
	OutcomeUnreachable
	// OutcomeError means the probe failed in transport.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeValid:
		return "valid"
	case OutcomeTooSmall:
		return "too-small"
	case OutcomeUnreachable:
		return "unreachable"
	default:
		return "error"
	}
}

// CoverCandidate pairs a URL with its validation outcome.
type CoverCandidate struct {
	URL     string
	Outcome Outcome
	Size    int64
	Err     error
}

// Valid reports whether the candidate passed validation.
func (c CoverCandidate) Valid() bool {
	return c.Outcome == OutcomeValid
}

// Validator checks that a cover URL points at a real image using a HEAD probe.
type Validator struct {
	doer     HTTPDoer
	retry    RetryPolicy
	timeout  time.Duration
	minBytes int64
}

// NewValidator creates a validator. Zero timeout or minBytes fall back to the defaults.
func NewValidator(doer HTTPDoer, retry RetryPolicy, timeout time.Duration, minBytes int64) *Validator {
	if timeout <= 0 {
		timeout = defaultValidateTimeout
	}
	if minBytes <= 0 {
		minBytes = DefaultMinImageBytes
	}
	return &Validator{doer: doer, retry: retry, timeout: timeout, minBytes: minBytes}
}

// Validate reports whether url answers a HEAD request with a success status
// and a Content-Length above the placeholder threshold. It never fails:
// errors, timeouts and missing lengths all count as invalid.
func (v *Validator) Validate(ctx context.Context, url string) bool {
	return v.Check(ctx, url).Valid()
}

// Check probes url and returns the full candidate outcome.
func (v *Validator) Check(ctx context.Context, url string) CoverCandidate {
	candidate := CoverCandidate{URL: url, Size: -1}
	if url == "" {
		candidate.Outcome = OutcomeError
		candidate.Err = ErrNotFound
		return candidate
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	resp, err := v.retry.Do(ctx, "image host", v.doer, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	})
	if err != nil {
		candidate.Err = err
		candidate.Outcome = OutcomeUnreachable
		if isTransportFailure(err) {
			candidate.Outcome = OutcomeError
		}
		slog.Debug("Cover probe failed", "url", url, "outcome", candidate.Outcome, "error", err)
		return candidate
	}
	drain(resp)

	candidate.Size = contentLength(resp)
	if candidate.Size <= v.minBytes {
		candidate.Outcome = OutcomeTooSmall
		slog.Debug("Cover rejected as placeholder", "url", url, "size", candidate.Size)
		return candidate
	}

	candidate.Outcome = OutcomeValid
	return candidate
}

func contentLength(resp *http.Response) int64 {
	if resp.ContentLength >= 0 {
		return resp.ContentLength
	}
	n, err := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	if err != nil {
		return -1
	}
	return n
}
