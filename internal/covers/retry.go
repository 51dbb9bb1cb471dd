package covers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	apperrors "github.com/lepinkainen/readingwrapped/internal/errors"
)

const (
	defaultMaxAttempts = 3
	defaultBackoffBase = time.Second
)

// RetryPolicy decides how a source client reacts to non-2xx answers.
// Both source clients and the image validator share one policy.
type RetryPolicy struct {
	// MaxAttempts is the total number of requests made for one call.
	MaxAttempts int
	// Backoff returns the pause after the given failed attempt (1-based).
	Backoff func(attempt, status int) time.Duration
	// Retryable reports whether a status is worth another attempt.
	Retryable func(status int) bool
	// Sleep pauses between attempts. Nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy backs off exponentially on 429 (base, 2*base, 4*base...)
// and linearly on other retryable statuses.
func DefaultRetryPolicy(maxAttempts int, base time.Duration) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if base <= 0 {
		base = defaultBackoffBase
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt, status int) time.Duration {
			if status == http.StatusTooManyRequests {
				return base << (attempt - 1)
			}
			return time.Duration(attempt) * base / 2
		},
		Retryable: retryableStatus,
	}
}

// retryableStatus retries everything except quota errors and plain misses.
func retryableStatus(status int) bool {
	switch status {
	case http.StatusForbidden, http.StatusNotFound, http.StatusUnauthorized:
		return false
	}
	return true
}

// Do issues the request built by newReq until it succeeds with a 2xx status or
// the policy gives up. The caller owns the returned body.
//
// 403 is reported as a QuotaExceededError without retrying, 404 as ErrNotFound,
// exhausted 429s as a RateLimitError and transport failures as ErrTimeout or
// ErrNetwork.
func (p RetryPolicy) Do(ctx context.Context, service string, doer HTTPDoer, newReq func(context.Context) (*http.Request, error)) (*http.Response, error) {
	maxAttempts := max(p.MaxAttempts, 1)

	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		req, err := newReq(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: creating request: %w", service, err)
		}

		resp, err := doer.Do(req)
		if err != nil {
			return nil, classifyTransportError(service, err)
		}

		status := resp.StatusCode
		if status >= 200 && status < 300 {
			return resp, nil
		}
		drain(resp)
		lastStatus = status

		switch {
		case status == http.StatusForbidden:
			return nil, apperrors.NewQuotaExceededError(service, status)
		case status == http.StatusNotFound:
			return nil, fmt.Errorf("%s: %w", service, ErrNotFound)
		case p.Retryable != nil && !p.Retryable(status):
			return nil, fmt.Errorf("%s: %w %d", service, ErrUnexpectedStatus, status)
		}

		if attempt == maxAttempts {
			break
		}

		delay := p.backoff(attempt, status)
		slog.Debug("Retrying request", "service", service, "status", status, "attempt", attempt, "delay", delay)
		if err := p.sleep(ctx, delay); err != nil {
			return nil, fmt.Errorf("%s: %w", service, err)
		}
	}

	if lastStatus == http.StatusTooManyRequests {
		return nil, apperrors.NewRateLimitError(service, maxAttempts)
	}
	return nil, fmt.Errorf("%s: %w %d after %d attempts", service, ErrUnexpectedStatus, lastStatus, maxAttempts)
}

func (p RetryPolicy) backoff(attempt, status int) time.Duration {
	if p.Backoff == nil {
		return 0
	}
	return p.Backoff(attempt, status)
}

func (p RetryPolicy) sleep(ctx context.Context, d time.Duration) error {
	if p.Sleep != nil {
		return p.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func classifyTransportError(service string, err error) error {
	var timeout interface{ Timeout() bool }
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &timeout) && timeout.Timeout()) {
		return fmt.Errorf("%s: %w: %w", service, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w: %w", service, ErrNetwork, err)
}

// drain discards a bounded amount of the body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
