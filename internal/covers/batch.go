package covers

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lepinkainen/readingwrapped/internal/ratelimit"
)

const defaultRequestTimeout = 10 * time.Second

// Scheduler resolves covers for a whole book list concurrently.
type Scheduler struct {
	newHTTPClient        func() *http.Client
	retry                RetryPolicy
	validateTimeout      time.Duration
	minImageBytes        int64
	concurrency          int
	openLibraryBaseURL   string
	openLibraryCoversURL string
	googleBooksBaseURL   string
	googleBooksAPIKey    string
	googleBooksLimiter   *ratelimit.Limiter
}

// Option is a functional option for configuring the Scheduler.
type Option func(*Scheduler)

// NewScheduler creates a Scheduler with production endpoints and defaults.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		retry:           DefaultRetryPolicy(defaultMaxAttempts, defaultBackoffBase),
		validateTimeout: defaultValidateTimeout,
		minImageBytes:   DefaultMinImageBytes,
	}
	s.newHTTPClient = func() *http.Client { return newPooledClient(defaultRequestTimeout) }

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithHTTPClientFactory sets how the per-batch HTTP client is built.
func WithHTTPClientFactory(factory func() *http.Client) Option {
	return func(s *Scheduler) {
		if factory != nil {
			s.newHTTPClient = factory
		}
	}
}

// WithRequestTimeout sets the timeout of each API request made by a batch.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.newHTTPClient = func() *http.Client { return newPooledClient(timeout) }
		}
	}
}

// WithRetryPolicy sets the retry policy shared by all source clients.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(s *Scheduler) {
		s.retry = policy
	}
}

// WithValidation sets the image probe timeout and placeholder threshold.
func WithValidation(timeout time.Duration, minBytes int64) Option {
	return func(s *Scheduler) {
		if timeout > 0 {
			s.validateTimeout = timeout
		}
		if minBytes > 0 {
			s.minImageBytes = minBytes
		}
	}
}

// WithConcurrency caps the number of books resolved at once. Zero means no cap.
func WithConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n >= 0 {
			s.concurrency = n
		}
	}
}

// WithOpenLibraryURLs overrides the OpenLibrary API and covers hosts.
func WithOpenLibraryURLs(baseURL, coversURL string) Option {
	return func(s *Scheduler) {
		s.openLibraryBaseURL = baseURL
		s.openLibraryCoversURL = coversURL
	}
}

// WithGoogleBooks overrides the Google Books base URL and API key.
func WithGoogleBooks(baseURL, apiKey string) Option {
	return func(s *Scheduler) {
		s.googleBooksBaseURL = baseURL
		s.googleBooksAPIKey = apiKey
	}
}

// WithGoogleBooksRate limits Google Books searches to perMinute across all
// batches of this scheduler. Zero disables the limit.
func WithGoogleBooksRate(perMinute int) Option {
	return func(s *Scheduler) {
		s.googleBooksLimiter = nil
		if perMinute > 0 {
			s.googleBooksLimiter = ratelimit.PerMinute(googleBooksService, perMinute, 1)
		}
	}
}

// Resolve looks up covers for every query with a derivable key and waits for
// all lookups to finish. One HTTP client (and its connection pool) is shared
// by the batch and released before returning. A failing or panicking lookup
// only affects its own book.
func (s *Scheduler) Resolve(ctx context.Context, queries []BookQuery) BatchResult {
	results := make(BatchResult, len(queries))
	pending := make(map[Key]BookQuery, len(queries))
	skipped := 0
	for _, q := range queries {
		key := q.Key()
		if !key.Valid() {
			skipped++
			continue
		}
		if _, seen := pending[key]; seen {
			continue
		}
		pending[key] = q
		results[key] = ""
	}

	if len(pending) == 0 {
		slog.Debug("No books with a lookup key", "skipped", skipped)
		return results
	}

	client := s.newHTTPClient()
	defer client.CloseIdleConnections()

	resolver := s.newResolver(client)
	start := time.Now()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}

	for key, q := range pending {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("Cover lookup panicked", "book", key.String(), "panic", r)
				}
			}()

			resolution := resolver.Resolve(ctx, q)
			if !resolution.Found() {
				return nil
			}

			mu.Lock()
			results[key] = resolution.URL
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slog.Info("Cover lookup finished",
		"books", len(pending),
		"found", results.Found(),
		"skipped", skipped,
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return results
}

func (s *Scheduler) newResolver(doer HTTPDoer) *Resolver {
	return NewResolver(
		NewOpenLibrary(doer, s.retry, s.openLibraryBaseURL, s.openLibraryCoversURL),
		NewGoogleBooks(doer, s.retry, s.googleBooksBaseURL, s.googleBooksAPIKey).WithLimiter(s.googleBooksLimiter),
		NewValidator(doer, s.retry, s.validateTimeout, s.minImageBytes),
	)
}

// newPooledClient returns a client with its own transport so a batch can
// release its connections without touching http.DefaultTransport.
func newPooledClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 16
	return &http.Client{Timeout: timeout, Transport: transport}
}
