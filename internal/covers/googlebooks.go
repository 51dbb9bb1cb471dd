package covers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lepinkainen/readingwrapped/internal/ratelimit"
)

const (
	googleBooksBaseURL = "https://www.googleapis.com/books/v1"
	googleBooksService = "Google Books"
)

// GoogleBooks searches the Google Books volumes API for thumbnail links.
type GoogleBooks struct {
	doer    HTTPDoer
	retry   RetryPolicy
	baseURL string
	apiKey  string
	limiter *ratelimit.Limiter
}

// NewGoogleBooks creates a Google Books client. The API key is optional.
func NewGoogleBooks(doer HTTPDoer, retry RetryPolicy, baseURL, apiKey string) *GoogleBooks {
	if baseURL == "" {
		baseURL = googleBooksBaseURL
	}
	return &GoogleBooks{
		doer:    doer,
		retry:   retry,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
	}
}

// googleBooksResponse matches the Google Books API response structure.
type googleBooksResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title      string `json:"title"`
			ImageLinks struct {
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// WithLimiter paces outgoing volume searches. A nil limiter disables pacing.
func (c *GoogleBooks) WithLimiter(limiter *ratelimit.Limiter) *GoogleBooks {
	c.limiter = limiter
	return c
}

// SearchByISBN returns the thumbnail of the first volume matching isbn.
func (c *GoogleBooks) SearchByISBN(ctx context.Context, isbn string) (string, error) {
	if isbn == "" {
		return "", ErrNoIdentifier
	}
	return c.search(ctx, "isbn:"+isbn)
}

// SearchByTitle returns the thumbnail of the first volume matching title and author.
func (c *GoogleBooks) SearchByTitle(ctx context.Context, title, author string) (string, error) {
	if title == "" {
		return "", ErrNoIdentifier
	}
	query := "intitle:" + url.QueryEscape(title)
	if author != "" {
		query += "+inauthor:" + url.QueryEscape(author)
	}
	return c.search(ctx, query)
}

// search runs a volumes query. query must already be escaped.
func (c *GoogleBooks) search(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/volumes?q=%s", c.baseURL, query)
	if c.apiKey != "" {
		endpoint = fmt.Sprintf("%s&key=%s", endpoint, url.QueryEscape(c.apiKey))
	}

	resp, err := c.retry.Do(ctx, googleBooksService, c.doer, func(ctx context.Context) (*http.Request, error) {
		// Every attempt, retries included, waits its turn
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result googleBooksResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%s: %w: %w", googleBooksService, ErrMalformedResponse, err)
	}

	if len(result.Items) == 0 {
		return "", fmt.Errorf("%s: %w for %s", googleBooksService, ErrNotFound, query)
	}

	// Prefer the larger thumbnail
	links := result.Items[0].VolumeInfo.ImageLinks
	thumbnail := links.Thumbnail
	if thumbnail == "" {
		thumbnail = links.SmallThumbnail
	}
	if thumbnail == "" {
		return "", fmt.Errorf("%s: %w: first volume has no image links", googleBooksService, ErrNotFound)
	}

	slog.Debug("Google Books volume matched", "query", query, "title", result.Items[0].VolumeInfo.Title)
	return secureURL(thumbnail), nil
}

// secureURL upgrades http:// links to https://.
func secureURL(link string) string {
	if rest, ok := strings.CutPrefix(link, "http://"); ok {
		return "https://" + rest
	}
	return link
}
