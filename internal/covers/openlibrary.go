package covers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const (
	openLibraryBaseURL       = "https://openlibrary.org"
	openLibraryCoversBaseURL = "https://covers.openlibrary.org"
	openLibraryService       = "OpenLibrary"
)

// OpenLibrary builds ISBN cover URLs and searches OpenLibrary for cover IDs.
type OpenLibrary struct {
	doer          HTTPDoer
	retry         RetryPolicy
	baseURL       string
	coversBaseURL string
}

// NewOpenLibrary creates an OpenLibrary client. Empty base URLs use the public endpoints.
func NewOpenLibrary(doer HTTPDoer, retry RetryPolicy, baseURL, coversBaseURL string) *OpenLibrary {
	if baseURL == "" {
		baseURL = openLibraryBaseURL
	}
	if coversBaseURL == "" {
		coversBaseURL = openLibraryCoversBaseURL
	}
	return &OpenLibrary{
		doer:          doer,
		retry:         retry,
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		coversBaseURL: strings.TrimSuffix(coversBaseURL, "/"),
	}
}

// CoverURLByISBN returns the large cover URL for a normalized ISBN.
// The URL is deterministic; existence must be checked with a Validator.
func (c *OpenLibrary) CoverURLByISBN(isbn string) string {
	return fmt.Sprintf("%s/b/isbn/%s-L.jpg", c.coversBaseURL, isbn)
}

// CoverURLByID returns the large cover URL for an OpenLibrary cover ID.
func (c *OpenLibrary) CoverURLByID(coverID int) string {
	return fmt.Sprintf("%s/b/id/%d-L.jpg", c.coversBaseURL, coverID)
}

// openLibrarySearchResponse matches the parts of search.json we use.
type openLibrarySearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key     string `json:"key"`
		Title   string `json:"title"`
		CoverID int    `json:"cover_i"`
	} `json:"docs"`
}

// SearchCover looks up title and author on search.json and returns the cover
// URL of the first document that has a cover ID.
func (c *OpenLibrary) SearchCover(ctx context.Context, title, author string) (string, error) {
	if title == "" {
		return "", ErrNoIdentifier
	}

	params := url.Values{}
	params.Set("title", title)
	if author != "" {
		params.Set("author", author)
	}
	params.Set("fields", "key,title,cover_i")
	params.Set("limit", "1")
	endpoint := c.baseURL + "/search.json?" + params.Encode()

	resp, err := c.retry.Do(ctx, openLibraryService, c.doer, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	})
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	var result openLibrarySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%s: %w: %w", openLibraryService, ErrMalformedResponse, err)
	}

	if len(result.Docs) == 0 || result.Docs[0].CoverID <= 0 {
		return "", fmt.Errorf("%s: %w for %q", openLibraryService, ErrNotFound, title)
	}

	slog.Debug("OpenLibrary search matched", "title", title, "work", result.Docs[0].Key, "cover_id", result.Docs[0].CoverID)
	return c.CoverURLByID(result.Docs[0].CoverID), nil
}
