package covers

import (
	"context"
	"log/slog"
	"strings"
)

// Step names the lookup strategy that produced a cover.
type Step string

const (
	StepOpenLibraryISBN   Step = "openlibrary-isbn"
	StepGoogleBooksISBN   Step = "googlebooks-isbn"
	StepGoogleBooksTitle  Step = "googlebooks-title"
	StepOpenLibrarySearch Step = "openlibrary-search"
)

// Resolution is the terminal state of resolving one book: Found when URL is
// set, NotFound otherwise.
type Resolution struct {
	URL  string
	Step Step
}

// Found reports whether a validated cover was resolved.
func (r Resolution) Found() bool {
	return r.URL != ""
}

type resolveStep struct {
	name    Step
	applies func(isbn, title string) bool
	lookup  func(ctx context.Context, isbn, title, author string) (string, error)
}

// Resolver tries the cover sources for one book in a fixed priority order.
type Resolver struct {
	validator *Validator
	steps     []resolveStep
}

// NewResolver wires the sources into the lookup order:
// OpenLibrary by ISBN, Google Books by ISBN, Google Books by title and author,
// then OpenLibrary search by title and author.
func NewResolver(openLibrary *OpenLibrary, googleBooks *GoogleBooks, validator *Validator) *Resolver {
	hasISBN := func(isbn, _ string) bool { return isbn != "" }
	hasTitle := func(_, title string) bool { return title != "" }

	return &Resolver{
		validator: validator,
		steps: []resolveStep{
			{
				name:    StepOpenLibraryISBN,
				applies: hasISBN,
				lookup: func(_ context.Context, isbn, _, _ string) (string, error) {
					return openLibrary.CoverURLByISBN(isbn), nil
				},
			},
			{
				name:    StepGoogleBooksISBN,
				applies: hasISBN,
				lookup: func(ctx context.Context, isbn, _, _ string) (string, error) {
					return googleBooks.SearchByISBN(ctx, isbn)
				},
			},
			{
				name:    StepGoogleBooksTitle,
				applies: hasTitle,
				lookup: func(ctx context.Context, _, title, author string) (string, error) {
					return googleBooks.SearchByTitle(ctx, title, author)
				},
			},
			{
				name:    StepOpenLibrarySearch,
				applies: hasTitle,
				lookup: func(ctx context.Context, _, title, author string) (string, error) {
					return openLibrary.SearchCover(ctx, title, author)
				},
			},
		},
	}
}

// Resolve returns the first validated cover for q. It never fails; a book
// without ISBN or title resolves to NotFound without any network call.
func (r *Resolver) Resolve(ctx context.Context, q BookQuery) Resolution {
	isbn := NormalizeISBN(q.ISBN)
	title := strings.TrimSpace(q.Title)
	author := strings.TrimSpace(q.Author)

	if isbn == "" && title == "" {
		slog.Debug("Skipping cover lookup", "error", ErrNoIdentifier)
		return Resolution{}
	}

	for _, step := range r.steps {
		if !step.applies(isbn, title) {
			continue
		}
		if ctx.Err() != nil {
			slog.Debug("Cover lookup cancelled", "title", title, "error", ctx.Err())
			return Resolution{}
		}

		candidate, err := step.lookup(ctx, isbn, title, author)
		if err != nil {
			slog.Debug("Cover step failed", "step", step.name, "title", title, "isbn", isbn, "error", err)
			continue
		}

		if checked := r.validator.Check(ctx, candidate); !checked.Valid() {
			slog.Debug("Cover candidate rejected", "step", step.name, "url", candidate, "outcome", checked.Outcome)
			continue
		}

		slog.Debug("Cover found", "step", step.name, "title", title, "url", candidate)
		return Resolution{URL: candidate, Step: step.name}
	}

	return Resolution{}
}
