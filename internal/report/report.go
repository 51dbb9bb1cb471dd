// Package report turns a Goodreads export into the books-read report with covers.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lepinkainen/readingwrapped/internal/covers"
	"github.com/lepinkainen/readingwrapped/internal/goodreads"
)

// CoverResolver resolves covers for a batch of books.
type CoverResolver interface {
	Resolve(ctx context.Context, queries []covers.BookQuery) covers.BatchResult
}

// TimePeriod is the reported date range in YYYY-MM-DD form.
type TimePeriod struct {
	Start string `json:"start" yaml:"start"`
	End   string `json:"end" yaml:"end"`
}

// Report is the analyze output.
type Report struct {
	TimePeriod  TimePeriod             `json:"time_period" yaml:"time_period"`
	TotalBooks  int                    `json:"total_books" yaml:"total_books"`
	CoversFound int                    `json:"covers_found" yaml:"covers_found"`
	Books       []goodreads.ListedBook `json:"all_books_read" yaml:"all_books_read"`
}

// Service validates exports and builds reports.
type Service struct {
	resolver CoverResolver
}

// NewService creates a Service that looks covers up with resolver.
func NewService(resolver CoverResolver) *Service {
	return &Service{resolver: resolver}
}

// Validate checks an export without any network access.
func (s *Service) Validate(r io.Reader) goodreads.ValidationResult {
	return goodreads.Validate(r)
}

// Analyze validates the export read from r, lists the books read in period
// and attaches a cover URL to each of them.
func (s *Service) Analyze(ctx context.Context, r io.Reader, period goodreads.Period) (*Report, error) {
	export, err := goodreads.Load(r)
	if err != nil {
		return nil, err
	}
	if result := export.Validate(); !result.Status {
		return nil, fmt.Errorf("%w: %s", goodreads.ErrInvalidExport, result.Error)
	}

	books := export.BooksRead(period)
	report := &Report{
		TimePeriod: TimePeriod{Start: formatDay(period.Start), End: formatDay(period.End)},
		TotalBooks: len(books),
		Books:      books,
	}
	if len(books) == 0 {
		slog.Info("No books found in period", "period", period)
		return report, nil
	}

	queries := make([]covers.BookQuery, len(books))
	for i, book := range books {
		queries[i] = book.Query()
	}

	results := s.resolver.Resolve(ctx, queries)
	report.Books = covers.Join(books, results, goodreads.ListedBook.Query, (*goodreads.ListedBook).SetCover)

	for _, book := range report.Books {
		if book.CoverURL != nil {
			report.CoversFound++
		}
	}

	slog.Info("Report built", "period", period, "books", report.TotalBooks, "covers", report.CoversFound)
	return report, nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}
