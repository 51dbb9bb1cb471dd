package goodreads

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/lepinkainen/readingwrapped/internal/covers"
	"github.com/lepinkainen/readingwrapped/internal/csvutil"
)

// ErrInvalidExport is returned when an export fails validation.
var ErrInvalidExport = errors.New("invalid Goodreads export")

// Export is a parsed Goodreads library export.
type Export struct {
	Header csvutil.Header
	Books  []Book
}

// Load parses an export from r. Columns are matched by name; rows are never
// rejected, unparseable values are left blank.
func Load(r io.Reader) (*Export, error) {
	header, books, err := csvutil.Process(r, parseBookRow, csvutil.ProcessorOptions{SkipInvalid: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read Goodreads export: %w", err)
	}
	slog.Debug("Loaded Goodreads export", "columns", len(header), "books", len(books))
	return &Export{Header: header, Books: books}, nil
}

func parseBookRow(row csvutil.Row) (Book, error) {
	book := Book{
		ID:             parseIntField(row.Get(ColumnBookID)),
		Title:          row.Get(ColumnTitle),
		Author:         row.Get(ColumnAuthor),
		ISBN:           covers.NormalizeISBN(row.Get(ColumnISBN)),
		ISBN13:         covers.NormalizeISBN(row.Get(ColumnISBN13)),
		MyRating:       parseIntField(row.Get(ColumnMyRating)),
		Pages:          parseOptionalInt(row.Get(ColumnPages)),
		YearPublished:  parseOptionalInt(row.Get(ColumnYearPublished)),
		RawDateRead:    row.Get(ColumnDateRead),
		ExclusiveShelf: row.Get(ColumnExclusiveShelf),
		MyReview:       row.Get(ColumnMyReview),
	}

	dateRead, err := ParseDate(book.RawDateRead)
	if err != nil {
		slog.Debug("Unparseable date read", "line", row.Line, "title", book.Title, "error", err)
	}
	book.DateRead = dateRead

	return book, nil
}

// parseIntField accepts "3" and "3.0" style numbers, returning 0 otherwise.
func parseIntField(value string) int {
	if n, ok := parseNumber(value); ok {
		return n
	}
	return 0
}

func parseOptionalInt(value string) *int {
	n, ok := parseNumber(value)
	if !ok {
		return nil
	}
	return &n
}

func parseNumber(value string) (int, bool) {
	if value == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

// Validate checks that the export has the required columns, at least one
// book on the read shelf and only parseable read dates.
func (e *Export) Validate() ValidationResult {
	if missing := e.Header.Missing(RequiredColumns...); len(missing) > 0 {
		return ValidationResult{Error: "Missing required columns: " + strings.Join(missing, ", ")}
	}
	if len(e.Books) == 0 {
		return ValidationResult{Error: "CSV file is empty"}
	}

	read := 0
	for _, book := range e.Books {
		if book.IsRead() {
			read++
		}
		if book.RawDateRead != "" && book.DateRead.IsZero() {
			return ValidationResult{Error: `Invalid date format in "Date Read" column`}
		}
	}
	if read == 0 {
		return ValidationResult{Error: `No books marked as "read" found`}
	}

	return ValidationResult{Status: true, TotalBooks: len(e.Books), ReadBooks: read}
}

// Validate reads an export from r and validates it. Read failures are
// reported in the result rather than returned.
func Validate(r io.Reader) ValidationResult {
	export, err := Load(r)
	if err != nil {
		return ValidationResult{Error: "Validation error: " + err.Error()}
	}
	return export.Validate()
}

// BooksRead lists the books on the read shelf finished within period,
// most recent first. Books without a read date are left out.
func (e *Export) BooksRead(period Period) []ListedBook {
	var selected []Book
	for _, book := range e.Books {
		if !book.IsRead() || book.DateRead.IsZero() || !period.Contains(book.DateRead) {
			continue
		}
		selected = append(selected, book)
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].DateRead.After(selected[j].DateRead)
	})

	listed := make([]ListedBook, 0, len(selected))
	for _, book := range selected {
		listed = append(listed, newListedBook(book))
	}
	return listed
}

func newListedBook(book Book) ListedBook {
	listed := ListedBook{
		Title:         CleanTitle(book.Title),
		Author:        book.Author,
		Pages:         book.Pages,
		DateRead:      book.DateRead.Format(time.DateOnly),
		YearPublished: book.YearPublished,
	}
	if book.MyRating > 0 {
		rating := float64(book.MyRating)
		listed.Rating = &rating
	}
	if book.MyReview != "" {
		review := CleanReview(book.MyReview)
		listed.Review = &review
	}
	if isbn := book.LookupISBN(); isbn != "" {
		listed.ISBN = &isbn
	}
	return listed
}
