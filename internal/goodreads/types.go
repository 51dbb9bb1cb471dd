// Package goodreads reads Goodreads library exports and turns them into the
// books-read listing that covers are attached to.
package goodreads

import (
	"time"

	"github.com/lepinkainen/readingwrapped/internal/covers"
)

// Column names used from the export.
const (
	ColumnBookID         = "Book Id"
	ColumnTitle          = "Title"
	ColumnAuthor         = "Author"
	ColumnISBN           = "ISBN"
	ColumnISBN13         = "ISBN13"
	ColumnMyRating       = "My Rating"
	ColumnPages          = "Number of Pages"
	ColumnYearPublished  = "Year Published"
	ColumnDateRead       = "Date Read"
	ColumnExclusiveShelf = "Exclusive Shelf"
	ColumnMyReview       = "My Review"
)

// RequiredColumns must all be present for an export to be accepted.
var RequiredColumns = []string{
	ColumnTitle, ColumnAuthor, ColumnMyRating, ColumnPages,
	ColumnDateRead, ColumnExclusiveShelf, ColumnISBN,
	ColumnYearPublished, ColumnMyReview,
}

// ShelfRead is the exclusive shelf of finished books.
const ShelfRead = "read"

// Book is one row of the export. Numeric fields that were blank are nil.
type Book struct {
	ID             int
	Title          string
	Author         string
	ISBN           string
	ISBN13         string
	MyRating       int
	Pages          *int
	YearPublished  *int
	DateRead       time.Time
	RawDateRead    string
	ExclusiveShelf string
	MyReview       string
}

// LookupISBN returns the ISBN13 when present, otherwise the ISBN10.
func (b Book) LookupISBN() string {
	if b.ISBN13 != "" {
		return b.ISBN13
	}
	return b.ISBN
}

// IsRead reports whether the book sits on the read shelf.
func (b Book) IsRead() bool {
	return b.ExclusiveShelf == ShelfRead
}

// ListedBook is a book in the books-read listing. Absent values encode as null.
type ListedBook struct {
	Title         string   `json:"title" yaml:"title"`
	Author        string   `json:"author" yaml:"author"`
	Rating        *float64 `json:"rating" yaml:"rating"`
	Pages         *int     `json:"pages" yaml:"pages"`
	DateRead      string   `json:"date_read" yaml:"date_read"`
	Review        *string  `json:"review" yaml:"review"`
	ISBN          *string  `json:"isbn" yaml:"isbn"`
	YearPublished *int     `json:"year_published" yaml:"year_published"`
	CoverURL      *string  `json:"cover_url" yaml:"cover_url"`
}

// Query returns the cover lookup input for the book.
func (b ListedBook) Query() covers.BookQuery {
	q := covers.BookQuery{Title: b.Title, Author: b.Author}
	if b.ISBN != nil {
		q.ISBN = *b.ISBN
	}
	return q
}

// SetCover sets the resolved cover URL, nil meaning none.
func (b *ListedBook) SetCover(url *string) {
	b.CoverURL = url
}

// ValidationResult is the outcome of checking an export.
type ValidationResult struct {
	Status     bool   `json:"status" yaml:"status"`
	TotalBooks int    `json:"total_books,omitempty" yaml:"total_books,omitempty"`
	ReadBooks  int    `json:"read_books,omitempty" yaml:"read_books,omitempty"`
	Error      string `json:"error,omitempty" yaml:"error,omitempty"`
}
