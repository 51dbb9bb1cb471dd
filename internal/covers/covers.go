// Package covers resolves book cover image URLs from OpenLibrary and Google Books.
//
// A Scheduler fans out one Resolver run per book over a shared HTTP client. Each
// run tries the sources in a fixed order and stops at the first URL that passes
// the image Validator. Failures never escape: a book without a usable cover
// simply resolves to an empty URL.
package covers

import (
	"net/http"
	"strings"
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// BookQuery is the lookup input for one book. Empty strings mean absent.
type BookQuery struct {
	ISBN   string
	Title  string
	Author string
}

// Key identifies a book when joining results back onto the book list.
// Title and author are used when a title exists since ISBNs are often
// missing from exports; an ISBN-only book is keyed by its normalized ISBN.
type Key struct {
	Title  string
	Author string
	ISBN   string
}

// Valid reports whether the key can be used for a lookup.
func (k Key) Valid() bool {
	return k != Key{}
}

func (k Key) String() string {
	if k.Title != "" {
		if k.Author == "" {
			return k.Title
		}
		return k.Title + " by " + k.Author
	}
	return "isbn:" + k.ISBN
}

// Key returns the identity of the query, or the zero Key when neither a
// usable ISBN nor a title is present.
func (q BookQuery) Key() Key {
	title := strings.TrimSpace(q.Title)
	if title != "" {
		return Key{Title: title, Author: strings.TrimSpace(q.Author)}
	}
	if isbn := NormalizeISBN(q.ISBN); isbn != "" {
		return Key{ISBN: isbn}
	}
	return Key{}
}

// BatchResult maps each looked-up book to its resolved cover URL.
// An empty URL means no cover was found.
type BatchResult map[Key]string

// Lookup returns the cover URL for key and whether one was found.
func (r BatchResult) Lookup(key Key) (string, bool) {
	url, ok := r[key]
	return url, ok && url != ""
}

// Found returns the number of books with a resolved cover.
func (r BatchResult) Found() int {
	n := 0
	for _, url := range r {
		if url != "" {
			n++
		}
	}
	return n
}
