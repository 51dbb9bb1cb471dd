package covers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeISBN(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "plain isbn13", raw: "9780141439518", want: "9780141439518"},
		{name: "goodreads excel quoting", raw: `="9780141439518"`, want: "9780141439518"},
		{name: "hyphens and spaces", raw: " 978-0-14-143951-8 ", want: "9780141439518"},
		{name: "lowercase check digit", raw: "080442957x", want: "080442957X"},
		{name: "uppercase check digit", raw: "080442957X", want: "080442957X"},
		{name: "empty excel value", raw: `=""`, want: ""},
		{name: "empty", raw: "", want: ""},
		{name: "letters", raw: "ISBN9780141439518", want: ""},
		{name: "x not last", raw: "08044X2957", want: ""},
		{name: "only x", raw: "X", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeISBN(tt.raw))
		})
	}
}

func TestBookQueryKey(t *testing.T) {
	t.Run("title and author preferred over isbn", func(t *testing.T) {
		q := BookQuery{ISBN: "9780141439518", Title: " Pride and Prejudice ", Author: "Jane Austen"}
		assert.Equal(t, Key{Title: "Pride and Prejudice", Author: "Jane Austen"}, q.Key())
	})

	t.Run("isbn only", func(t *testing.T) {
		q := BookQuery{ISBN: `="978-0141439518"`}
		assert.Equal(t, Key{ISBN: "9780141439518"}, q.Key())
	})

	t.Run("nothing usable", func(t *testing.T) {
		q := BookQuery{ISBN: `=""`, Author: "Someone"}
		key := q.Key()
		assert.False(t, key.Valid())
	})
}

func TestBatchResultLookup(t *testing.T) {
	found := Key{Title: "Dune", Author: "Frank Herbert"}
	missing := Key{ISBN: "123"}
	results := BatchResult{found: "https://example.com/dune.jpg", missing: ""}

	url, ok := results.Lookup(found)
	assert.True(t, ok)
	assert.Equal(t, "https://example.com/dune.jpg", url)

	_, ok = results.Lookup(missing)
	assert.False(t, ok)

	_, ok = results.Lookup(Key{Title: "Unknown"})
	assert.False(t, ok)

	assert.Equal(t, 1, results.Found())
	assert.Equal(t, "Dune by Frank Herbert", found.String())
	assert.Equal(t, "isbn:123", missing.String())
}
