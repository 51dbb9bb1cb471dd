package covers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolver_OpenLibraryISBNShortCircuits(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.isbnCovers["9780441013593"] = 80000
	upstream.volumes["isbn:9780441013593"] = "dune"

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{
		ISBN: `="9780441013593"`, Title: "Dune", Author: "Frank Herbert",
	})

	assert.True(t, res.Found())
	assert.Equal(t, StepOpenLibraryISBN, res.Step)
	assert.Equal(t, upstream.URL("/b/isbn/9780441013593-L.jpg"), res.URL)
	assert.Zero(t, upstream.CountPrefix("GET /volumes"), "Google Books must not be queried")
}

func TestResolver_PlaceholderFallsBackToGoogleISBN(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.isbnCovers["9780441013593"] = 43
	upstream.volumes["isbn:9780441013593"] = "dune"
	upstream.images["dune"] = 12000

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{ISBN: "9780441013593", Title: "Dune"})

	assert.Equal(t, StepGoogleBooksISBN, res.Step)
	assert.Equal(t, upstream.URL("/img/dune"), res.URL)
	assert.Zero(t, upstream.CountPrefix("GET /search.json"))
}

func TestResolver_TitleFallback(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.volumes["intitle:Pride and Prejudice inauthor:Jane Austen"] = "pride"
	upstream.images["pride"] = 5000

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{
		ISBN: "9780141439518", Title: "Pride and Prejudice", Author: "Jane Austen",
	})

	assert.Equal(t, StepGoogleBooksTitle, res.Step)
	assert.Equal(t, upstream.URL("/img/pride"), res.URL)
	assert.Equal(t, []string{
		"HEAD /b/isbn/9780141439518-L.jpg",
		"GET /volumes isbn:9780141439518",
		"GET /volumes intitle:Pride and Prejudice inauthor:Jane Austen",
		"HEAD /img/pride",
	}, upstream.Requests())
}

func TestResolver_OpenLibrarySearchIsLastResort(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.volumes["intitle:The Dispossessed inauthor:Ursula K. Le Guin"] = "small"
	upstream.images["small"] = 800
	upstream.searches["The Dispossessed"] = 7
	upstream.idCovers[7] = 30000

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{Title: "The Dispossessed", Author: "Ursula K. Le Guin"})

	assert.Equal(t, StepOpenLibrarySearch, res.Step)
	assert.Equal(t, upstream.URL("/b/id/7-L.jpg"), res.URL)
	// No ISBN means the ISBN steps are skipped entirely.
	assert.Zero(t, upstream.CountPrefix("HEAD /b/isbn/"))
	assert.Zero(t, upstream.CountPrefix("GET /volumes isbn:"))
}

func TestResolver_QuotaErrorMovesToNextStep(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.volumeStatus["isbn:9780141439518"] = 403
	upstream.volumes["intitle:Emma inauthor:Jane Austen"] = "emma"
	upstream.images["emma"] = 4000

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{
		ISBN: "9780141439518", Title: "Emma", Author: "Jane Austen",
	})

	assert.Equal(t, StepGoogleBooksTitle, res.Step)
	assert.Equal(t, 1, upstream.CountPrefix("GET /volumes isbn:"))
}

func TestResolver_NothingFound(t *testing.T) {
	upstream := newFakeUpstream(t)

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{ISBN: "9780141439518", Title: "Obscure"})

	assert.False(t, res.Found())
	assert.Empty(t, res.URL)
}

func TestResolver_NoIdentifierMakesNoRequests(t *testing.T) {
	upstream := newFakeUpstream(t)

	res := upstream.Resolver().Resolve(context.Background(), BookQuery{ISBN: `=""`, Author: "Anonymous"})

	assert.False(t, res.Found())
	assert.Empty(t, upstream.Requests())
}

func TestResolver_CancelledContext(t *testing.T) {
	upstream := newFakeUpstream(t)
	upstream.isbnCovers["9780441013593"] = 80000

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := upstream.Resolver().Resolve(ctx, BookQuery{ISBN: "9780441013593"})

	assert.False(t, res.Found())
	assert.Empty(t, upstream.Requests())
}
