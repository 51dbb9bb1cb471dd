package covers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lepinkainen/readingwrapped/internal/testutil"
)

// fakeUpstream imitates OpenLibrary covers, OpenLibrary search, Google Books
// and a thumbnail host on one server.
type fakeUpstream struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	requests []string

	// isbnCovers maps ISBN to the image size served at /b/isbn/{isbn}-L.jpg.
	isbnCovers map[string]int
	// idCovers maps cover IDs to image sizes served at /b/id/{id}-L.jpg.
	idCovers map[int]int
	// volumes maps a decoded q parameter to the thumbnail image name ("" = no items).
	volumes map[string]string
	// volumeStatus maps a decoded q parameter to a forced HTTP status.
	volumeStatus map[string]int
	// searches maps a title to the cover_i returned by search.json.
	searches map[string]int
	// images maps a thumbnail name to the size served at /img/{name}.
	images map[string]int
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()

	f := &fakeUpstream{
		t:            t,
		isbnCovers:   map[string]int{},
		idCovers:     map[int]int{},
		volumes:      map[string]string{},
		volumeStatus: map[string]int{},
		searches:     map[string]int{},
		images:       map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/b/isbn/{file}", func(w http.ResponseWriter, r *http.Request) {
		isbn := strings.TrimSuffix(r.PathValue("file"), "-L.jpg")
		f.serveImage(w, r, f.isbnCovers[isbn])
	})
	mux.HandleFunc("/b/id/{file}", func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(strings.TrimSuffix(r.PathValue("file"), "-L.jpg"))
		f.serveImage(w, r, f.idCovers[id])
	})
	mux.HandleFunc("/img/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.serveImage(w, r, f.images[r.PathValue("name")])
	})
	mux.HandleFunc("/volumes", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		if status, ok := f.volumeStatus[q]; ok {
			w.WriteHeader(status)
			return
		}
		name, ok := f.volumes[q]
		if !ok || name == "" {
			_, _ = w.Write([]byte(`{"totalItems": 0}`))
			return
		}
		thumb := "http://" + strings.TrimPrefix(f.server.URL, "https://") + "/img/" + name
		_, _ = fmt.Fprintf(w, `{"totalItems": 1, "items": [{"volumeInfo": {"title": %q, "imageLinks": {"smallThumbnail": %q, "thumbnail": %q}}}]}`,
			q, thumb+"-small", thumb)
	})
	mux.HandleFunc("/search.json", func(w http.ResponseWriter, r *http.Request) {
		coverID, ok := f.searches[r.URL.Query().Get("title")]
		if !ok {
			_, _ = w.Write([]byte(`{"numFound": 0, "docs": []}`))
			return
		}
		_, _ = fmt.Fprintf(w, `{"numFound": 1, "docs": [{"key": "/works/OL1W", "title": "x", "cover_i": %d}]}`, coverID)
	})

	f.server = testutil.NewIPv4TLSServer(t, f.record(mux))
	return f
}

func (f *fakeUpstream) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entry := r.Method + " " + r.URL.Path
		if q := r.URL.Query().Get("q"); q != "" {
			entry += " " + q
		}
		f.mu.Lock()
		f.requests = append(f.requests, entry)
		f.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (f *fakeUpstream) serveImage(w http.ResponseWriter, r *http.Request, size int) {
	if size == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(size))
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(make([]byte, size))
	}
}

// Requests returns a copy of the recorded "METHOD path [q]" entries.
func (f *fakeUpstream) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

// CountPrefix counts recorded requests whose entry starts with prefix.
func (f *fakeUpstream) CountPrefix(prefix string) int {
	n := 0
	for _, entry := range f.Requests() {
		if strings.HasPrefix(entry, prefix) {
			n++
		}
	}
	return n
}

// URL returns an absolute https URL on the fake server.
func (f *fakeUpstream) URL(path string) string {
	return f.server.URL + path
}

// Scheduler returns a scheduler pointed at the fake server with instant retries.
func (f *fakeUpstream) Scheduler(opts ...Option) *Scheduler {
	base := []Option{
		WithHTTPClientFactory(f.server.Client),
		WithOpenLibraryURLs(f.server.URL, f.server.URL),
		WithGoogleBooks(f.server.URL, ""),
		WithRetryPolicy(instantRetryPolicy(nil)),
		WithValidation(2*time.Second, DefaultMinImageBytes),
	}
	return NewScheduler(append(base, opts...)...)
}

// Resolver returns a resolver using the fake server.
func (f *fakeUpstream) Resolver() *Resolver {
	return f.Scheduler().newResolver(f.server.Client())
}

// instantRetryPolicy is the default policy with sleeps recorded instead of taken.
func instantRetryPolicy(slept *[]time.Duration) RetryPolicy {
	policy := DefaultRetryPolicy(3, time.Second)
	policy.Sleep = func(_ context.Context, d time.Duration) error {
		if slept != nil {
			*slept = append(*slept, d)
		}
		return nil
	}
	return policy
}
