package fileutil

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxWidth        = 600
	defaultMinCoverBytes   = 1000
	defaultDownloadWorkers = 5
	maxCoverBytes          = 20 << 20
)

var (
	// ErrNotAnImage is returned when the response is not image/*.
	ErrNotAnImage = errors.New("response is not an image")
	// ErrCoverTooSmall is returned for placeholder sized downloads.
	ErrCoverTooSmall = errors.New("cover image too small")
)

// HTTPDoer is an interface for making HTTP requests.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// CoverDownloader saves remote cover images as resized JPEG files.
type CoverDownloader struct {
	client    HTTPDoer
	maxWidth  int
	minBytes  int
	overwrite bool
	workers   int
}

// DownloaderOption configures a CoverDownloader.
type DownloaderOption func(*CoverDownloader)

// WithMaxWidth sets the width covers are scaled down to.
func WithMaxWidth(width int) DownloaderOption {
	return func(d *CoverDownloader) {
		if width > 0 {
			d.maxWidth = width
		}
	}
}

// WithOverwrite re-downloads covers that already exist on disk.
func WithOverwrite(overwrite bool) DownloaderOption {
	return func(d *CoverDownloader) {
		d.overwrite = overwrite
	}
}

// WithWorkers sets how many downloads DownloadAll runs at once.
func WithWorkers(n int) DownloaderOption {
	return func(d *CoverDownloader) {
		if n > 0 {
			d.workers = n
		}
	}
}

// NewCoverDownloader creates a downloader using client for requests.
func NewCoverDownloader(client HTTPDoer, opts ...DownloaderOption) *CoverDownloader {
	d := &CoverDownloader{
		client:   client,
		maxWidth: defaultMaxWidth,
		minBytes: defaultMinCoverBytes,
		workers:  defaultDownloadWorkers,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// CoverFilename returns "<identifier>_cover.jpg" with unsafe characters removed.
func CoverFilename(identifier string) string {
	return SanitizeFilename(identifier) + "_cover.jpg"
}

// CoverDownloadResult describes one saved cover.
type CoverDownloadResult struct {
	// Downloaded is false when an existing file was kept
	Downloaded bool
	LocalPath  string
	Filename   string
}

// Download fetches url and stores it in outputDir as CoverFilename(identifier).
// The response must be image/* and larger than the placeholder threshold.
func (d *CoverDownloader) Download(ctx context.Context, url, outputDir, identifier string) (*CoverDownloadResult, error) {
	filename := CoverFilename(identifier)
	result := &CoverDownloadResult{
		LocalPath: filepath.Join(outputDir, filename),
		Filename:  filename,
	}

	if FileExists(result.LocalPath) && !d.overwrite {
		slog.Debug("Cover already exists, skipping download", "path", result.LocalPath)
		return result, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download cover: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading cover from %s", resp.StatusCode, url)
	}
	if contentType := resp.Header.Get("Content-Type"); !strings.HasPrefix(contentType, "image") {
		return nil, fmt.Errorf("%w: %q", ErrNotAnImage, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxCoverBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read cover: %w", err)
	}
	if len(data) <= d.minBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrCoverTooSmall, len(data))
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover: %w", err)
	}
	if img.Bounds().Dx() > d.maxWidth {
		img = imaging.Resize(img, d.maxWidth, 0, imaging.Lanczos)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cover directory: %w", err)
	}
	if err := imaging.Save(img, result.LocalPath, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to save cover: %w", err)
	}

	slog.Info("Downloaded cover", "path", result.LocalPath)
	result.Downloaded = true
	return result, nil
}

// CoverRequest names one cover to download.
type CoverRequest struct {
	URL        string
	Identifier string
}

// DownloadAll downloads covers in parallel and returns the saved files in
// request order. Failed downloads are logged and left out.
func (d *CoverDownloader) DownloadAll(ctx context.Context, requests []CoverRequest, outputDir string) []CoverDownloadResult {
	saved := make([]*CoverDownloadResult, len(requests))

	var g errgroup.Group
	g.SetLimit(d.workers)

	for i, r := range requests {
		if r.URL == "" {
			continue
		}
		g.Go(func() error {
			result, err := d.Download(ctx, r.URL, outputDir, r.Identifier)
			if err != nil {
				slog.Warn("Cover download failed", "identifier", r.Identifier, "error", err)
				return nil
			}
			saved[i] = result
			return nil
		})
	}
	_ = g.Wait()

	var results []CoverDownloadResult
	for _, r := range saved {
		if r != nil {
			results = append(results, *r)
		}
	}
	slog.Info("Cover downloads finished", "saved", len(results), "requested", len(requests))
	return results
}
