package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lepinkainen/readingwrapped/internal/config"
	"github.com/lepinkainen/readingwrapped/internal/fileutil"
	"github.com/lepinkainen/readingwrapped/internal/goodreads"
	"github.com/lepinkainen/readingwrapped/internal/report"
	"github.com/lepinkainen/readingwrapped/internal/server"
)

var (
	stdout io.Writer = os.Stdout

	runServer = func(ctx context.Context, srv *server.Server) error {
		return srv.ListenAndServe(ctx)
	}
)

// ServeCmd runs the HTTP API
type ServeCmd struct {
	Addr string `help:"Listen address (overrides server.addr)"`
}

// ValidateCmd validates a Goodreads export
type ValidateCmd struct {
	Input string `short:"f" help:"Path to Goodreads library export CSV file" required:"" type:"existingfile"`
}

// PeriodFlags selects the reporting period; blank values fall back to config
type PeriodFlags struct {
	Start string `help:"First day of the period (YYYY-MM-DD, overrides period.start)"`
	End   string `help:"Last day of the period (YYYY-MM-DD, overrides period.end)"`
}

// AnalyzeCmd builds the books-read report
type AnalyzeCmd struct {
	Input string `short:"f" help:"Path to Goodreads library export CSV file" required:"" type:"existingfile"`

	PeriodFlags `embed:""`

	Format    string `help:"Output format" enum:"json,yaml" default:"json"`
	Output    string `short:"o" help:"Write the report to this file instead of stdout"`
	Overwrite bool   `help:"Overwrite an existing output file"`
}

// CoversCmd resolves covers and optionally downloads them
type CoversCmd struct {
	Input string `short:"f" help:"Path to Goodreads library export CSV file" required:"" type:"existingfile"`

	PeriodFlags `embed:""`

	Download  string `help:"Directory to save cover images to"`
	MaxWidth  int    `help:"Maximum width of downloaded covers" default:"600"`
	Overwrite bool   `help:"Re-download covers that already exist"`
}

func (p PeriodFlags) period() (goodreads.Period, error) {
	defaults := config.ReadingPeriod()
	start, end := p.Start, p.End
	if start == "" {
		start = defaults.Start
	}
	if end == "" {
		end = defaults.End
	}
	return goodreads.ParsePeriod(start, end)
}

// Run methods for each command

func (s *ServeCmd) Run(ctx context.Context) error {
	if s.Addr != "" {
		viper.Set("server.addr", s.Addr)
	}

	period, err := PeriodFlags{}.period()
	if err != nil {
		return err
	}

	service := report.NewService(newCoverResolver())
	return runServer(ctx, server.New(service, config.Server(), period))
}

func (v *ValidateCmd) Run() error {
	file, err := os.Open(v.Input)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer func() { _ = file.Close() }()

	result := goodreads.Validate(file)
	if err := writeFormatted(stdout, result, "json"); err != nil {
		return err
	}
	if !result.Status {
		return fmt.Errorf("%w: %s", goodreads.ErrInvalidExport, result.Error)
	}
	return nil
}

func (a *AnalyzeCmd) Run(ctx context.Context) error {
	period, err := a.period()
	if err != nil {
		return err
	}

	file, err := os.Open(a.Input)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer func() { _ = file.Close() }()

	result, err := report.NewService(newCoverResolver()).Analyze(ctx, file, period)
	if err != nil {
		return err
	}

	if a.Output == "" {
		return writeFormatted(stdout, result, a.Format)
	}

	data, err := marshalFormatted(result, a.Format)
	if err != nil {
		return err
	}
	written, err := fileutil.WriteFileWithOverwrite(a.Output, data, 0o644, a.Overwrite)
	if err != nil {
		return err
	}
	if !written {
		slog.Warn("Output file exists, not overwriting", "path", a.Output)
		return nil
	}
	slog.Info("Report written", "path", a.Output, "books", result.TotalBooks)
	return nil
}

func (c *CoversCmd) Run(ctx context.Context) error {
	period, err := c.period()
	if err != nil {
		return err
	}

	file, err := os.Open(c.Input)
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer func() { _ = file.Close() }()

	result, err := report.NewService(newCoverResolver()).Analyze(ctx, file, period)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	for _, book := range result.Books {
		cover := "-"
		if book.CoverURL != nil {
			cover = *book.CoverURL
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", book.DateRead, book.Title, cover)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if c.Download == "" {
		return nil
	}

	requests := make([]fileutil.CoverRequest, 0, len(result.Books))
	for _, book := range result.Books {
		if book.CoverURL == nil {
			continue
		}
		requests = append(requests, fileutil.CoverRequest{URL: *book.CoverURL, Identifier: coverIdentifier(book)})
	}

	client := &http.Client{Timeout: config.Covers().RequestTimeout}
	defer client.CloseIdleConnections()

	downloader := fileutil.NewCoverDownloader(client,
		fileutil.WithMaxWidth(c.MaxWidth),
		fileutil.WithOverwrite(c.Overwrite),
	)
	saved := downloader.DownloadAll(ctx, requests, c.Download)
	_, _ = fmt.Fprintf(stdout, "Saved %d of %d covers to %s\n", len(saved), len(requests), c.Download)
	return nil
}

// coverIdentifier names a downloaded cover after the ISBN, or the title when there is none.
func coverIdentifier(book goodreads.ListedBook) string {
	if book.ISBN != nil {
		return *book.ISBN
	}
	return book.Title
}

func marshalFormatted(v any, format string) ([]byte, error) {
	switch format {
	case "yaml":
		return yaml.Marshal(v)
	case "json", "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func writeFormatted(w io.Writer, v any, format string) error {
	data, err := marshalFormatted(v, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
