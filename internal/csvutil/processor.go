// Package csvutil reads CSV exports whose columns are addressed by header name.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrEmpty is returned when the input has no header row.
var ErrEmpty = errors.New("CSV file is empty or cannot be read")

// ProcessorOptions configures CSV processing behavior.
type ProcessorOptions struct {
	// SkipInvalid controls whether to skip records the parser rejects or return an error.
	SkipInvalid bool
}

// Row is one CSV record whose fields are looked up by column name.
type Row struct {
	// Line is the 1-based record number, header excluded.
	Line   int
	index  map[string]int
	fields []string
}

// Get returns the trimmed value of column, or "" when the column is missing
// from the header or the record is short.
func (r Row) Get(column string) string {
	i, ok := r.index[column]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// Header is the ordered column list of a CSV file.
type Header []string

// Missing returns the required columns absent from the header, in the order given.
func (h Header) Missing(required ...string) []string {
	present := make(map[string]bool, len(h))
	for _, column := range h {
		present[column] = true
	}

	var missing []string
	for _, column := range required {
		if !present[column] {
			missing = append(missing, column)
		}
	}
	return missing
}

// Process reads a header row from r and parses every following record into T.
// Malformed records are logged and skipped; any other read error stops processing.
func Process[T any](r io.Reader, parser func(Row) (T, error), opts ProcessorOptions) (Header, []T, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, ErrEmpty
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	index := make(map[string]int, len(header))
	for i, column := range header {
		column = strings.TrimSpace(column)
		header[i] = column
		if _, dup := index[column]; !dup {
			index[column] = i
		}
	}

	var items []T
	line := 0

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, fmt.Errorf("failed to read record %d: %w", line, err)
			}
			slog.Warn("Skipping malformed record", "line", line, "error", err)
			continue
		}

		item, err := parser(Row{Line: line, index: index, fields: record})
		if err != nil {
			if opts.SkipInvalid {
				slog.Warn("Skipping invalid record", "line", line, "error", err)
				continue
			}
			return nil, nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}

		items = append(items, item)
	}

	return Header(header), items, nil
}

// ProcessFile opens filename and runs Process on it.
func ProcessFile[T any](filename string, parser func(Row) (T, error), opts ProcessorOptions) (Header, []T, error) {
	csvFile, err := os.Open(filename)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = csvFile.Close() }()

	if fi, err := csvFile.Stat(); err != nil || fi.Size() == 0 {
		return nil, nil, ErrEmpty
	}

	return Process(csvFile, parser, opts)
}
