package goodreads

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned for a date in none of the accepted layouts.
var ErrInvalidDate = errors.New("invalid date")

// dateLayouts are tried in order. Goodreads writes YYYY/MM/DD; spreadsheet
// round trips often leave MM/DD/YY behind.
var dateLayouts = []string{"2006/01/02", "01/02/06", "2006-01-02"}

// ParseDate parses an export date. A blank value returns the zero time and no error.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// Period is an inclusive range of days.
type Period struct {
	Start time.Time
	End   time.Time
}

// ParsePeriod parses YYYY-MM-DD bounds. Either bound may be blank for an open range.
func ParsePeriod(start, end string) (Period, error) {
	var p Period
	var err error
	if start = strings.TrimSpace(start); start != "" {
		if p.Start, err = time.Parse(time.DateOnly, start); err != nil {
			return Period{}, fmt.Errorf("invalid period start %q: %w", start, err)
		}
	}
	if end = strings.TrimSpace(end); end != "" {
		if p.End, err = time.Parse(time.DateOnly, end); err != nil {
			return Period{}, fmt.Errorf("invalid period end %q: %w", end, err)
		}
	}
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return Period{}, fmt.Errorf("period end %s is before start %s", end, start)
	}
	return p, nil
}

// Contains reports whether day falls inside the period.
func (p Period) Contains(day time.Time) bool {
	if !p.Start.IsZero() && day.Before(p.Start) {
		return false
	}
	if !p.End.IsZero() && day.After(p.End) {
		return false
	}
	return true
}

func (p Period) String() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "..."
		}
		return t.Format(time.DateOnly)
	}
	return format(p.Start) + " to " + format(p.End)
}
