package testutil

import (
	"encoding/csv"
	"strconv"
	"strings"
)

// GoodreadsHeader is the column order of a Goodreads library export.
var GoodreadsHeader = []string{
	"Book Id", "Title", "Author", "Author l-f", "Additional Authors", "ISBN", "ISBN13",
	"My Rating", "Average Rating", "Publisher", "Binding", "Number of Pages", "Year Published",
	"Original Publication Year", "Date Read", "Date Added", "Bookshelves",
	"Bookshelves with positions", "Exclusive Shelf", "My Review", "Spoiler", "Private Notes",
	"Read Count", "Owned Copies",
}

// GoodreadsRow holds the export columns the tests care about.
type GoodreadsRow struct {
	Title          string
	Author         string
	ISBN           string
	ISBN13         string
	MyRating       string
	Pages          string
	YearPublished  string
	DateRead       string
	ExclusiveShelf string
	MyReview       string
}

// GoodreadsCSV renders rows as a full Goodreads export with the spreadsheet
// style ISBN quoting (="...") the real export uses.
func GoodreadsCSV(rows ...GoodreadsRow) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(GoodreadsHeader)

	for i, row := range rows {
		record := make([]string, len(GoodreadsHeader))
		record[0] = strconv.Itoa(i + 1)
		record[1] = row.Title
		record[2] = row.Author
		record[5] = `="` + row.ISBN + `"`
		record[6] = `="` + row.ISBN13 + `"`
		record[7] = orDefault(row.MyRating, "0")
		record[8] = "4.00"
		record[11] = row.Pages
		record[12] = row.YearPublished
		record[14] = row.DateRead
		record[15] = "2024/01/01"
		record[18] = orDefault(row.ExclusiveShelf, "read")
		record[19] = row.MyReview
		record[22] = "1"
		record[23] = "0"
		_ = w.Write(record)
	}

	w.Flush()
	return b.String()
}

// CSV renders an arbitrary header and rows, for exports with missing columns.
func CSV(header []string, rows ...[]string) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(header)
	for _, row := range rows {
		_ = w.Write(row)
	}
	w.Flush()
	return b.String()
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
