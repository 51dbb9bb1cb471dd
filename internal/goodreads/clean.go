package goodreads

import (
	"regexp"
	"strings"
)

// MaxReviewLength is the number of characters kept from a review.
const MaxReviewLength = 500

var seriesInfo = regexp.MustCompile(`\s*\([^)]*\)`)

// censored is applied in order, so "fucking" is caught by the first entry.
var censored = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)fuck`), "fu@@"},
	{regexp.MustCompile(`(?i)fucking`), "fu@@ing"},
	{regexp.MustCompile(`(?i)shit`), "sh!t"},
	{regexp.MustCompile(`(?i)damn`), "d@mn"},
	{regexp.MustCompile(`(?i)ass`), "@ss"},
}

// CleanTitle removes parenthesised series information:
// "Things Fall Apart (The African Trilogy, #1)" becomes "Things Fall Apart".
func CleanTitle(title string) string {
	return strings.TrimSpace(seriesInfo.ReplaceAllString(title, ""))
}

// CleanReview truncates a review to MaxReviewLength characters, appending "..."
// when cut, and masks profanity.
func CleanReview(review string) string {
	if runes := []rune(review); len(runes) > MaxReviewLength {
		review = string(runes[:MaxReviewLength]) + "..."
	}
	for _, c := range censored {
		review = c.pattern.ReplaceAllLiteralString(review, c.replacement)
	}
	return review
}
