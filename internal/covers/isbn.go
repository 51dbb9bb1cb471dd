package covers

import "strings"

// NormalizeISBN turns a raw ISBN cell into a lookup key.
// Spreadsheet escaping (="...") and quotes are dropped along with hyphens and
// whitespace. A trailing x is upper-cased. Anything else that is not a digit
// makes the value unusable and "" is returned.
func NormalizeISBN(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "=")
	s = strings.ReplaceAll(s, `"`, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		case r == '-' || r == ' ' || r == '\t':
			continue
		default:
			return ""
		}
	}

	normalized := b.String()
	if normalized == "" || strings.Trim(normalized, "X") == "" {
		return ""
	}
	if i := strings.IndexByte(normalized, 'X'); i >= 0 && i != len(normalized)-1 {
		return ""
	}
	return normalized
}
