package sanitizer

import (
	"strings"
	"unicode"
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeSearch prepares a search term for case-insensitive matching.
func NormalizeSearch(term string) string {
	return strings.ToLower(TrimAndNormalize(term))
}

// ContainsFold reports whether text contains term, ignoring case and extra
// whitespace. An empty term matches everything.
func ContainsFold(text, term string) bool {
	term = NormalizeSearch(term)
	if term == "" {
		return true
	}
	return strings.Contains(NormalizeSearch(text), term)
}
