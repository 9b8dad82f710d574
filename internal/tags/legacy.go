package tags

import (
	"regexp"
	"strings"
)

// Free-text renegotiation markers written by older versions of the loan form.
var renegotiationHints = []*regexp.Regexp{
	regexp.MustCompile(`\[RENEGOTIATED\]`),
	regexp.MustCompile(`(?i)valor prometido`),
}

// Canonical maps legacy spellings to their canonical tag.
func Canonical(t Tag) Tag {
	if t.Kind == RenegotiatedFrom {
		t.Kind = RenegotiationDate
	}
	return t
}

// Normalize canonicalizes every tag in ts.
func Normalize(ts []Tag) []Tag {
	out := make([]Tag, len(ts))
	for i, t := range ts {
		out[i] = Canonical(t)
	}
	return out
}

// ParseCanonical parses text and normalizes legacy spellings.
func ParseCanonical(text string) []Tag {
	return Normalize(Parse(text))
}

// HasRenegotiationHint reports whether text carries one of the free-text
// renegotiation markers that predate RENEGOTIATION_DATE.
func HasRenegotiationHint(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	for _, re := range renegotiationHints {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
