package facets

import (
	"fmt"
	"strings"
)

// WhiteSpace is the whiteSpace facet value. Unlike the constraining
// facets it is a pre-processing rule: it rewrites the lexical form
// before any other facet sees it.
type WhiteSpace uint8

const (
	// Preserve keeps the lexical form as written.
	Preserve WhiteSpace = iota
	// Replace maps each tab, newline, and carriage return to a space.
	Replace
	// Collapse applies Replace, then trims and squeezes runs of spaces.
	Collapse
)

// ParseWhiteSpace parses a whiteSpace facet value.
func ParseWhiteSpace(s string) (WhiteSpace, error) {
	switch s {
	case "preserve":
		return Preserve, nil
	case "replace":
		return Replace, nil
	case "collapse":
		return Collapse, nil
	}
	return Preserve, fmt.Errorf("invalid whiteSpace value %q", s)
}

// String returns the schema facet value.
func (w WhiteSpace) String() string {
	switch w {
	case Replace:
		return "replace"
	case Collapse:
		return "collapse"
	default:
		return "preserve"
	}
}

// Normalize applies the facet to a lexical form.
func (w WhiteSpace) Normalize(s string) string {
	switch w {
	case Replace:
		return replaceWS(s)
	case Collapse:
		return strings.Join(strings.Fields(s), " ")
	default:
		return s
	}
}

func replaceWS(s string) string {
	if !strings.ContainsAny(s, "\t\n\r") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\t', '\n', '\r':
			b.WriteByte(' ')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
