package facets

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xmlschema-go/xmlschema/internal/value"
)

// Pattern restricts the lexical space with a regular expression in the
// XML Schema dialect. Multiple pattern facets declared on the same
// derivation step are alternatives; patterns from different steps are
// separate facets that must all match.
type Pattern struct {
	fixable
	Lexicals []string
	compiled []*regexp.Regexp
}

// NewPattern translates and compiles the given pattern alternatives.
func NewPattern(lexicals ...string) (*Pattern, error) {
	p := &Pattern{Lexicals: lexicals}
	for _, lex := range lexicals {
		translated, err := translatePattern(lex)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", lex, err)
		}
		re, err := regexp.Compile(translated)
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", lex, err)
		}
		p.compiled = append(p.compiled, re)
	}
	return p, nil
}

// Name implements Facet.
func (*Pattern) Name() string { return "pattern" }

// Validate implements Facet. The pattern applies to the lexical form,
// before any value-space interpretation.
func (f *Pattern) Validate(_ value.Value, lexical string) error {
	for _, re := range f.compiled {
		if re.MatchString(lexical) {
			return nil
		}
	}
	return fmt.Errorf("value %q does not match pattern %s", lexical, strings.Join(f.Lexicals, "|"))
}

// translatePattern maps the XML Schema regex dialect onto Go's regexp
// syntax: implicit whole-string anchoring and the multi-character
// escapes \i, \I, \c, \C for name characters.
func translatePattern(pattern string) (string, error) {
	const (
		initialNameClass = `[A-Za-z_:\x{C0}-\x{2FF}\x{370}-\x{1FFF}]`
		nameClass        = `[-.0-9A-Za-z_:\x{B7}\x{C0}-\x{2FF}\x{300}-\x{1FFF}\x{203F}-\x{2040}]`
	)
	var b strings.Builder
	b.WriteString(`\A(?:`)
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(pattern) {
			return "", fmt.Errorf("trailing backslash")
		}
		i++
		switch pattern[i] {
		case 'i':
			b.WriteString(initialNameClass)
		case 'I':
			b.WriteString(`[^A-Za-z_:]`)
		case 'c':
			b.WriteString(nameClass)
		case 'C':
			b.WriteString(`[^-.0-9A-Za-z_:]`)
		default:
			b.WriteByte('\\')
			b.WriteByte(pattern[i])
		}
	}
	b.WriteString(`)\z`)
	return b.String(), nil
}
