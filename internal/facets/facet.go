// Package facets implements the constraining facets of XSD simple types
// and the fixed-order checking pipeline the validator runs them in.
package facets

import (
	"fmt"
	"unicode/utf8"

	"github.com/xmlschema-go/xmlschema/internal/value"
)

// Facet constrains a simple type's value space.
type Facet interface {
	Name() string
	// Validate checks a parsed value against the facet. The lexical
	// argument is the whitespace-normalized lexical form, which
	// pattern and length facets operate on.
	Validate(v value.Value, lexical string) error
	// Fixed reports whether the facet was declared fixed, preventing
	// derived types from changing its value.
	Fixed() bool
}

type fixable struct{ IsFixed bool }

func (f fixable) Fixed() bool { return f.IsFixed }

// Enumeration restricts the value space to a fixed set.
type Enumeration struct {
	fixable
	Values   []value.Value
	Lexicals []string
}

// Name implements Facet.
func (*Enumeration) Name() string { return "enumeration" }

// Validate implements Facet.
func (f *Enumeration) Validate(v value.Value, lexical string) error {
	for i := range f.Values {
		if value.Equal(f.Values[i], v) {
			return nil
		}
	}
	return fmt.Errorf("value %q is not in the enumeration %v", lexical, f.Lexicals)
}

// BoundKind selects which bound a Range facet enforces.
type BoundKind uint8

const (
	MinInclusive BoundKind = iota
	MinExclusive
	MaxInclusive
	MaxExclusive
)

func (b BoundKind) String() string {
	switch b {
	case MinInclusive:
		return "minInclusive"
	case MinExclusive:
		return "minExclusive"
	case MaxInclusive:
		return "maxInclusive"
	default:
		return "maxExclusive"
	}
}

// Range is one of the four bound facets over an ordered value space.
type Range struct {
	fixable
	Bound BoundKind
	Limit value.Value
}

// Name implements Facet.
func (f *Range) Name() string { return f.Bound.String() }

// Validate implements Facet.
func (f *Range) Validate(v value.Value, lexical string) error {
	cmp, ok := value.Compare(v, f.Limit)
	if !ok {
		return fmt.Errorf("value %q is not comparable to %s bound %q", lexical, f.Bound, f.Limit.Lexical)
	}
	valid := false
	switch f.Bound {
	case MinInclusive:
		valid = cmp >= 0
	case MinExclusive:
		valid = cmp > 0
	case MaxInclusive:
		valid = cmp <= 0
	case MaxExclusive:
		valid = cmp < 0
	}
	if !valid {
		return fmt.Errorf("value %q violates %s %q", lexical, f.Bound, f.Limit.Lexical)
	}
	return nil
}

// TotalDigits bounds the number of significant decimal digits.
type TotalDigits struct {
	fixable
	Digits int
}

// Name implements Facet.
func (*TotalDigits) Name() string { return "totalDigits" }

// Validate implements Facet.
func (f *TotalDigits) Validate(v value.Value, lexical string) error {
	if n := countDigits(lexical); n > f.Digits {
		return fmt.Errorf("value %q has %d digits, totalDigits allows %d", lexical, n, f.Digits)
	}
	return nil
}

// FractionDigits bounds the number of fractional decimal digits.
type FractionDigits struct {
	fixable
	Digits int
}

// Name implements Facet.
func (*FractionDigits) Name() string { return "fractionDigits" }

// Validate implements Facet.
func (f *FractionDigits) Validate(v value.Value, lexical string) error {
	if n := countFractionDigits(lexical); n > f.Digits {
		return fmt.Errorf("value %q has %d fraction digits, fractionDigits allows %d", lexical, n, f.Digits)
	}
	return nil
}

// LengthKind selects which length facet is enforced.
type LengthKind uint8

const (
	LengthExact LengthKind = iota
	LengthMin
	LengthMax
)

func (k LengthKind) String() string {
	switch k {
	case LengthMin:
		return "minLength"
	case LengthMax:
		return "maxLength"
	default:
		return "length"
	}
}

// Length is one of length, minLength, or maxLength. Length is counted
// in characters for strings, bytes for the binary types, and items for
// list types (the item count is supplied by the caller).
type Length struct {
	fixable
	Kind  LengthKind
	Value int
}

// Name implements Facet.
func (f *Length) Name() string { return f.Kind.String() }

// Validate implements Facet.
func (f *Length) Validate(v value.Value, lexical string) error {
	return f.check(measureLength(v, lexical), lexical)
}

// ValidateCount checks an explicit unit count, used for list types.
func (f *Length) ValidateCount(n int, lexical string) error {
	return f.check(n, lexical)
}

func (f *Length) check(n int, lexical string) error {
	switch f.Kind {
	case LengthExact:
		if n != f.Value {
			return fmt.Errorf("value %q has length %d, length requires %d", lexical, n, f.Value)
		}
	case LengthMin:
		if n < f.Value {
			return fmt.Errorf("value %q has length %d, minLength requires %d", lexical, n, f.Value)
		}
	case LengthMax:
		if n > f.Value {
			return fmt.Errorf("value %q has length %d, maxLength allows %d", lexical, n, f.Value)
		}
	}
	return nil
}

func measureLength(v value.Value, lexical string) int {
	if v.Items != nil {
		return len(v.Items)
	}
	switch v.Kind {
	case value.KindHexBinary, value.KindBase64Binary:
		return len(v.Bytes)
	}
	return utf8.RuneCountInString(lexical)
}

func countDigits(lexical string) int {
	total := countIntegerDigits(lexical) + countFractionDigits(lexical)
	if total == 0 {
		return 1
	}
	return total
}

func countIntegerDigits(lexical string) int {
	n := 0
	significant := false
	for i := 0; i < len(lexical); i++ {
		c := lexical[i]
		if c == '.' {
			break
		}
		if c < '0' || c > '9' {
			continue
		}
		if c == '0' && !significant {
			continue
		}
		significant = true
		n++
	}
	return n
}

func countFractionDigits(lexical string) int {
	dot := -1
	for i := 0; i < len(lexical); i++ {
		if lexical[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return 0
	}
	end := len(lexical)
	for end > dot+1 && lexical[end-1] == '0' {
		end--
	}
	return end - dot - 1
}
