// Package value implements the lexical-to-value mappings of the XSD
// primitive datatypes and ordering over the resulting value spaces.
package value

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Kind enumerates the primitive value spaces.
type Kind uint8

const (
	KindString Kind = iota
	KindBoolean
	KindDecimal
	KindInteger
	KindFloat
	KindDouble
	KindDuration
	KindDateTime
	KindTime
	KindDate
	KindGYearMonth
	KindGYear
	KindGMonthDay
	KindGDay
	KindGMonth
	KindHexBinary
	KindBase64Binary
	KindAnyURI
	KindQName
)

var kindNames = map[Kind]string{
	KindString:       "string",
	KindBoolean:      "boolean",
	KindDecimal:      "decimal",
	KindInteger:      "integer",
	KindFloat:        "float",
	KindDouble:       "double",
	KindDuration:     "duration",
	KindDateTime:     "dateTime",
	KindTime:         "time",
	KindDate:         "date",
	KindGYearMonth:   "gYearMonth",
	KindGYear:        "gYear",
	KindGMonthDay:    "gMonthDay",
	KindGDay:         "gDay",
	KindGMonth:       "gMonth",
	KindHexBinary:    "hexBinary",
	KindBase64Binary: "base64Binary",
	KindAnyURI:       "anyURI",
	KindQName:        "QName",
}

// String returns the primitive type name for the kind.
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Numeric reports whether values of the kind belong to a numeric value space.
func (k Kind) Numeric() bool {
	switch k {
	case KindDecimal, KindInteger, KindFloat, KindDouble:
		return true
	}
	return false
}

// Ordered reports whether values of the kind have a (possibly partial) order.
func (k Kind) Ordered() bool {
	switch k {
	case KindString, KindBoolean, KindHexBinary, KindBase64Binary, KindAnyURI, KindQName:
		return false
	}
	return true
}

// Temporal is the value-space representation of the date/time kinds.
// Values without a timezone are stored as if in UTC with HasTZ unset;
// comparison against zoned values treats them as UTC.
type Temporal struct {
	Time  time.Time
	HasTZ bool
}

// Duration is the value-space representation of xs:duration: a month
// part and a (possibly fractional, possibly negative) second part.
type Duration struct {
	Months  int64
	Seconds decimal.Decimal
}

// Value is a single typed value: the lexical form it was parsed from
// plus its value-space representation.
type Value struct {
	Kind    Kind
	Lexical string

	Str      string
	Bool     bool
	Dec      decimal.Decimal
	Int      *big.Int
	Float    float64
	Temporal Temporal
	Dur      Duration
	Bytes    []byte
	Space    string // QName namespace
	Local    string // QName local part

	// Items holds member values for list-typed values.
	Items []Value
}

// Native returns the Go representation of the value: string, bool,
// decimal.Decimal, *big.Int, float64, time.Time, []byte, or []any for
// lists.
func (v Value) Native() any {
	switch v.Kind {
	case KindString, KindAnyURI:
		return v.Str
	case KindBoolean:
		return v.Bool
	case KindDecimal:
		return v.Dec
	case KindInteger:
		return v.Int
	case KindFloat, KindDouble:
		return v.Float
	case KindDateTime, KindDate, KindTime, KindGYear, KindGYearMonth, KindGMonthDay, KindGDay, KindGMonth:
		return v.Temporal.Time
	case KindDuration:
		return v.Dur
	case KindHexBinary, KindBase64Binary:
		return v.Bytes
	case KindQName:
		return v.Space + ":" + v.Local
	}
	return v.Lexical
}

// Canonical returns the canonical lexical form of the value.
func (v Value) Canonical() string {
	switch v.Kind {
	case KindBoolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindDecimal:
		return v.Dec.String()
	case KindInteger:
		return v.Int.String()
	case KindFloat, KindDouble:
		return formatFloat(v.Float)
	case KindHexBinary:
		return strings.ToUpper(fmt.Sprintf("%x", v.Bytes))
	}
	if len(v.Items) > 0 {
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			parts[i] = item.Canonical()
		}
		return strings.Join(parts, " ")
	}
	if v.Kind == KindString || v.Kind == KindAnyURI {
		return v.Str
	}
	return v.Lexical
}

// Equal reports value-space equality between two values of the same kind.
func Equal(a, b Value) bool {
	if a.Items != nil || b.Items != nil {
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	}
	if a.Kind != b.Kind {
		// Integer values live inside the decimal value space.
		if cmp, ok := Compare(a, b); ok {
			return cmp == 0
		}
		return false
	}
	switch a.Kind {
	case KindString, KindAnyURI:
		return a.Str == b.Str
	case KindBoolean:
		return a.Bool == b.Bool
	case KindDecimal:
		return a.Dec.Equal(b.Dec)
	case KindInteger:
		return a.Int.Cmp(b.Int) == 0
	case KindFloat, KindDouble:
		return a.Float == b.Float
	case KindDateTime, KindDate, KindTime, KindGYear, KindGYearMonth, KindGMonthDay, KindGDay, KindGMonth:
		return a.Temporal.Time.Equal(b.Temporal.Time)
	case KindDuration:
		return a.Dur.Months == b.Dur.Months && a.Dur.Seconds.Equal(b.Dur.Seconds)
	case KindHexBinary, KindBase64Binary:
		return string(a.Bytes) == string(b.Bytes)
	case KindQName:
		return a.Space == b.Space && a.Local == b.Local
	}
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if !Equal(a.Items[i], b.Items[i]) {
			return false
		}
	}
	return a.Lexical == b.Lexical
}

// Compare orders two values. The second result is false when the values
// are not comparable (different or unordered value spaces).
func Compare(a, b Value) (int, bool) {
	if a.Kind.Numeric() && b.Kind.Numeric() {
		return compareNumeric(a, b)
	}
	if a.Kind != b.Kind {
		return 0, false
	}
	switch a.Kind {
	case KindDateTime, KindDate, KindTime, KindGYear, KindGYearMonth, KindGMonthDay, KindGDay, KindGMonth:
		at, bt := a.Temporal.Time, b.Temporal.Time
		switch {
		case at.Before(bt):
			return -1, true
		case at.After(bt):
			return 1, true
		default:
			return 0, true
		}
	case KindDuration:
		if a.Dur.Months == b.Dur.Months {
			return a.Dur.Seconds.Cmp(b.Dur.Seconds), true
		}
		if a.Dur.Seconds.Equal(b.Dur.Seconds) {
			switch {
			case a.Dur.Months < b.Dur.Months:
				return -1, true
			default:
				return 1, true
			}
		}
		return 0, false
	case KindString:
		return strings.Compare(a.Str, b.Str), true
	}
	return 0, false
}

func compareNumeric(a, b Value) (int, bool) {
	ad, ok := asDecimal(a)
	if !ok {
		return 0, false
	}
	bd, ok := asDecimal(b)
	if !ok {
		return 0, false
	}
	return ad.Cmp(bd), true
}

func asDecimal(v Value) (decimal.Decimal, bool) {
	switch v.Kind {
	case KindDecimal:
		return v.Dec, true
	case KindInteger:
		return decimal.NewFromBigInt(v.Int, 0), true
	case KindFloat, KindDouble:
		d, err := decimal.NewFromString(formatFloat(v.Float))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}
