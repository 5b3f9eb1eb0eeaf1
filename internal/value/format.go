package value

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// FromNative maps a Go value into the value space of the given kind.
// A string is parsed as a lexical form for any kind, so callers can
// pass either typed data or raw text when encoding.
func FromNative(kind Kind, native any) (Value, error) {
	if s, ok := native.(string); ok && kind != KindString && kind != KindAnyURI {
		return ParseKind(kind, s)
	}
	v := Value{Kind: kind}
	switch kind {
	case KindString, KindAnyURI:
		s, ok := native.(string)
		if !ok {
			return v, fmt.Errorf("cannot represent %T as %s", native, kind)
		}
		v.Str, v.Lexical = s, s
		return v, nil

	case KindBoolean:
		b, ok := native.(bool)
		if !ok {
			return v, fmt.Errorf("cannot represent %T as boolean", native)
		}
		v.Bool = b
		v.Lexical = v.Canonical()
		return v, nil

	case KindDecimal:
		switch n := native.(type) {
		case decimal.Decimal:
			v.Dec = n
		case float64:
			v.Dec = decimal.NewFromFloat(n)
		case int:
			v.Dec = decimal.NewFromInt(int64(n))
		case int64:
			v.Dec = decimal.NewFromInt(n)
		case *big.Int:
			v.Dec = decimal.NewFromBigInt(n, 0)
		default:
			return v, fmt.Errorf("cannot represent %T as decimal", native)
		}
		v.Lexical = v.Canonical()
		return v, nil

	case KindInteger:
		switch n := native.(type) {
		case *big.Int:
			v.Int = n
		case int:
			v.Int = big.NewInt(int64(n))
		case int64:
			v.Int = big.NewInt(n)
		case decimal.Decimal:
			if n.Exponent() < 0 && !n.Equal(n.Truncate(0)) {
				return v, fmt.Errorf("cannot represent fractional %s as integer", n)
			}
			v.Int = n.BigInt()
		default:
			return v, fmt.Errorf("cannot represent %T as integer", native)
		}
		v.Lexical = v.Canonical()
		return v, nil

	case KindFloat, KindDouble:
		switch n := native.(type) {
		case float64:
			v.Float = n
		case float32:
			v.Float = float64(n)
		case int:
			v.Float = float64(n)
		default:
			return v, fmt.Errorf("cannot represent %T as %s", native, kind)
		}
		v.Lexical = v.Canonical()
		return v, nil

	case KindDateTime, KindDate, KindTime, KindGYear, KindGYearMonth, KindGMonthDay, KindGDay, KindGMonth:
		t, ok := native.(time.Time)
		if !ok {
			return v, fmt.Errorf("cannot represent %T as %s", native, kind)
		}
		v.Temporal = Temporal{Time: t.UTC(), HasTZ: true}
		v.Lexical = formatTemporal(kind, v.Temporal)
		return v, nil

	case KindDuration:
		d, ok := native.(Duration)
		if !ok {
			return v, fmt.Errorf("cannot represent %T as duration", native)
		}
		v.Dur = d
		v.Lexical = formatDuration(d)
		return v, nil

	case KindHexBinary, KindBase64Binary:
		b, ok := native.([]byte)
		if !ok {
			return v, fmt.Errorf("cannot represent %T as %s", native, kind)
		}
		v.Bytes = b
		v.Lexical = formatBinary(kind, b)
		return v, nil
	}
	return v, fmt.Errorf("cannot represent %T as %s", native, kind)
}

func formatTemporal(kind Kind, t Temporal) string {
	layout := map[Kind]string{
		KindDateTime:   "2006-01-02T15:04:05",
		KindDate:       "2006-01-02",
		KindTime:       "15:04:05",
		KindGYear:      "2006",
		KindGYearMonth: "2006-01",
		KindGMonthDay:  "--01-02",
		KindGDay:       "---02",
		KindGMonth:     "--01",
	}[kind]
	s := t.Time.UTC().Format(layout)
	if t.HasTZ && (kind == KindDateTime || kind == KindDate || kind == KindTime) {
		s += "Z"
	}
	return s
}

func formatDuration(d Duration) string {
	neg := d.Months < 0 || d.Seconds.IsNegative()
	months := d.Months
	secs := d.Seconds
	if neg {
		months = -months
		secs = secs.Neg()
	}
	out := "P"
	if y := months / 12; y > 0 {
		out += fmt.Sprintf("%dY", y)
	}
	if m := months % 12; m > 0 {
		out += fmt.Sprintf("%dM", m)
	}
	if !secs.IsZero() {
		out += "T" + secs.String() + "S"
	}
	if out == "P" {
		out = "PT0S"
	}
	if neg {
		out = "-" + out
	}
	return out
}

func formatBinary(kind Kind, b []byte) string {
	v := Value{Kind: kind, Bytes: b}
	if kind == KindHexBinary {
		return v.Canonical()
	}
	return base64Canonical(b)
}

func base64Canonical(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
