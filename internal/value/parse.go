package value

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	decimalPattern  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	integerPattern  = regexp.MustCompile(`^[+-]?\d+$`)
	durationPattern = regexp.MustCompile(`^(-)?P(?:(\d+)Y)?(?:(\d+)M)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)
)

// ParseKind maps a whitespace-normalized lexical form into the value
// space of the given primitive kind.
func ParseKind(kind Kind, lexical string) (Value, error) {
	v := Value{Kind: kind, Lexical: lexical}
	switch kind {
	case KindString, KindAnyURI:
		v.Str = lexical
		return v, nil

	case KindBoolean:
		switch lexical {
		case "true", "1":
			v.Bool = true
		case "false", "0":
			v.Bool = false
		default:
			return v, fmt.Errorf("invalid boolean %q", lexical)
		}
		return v, nil

	case KindDecimal:
		if !decimalPattern.MatchString(lexical) {
			return v, fmt.Errorf("invalid decimal %q", lexical)
		}
		d, err := decimal.NewFromString(lexical)
		if err != nil {
			return v, fmt.Errorf("invalid decimal %q", lexical)
		}
		v.Dec = d
		return v, nil

	case KindInteger:
		if !integerPattern.MatchString(lexical) {
			return v, fmt.Errorf("invalid integer %q", lexical)
		}
		i, ok := new(big.Int).SetString(strings.TrimPrefix(lexical, "+"), 10)
		if !ok {
			return v, fmt.Errorf("invalid integer %q", lexical)
		}
		v.Int = i
		return v, nil

	case KindFloat, KindDouble:
		f, err := parseFloat(lexical)
		if err != nil {
			return v, err
		}
		v.Float = f
		return v, nil

	case KindDuration:
		d, err := parseDuration(lexical)
		if err != nil {
			return v, err
		}
		v.Dur = d
		return v, nil

	case KindDateTime:
		return parseTemporal(v, lexical, "2006-01-02T15:04:05")
	case KindDate:
		return parseTemporal(v, lexical, "2006-01-02")
	case KindTime:
		return parseTemporal(v, lexical, "15:04:05")
	case KindGYearMonth:
		return parseTemporal(v, lexical, "2006-01")
	case KindGYear:
		return parseTemporal(v, lexical, "2006")
	case KindGMonthDay:
		return parseTemporal(v, lexical, "--01-02")
	case KindGDay:
		return parseTemporal(v, lexical, "---02")
	case KindGMonth:
		return parseTemporal(v, lexical, "--01")

	case KindHexBinary:
		b, err := hex.DecodeString(lexical)
		if err != nil {
			return v, fmt.Errorf("invalid hexBinary %q", lexical)
		}
		v.Bytes = b
		return v, nil

	case KindBase64Binary:
		b, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(lexical, " ", ""))
		if err != nil {
			return v, fmt.Errorf("invalid base64Binary %q", lexical)
		}
		v.Bytes = b
		return v, nil

	case KindQName:
		prefix, local := "", lexical
		if i := strings.IndexByte(lexical, ':'); i >= 0 {
			prefix, local = lexical[:i], lexical[i+1:]
		}
		if local == "" || strings.ContainsAny(local, " \t\n:") {
			return v, fmt.Errorf("invalid QName %q", lexical)
		}
		v.Space, v.Local = prefix, local
		return v, nil
	}
	return v, fmt.Errorf("unsupported primitive kind %s", kind)
}

func parseFloat(lexical string) (float64, error) {
	switch lexical {
	case "INF", "+INF":
		return math.Inf(1), nil
	case "-INF":
		return math.Inf(-1), nil
	case "NaN":
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(lexical, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float %q", lexical)
	}
	return f, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "INF"
	case math.IsInf(f, -1):
		return "-INF"
	case math.IsNaN(f):
		return "NaN"
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func parseDuration(lexical string) (Duration, error) {
	m := durationPattern.FindStringSubmatch(lexical)
	if m == nil || lexical == "P" || lexical == "-P" || strings.HasSuffix(lexical, "T") {
		return Duration{}, fmt.Errorf("invalid duration %q", lexical)
	}
	if m[2] == "" && m[3] == "" && m[4] == "" && m[5] == "" && m[6] == "" && m[7] == "" {
		return Duration{}, fmt.Errorf("invalid duration %q", lexical)
	}
	var d Duration
	years, _ := strconv.ParseInt(zeroIfEmpty(m[2]), 10, 64)
	months, _ := strconv.ParseInt(zeroIfEmpty(m[3]), 10, 64)
	days, _ := strconv.ParseInt(zeroIfEmpty(m[4]), 10, 64)
	hours, _ := strconv.ParseInt(zeroIfEmpty(m[5]), 10, 64)
	minutes, _ := strconv.ParseInt(zeroIfEmpty(m[6]), 10, 64)
	seconds, err := decimal.NewFromString(zeroIfEmpty(m[7]))
	if err != nil {
		return Duration{}, fmt.Errorf("invalid duration %q", lexical)
	}
	d.Months = years*12 + months
	d.Seconds = seconds.Add(decimal.NewFromInt(days*86400 + hours*3600 + minutes*60))
	if m[1] == "-" {
		d.Months = -d.Months
		d.Seconds = d.Seconds.Neg()
	}
	return d, nil
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// parseTemporal parses the date/time kinds: the base layout, optional
// fractional seconds for time-bearing kinds, and an optional timezone.
func parseTemporal(v Value, lexical, layout string) (Value, error) {
	rest := lexical
	tzLayout := ""
	switch {
	case strings.HasSuffix(rest, "Z"):
		tzLayout = "Z07:00"
		v.Temporal.HasTZ = true
	case tzOffsetSuffix(rest):
		tzLayout = "-07:00"
		v.Temporal.HasTZ = true
	}
	full := layout
	if strings.Contains(layout, "15:04:05") && strings.Contains(stripTZ(rest, tzLayout), ".") {
		full += ".999999999"
	}
	full += tzLayout
	t, err := time.Parse(full, rest)
	if err != nil {
		return v, fmt.Errorf("invalid %s %q", v.Kind, lexical)
	}
	v.Temporal.Time = t.UTC()
	return v, nil
}

func stripTZ(lexical, tzLayout string) string {
	if tzLayout == "" {
		return lexical
	}
	if strings.HasSuffix(lexical, "Z") {
		return lexical[:len(lexical)-1]
	}
	if len(lexical) > 6 {
		return lexical[:len(lexical)-6]
	}
	return lexical
}

func tzOffsetSuffix(lexical string) bool {
	if len(lexical) < 6 {
		return false
	}
	tail := lexical[len(lexical)-6:]
	return (tail[0] == '+' || tail[0] == '-') && tail[3] == ':'
}
