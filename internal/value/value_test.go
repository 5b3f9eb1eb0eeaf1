package value

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKindDecimal(t *testing.T) {
	v, err := ParseKind(KindDecimal, "3.14")
	require.NoError(t, err)
	assert.True(t, v.Dec.Equal(decimal.RequireFromString("3.14")))

	_, err = ParseKind(KindDecimal, "3.14E2")
	assert.Error(t, err, "exponent notation is not in the decimal lexical space")

	_, err = ParseKind(KindDecimal, "abc")
	assert.Error(t, err)
}

func TestParseKindIntegerArbitraryPrecision(t *testing.T) {
	lexical := "123456789012345678901234567890"
	v, err := ParseKind(KindInteger, lexical)
	require.NoError(t, err)
	want, _ := new(big.Int).SetString(lexical, 10)
	assert.Zero(t, v.Int.Cmp(want))

	_, err = ParseKind(KindInteger, "1.5")
	assert.Error(t, err)
}

func TestParseKindBoolean(t *testing.T) {
	for lexical, want := range map[string]bool{"true": true, "1": true, "false": false, "0": false} {
		v, err := ParseKind(KindBoolean, lexical)
		require.NoError(t, err)
		assert.Equal(t, want, v.Bool, lexical)
	}
	_, err := ParseKind(KindBoolean, "TRUE")
	assert.Error(t, err)
}

func TestParseKindFloatSpecials(t *testing.T) {
	v, err := ParseKind(KindDouble, "INF")
	require.NoError(t, err)
	assert.Equal(t, "INF", v.Canonical())

	v, err = ParseKind(KindDouble, "-INF")
	require.NoError(t, err)
	assert.Equal(t, "-INF", v.Canonical())

	v, err = ParseKind(KindDouble, "NaN")
	require.NoError(t, err)
	assert.Equal(t, "NaN", v.Canonical())
}

func TestParseKindDuration(t *testing.T) {
	v, err := ParseKind(KindDuration, "P1Y2M3DT4H5M6.5S")
	require.NoError(t, err)
	assert.Equal(t, int64(14), v.Dur.Months)
	wantSecs := decimal.RequireFromString("6.5").
		Add(decimal.NewFromInt(3*86400 + 4*3600 + 5*60))
	assert.True(t, v.Dur.Seconds.Equal(wantSecs))

	_, err = ParseKind(KindDuration, "P")
	assert.Error(t, err)
	_, err = ParseKind(KindDuration, "P1YT")
	assert.Error(t, err)
}

func TestParseKindDateTimeTimezone(t *testing.T) {
	withTZ, err := ParseKind(KindDateTime, "2024-06-01T12:00:00Z")
	require.NoError(t, err)
	assert.True(t, withTZ.Temporal.HasTZ)

	offset, err := ParseKind(KindDateTime, "2024-06-01T14:00:00+02:00")
	require.NoError(t, err)
	assert.True(t, offset.Temporal.HasTZ)
	assert.True(t, withTZ.Temporal.Time.Equal(offset.Temporal.Time))

	local, err := ParseKind(KindDateTime, "2024-06-01T12:00:00")
	require.NoError(t, err)
	assert.False(t, local.Temporal.HasTZ)
}

func TestCompareAcrossNumericKinds(t *testing.T) {
	i, err := ParseKind(KindInteger, "3")
	require.NoError(t, err)
	d, err := ParseKind(KindDecimal, "3.5")
	require.NoError(t, err)

	cmp, ok := Compare(i, d)
	require.True(t, ok)
	assert.Equal(t, -1, cmp)

	three, err := ParseKind(KindDecimal, "3.0")
	require.NoError(t, err)
	assert.True(t, Equal(i, three), "integer 3 equals decimal 3.0 in the value space")
}

func TestEqualLists(t *testing.T) {
	a := Value{Kind: KindString, Items: []Value{{Kind: KindString, Str: "a"}, {Kind: KindString, Str: "b"}}}
	b := Value{Kind: KindString, Items: []Value{{Kind: KindString, Str: "a"}, {Kind: KindString, Str: "b"}}}
	short := Value{Kind: KindString, Items: []Value{{Kind: KindString, Str: "a"}}}
	empty := Value{Kind: KindString, Items: []Value{}}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, short))
	assert.False(t, Equal(a, empty))
}

func TestFromNative(t *testing.T) {
	v, err := FromNative(KindInteger, 42)
	require.NoError(t, err)
	assert.Equal(t, "42", v.Canonical())

	v, err = FromNative(KindBoolean, true)
	require.NoError(t, err)
	assert.Equal(t, "true", v.Canonical())

	v, err = FromNative(KindDecimal, "19.99")
	require.NoError(t, err)
	assert.True(t, v.Dec.Equal(decimal.RequireFromString("19.99")))

	_, err = FromNative(KindInteger, decimal.RequireFromString("1.5"))
	assert.Error(t, err)

	_, err = FromNative(KindBoolean, 7)
	assert.Error(t, err)
}

func TestCanonicalHexBinary(t *testing.T) {
	v, err := ParseKind(KindHexBinary, "0fb7")
	require.NoError(t, err)
	assert.Equal(t, "0FB7", v.Canonical())
}
