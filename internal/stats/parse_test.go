package stats

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTokens(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"6.60B", "6600000000"},
		{"17K", "17000"},
		{"500", "500"},
		{"1,234", "1234"},
		{"2.5M", "2500000"},
		{"1.2b", "1200000000"},
		{"0", "0"},
		{"980k", "980000"},
		{"3.333B", "3333000000"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseTokens(tt.input)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseTokensFallsBackToZero(t *testing.T) {
	// Token path never errors; every malformed input is exactly zero.
	for _, input := range []string{"", "garbage", "K", "B", "...", "-5M", "🙂"} {
		got := ParseTokens(input)
		assert.Zero(t, got.Sign(), "input %q", input)
	}
}

func TestParseTokensExactAboveFloatPrecision(t *testing.T) {
	// 2^53 is where float64 loses integer exactness; the parser must not.
	got := ParseTokens("9,007,199,254,740,993")
	assert.Equal(t, "9007199254740993", got.String())
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		input string
		want  int64
	}{
		{"100", 100},
		{"17K", 17000},
		{"4.3K", 4300},
		{"1.2M", 1200000},
		{"1,234", 1234},
		{"30 days", 30},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseCount(tt.input)
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCountUnknownIsNotZero(t *testing.T) {
	for _, input := range []string{"", "n/a", "---", "xKx"} {
		_, ok := ParseCount(input)
		assert.False(t, ok, "input %q must be unknown", input)
	}

	// An explicit zero stays distinguishable from unknown.
	got, ok := ParseCount("0")
	assert.True(t, ok)
	assert.Zero(t, got)
}

func TestParseStreak(t *testing.T) {
	got, ok := ParseStreak("56d")
	assert.True(t, ok)
	assert.Equal(t, int64(56), got)

	got, ok = ParseStreak("30 days")
	assert.True(t, ok)
	assert.Equal(t, int64(30), got)

	_, ok = ParseStreak("")
	assert.False(t, ok)
}

func TestParseDaysAgo(t *testing.T) {
	got, ok := ParseDaysAgo("joined 321 days ago")
	assert.True(t, ok)
	assert.Equal(t, int64(321), got)

	got, ok = ParseDaysAgo("45")
	assert.True(t, ok)
	assert.Equal(t, int64(45), got)

	_, ok = ParseDaysAgo("recently")
	assert.False(t, ok)
}

func TestFormatTokensRoundTrip(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"6600000000", "6.60B"},
		{"2500000", "2.50M"},
		{"17000", "17.0K"},
		{"500", "500"},
	}

	for _, tt := range tests {
		n, _ := new(big.Int).SetString(tt.value, 10)
		assert.Equal(t, tt.want, FormatTokens(n))
	}

	// Normalizing the abbreviated form again lands on the same magnitude.
	assert.Equal(t, "6600000000", ParseTokens(FormatTokens(ParseTokens("6.60B"))).String())
}

func TestFormatCount(t *testing.T) {
	v := int64(4300)
	assert.Equal(t, "4.3K", FormatCount(&v))

	m := int64(1_200_000)
	assert.Equal(t, "1.2M", FormatCount(&m))

	small := int64(42)
	assert.Equal(t, "42", FormatCount(&small))

	assert.Equal(t, "-", FormatCount(nil))
}
