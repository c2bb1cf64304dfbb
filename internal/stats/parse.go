// Package stats turns the free-form output of the vision model into
// validated, ranking-comparable values. Parsing never panics and never
// returns an error: the token path degrades to zero, every other numeric
// path degrades to "unknown" (nil), which callers must keep distinct from
// zero.
package stats

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	nonNumeric = regexp.MustCompile(`[^0-9.]`)
	daysAgoRe  = regexp.MustCompile(`(?i)(\d+)\s*days?`)
)

// suffixExp maps a magnitude suffix to its power of ten.
func suffixExp(s string) (string, int) {
	switch {
	case strings.HasSuffix(s, "B"):
		return s[:len(s)-1], 9
	case strings.HasSuffix(s, "M"):
		return s[:len(s)-1], 6
	case strings.HasSuffix(s, "K"):
		return s[:len(s)-1], 3
	}
	return s, 0
}

func clean(s string) string {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	return strings.ToUpper(strings.TrimSpace(s))
}

// ParseTokens converts a magnitude string ("6.60B", "17K", "1,234") into an
// exact non-negative integer. The suffix multiplication runs through big.Rat
// so values in the billions keep exact equality under ordering and
// re-serialization. Anything unparseable, empty, or negative yields zero.
func ParseTokens(s string) *big.Int {
	mantissa, exp := suffixExp(clean(s))
	if mantissa == "" {
		return big.NewInt(0)
	}

	r, ok := new(big.Rat).SetString(mantissa)
	if !ok {
		// Plain-number path tolerates stray unit noise ("1.2B tokens").
		mantissa = nonNumeric.ReplaceAllString(mantissa, "")
		if r, ok = new(big.Rat).SetString(mantissa); !ok {
			return big.NewInt(0)
		}
	}
	if r.Sign() < 0 {
		return big.NewInt(0)
	}

	mult := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
	r.Mul(r, new(big.Rat).SetInt(mult))

	// Floor: numerator and denominator are non-negative here.
	return new(big.Int).Quo(r.Num(), r.Denom())
}

// ParseCount converts an optional magnitude string into a bounded integer.
// The second return value reports whether the value was readable at all;
// (0, false) means "not visible in the screenshot", which is distinct from
// an explicit zero. Suffix math runs through big.Rat like the token path so
// "4.3K" floors to exactly 4300.
func ParseCount(s string) (int64, bool) {
	cleaned := clean(s)
	if cleaned == "" {
		return 0, false
	}

	mantissa, exp := suffixExp(cleaned)
	r, ok := new(big.Rat).SetString(mantissa)
	if !ok {
		if exp != 0 {
			return 0, false
		}
		// No suffix: strip unit words and retry ("30 days" -> "30").
		stripped := nonNumeric.ReplaceAllString(mantissa, "")
		if r, ok = new(big.Rat).SetString(stripped); !ok {
			return 0, false
		}
	}
	if r.Sign() < 0 {
		return 0, false
	}

	mult := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
	r.Mul(r, new(big.Rat).SetInt(mult))

	floored := new(big.Int).Quo(r.Num(), r.Denom())
	if !floored.IsInt64() {
		return 0, false
	}
	return floored.Int64(), true
}

// ParseStreak reads a streak value that may carry a day unit ("56d",
// "30 days").
func ParseStreak(s string) (int64, bool) {
	trimmed := strings.TrimSpace(s)
	trimmed = strings.TrimSuffix(strings.TrimSuffix(trimmed, "d"), "D")
	return ParseCount(trimmed)
}

// ParseDaysAgo reads a day-phrase ("321 days") or a bare integer.
func ParseDaysAgo(s string) (int64, bool) {
	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		if v, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			return v, true
		}
	}
	return ParseCount(s)
}

// FormatTokens renders a token count back into its abbreviated display form.
// Round-trips the order of magnitude: 6600000000 -> "6.60B".
func FormatTokens(n *big.Int) string {
	if n == nil {
		return "0"
	}
	f, _ := new(big.Float).SetInt(n).Float64()
	switch {
	case n.Cmp(big.NewInt(1_000_000_000)) >= 0:
		return fmt.Sprintf("%.2fB", f/1_000_000_000)
	case n.Cmp(big.NewInt(1_000_000)) >= 0:
		return fmt.Sprintf("%.2fM", f/1_000_000)
	case n.Cmp(big.NewInt(1_000)) >= 0:
		return fmt.Sprintf("%.1fK", f/1_000)
	}
	return n.String()
}

// FormatCount renders an optional count for display; unknown values show as
// a dash.
func FormatCount(n *int64) string {
	if n == nil {
		return "-"
	}
	v := *n
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(v)/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("%.1fK", float64(v)/1_000)
	}
	return strconv.FormatInt(v, 10)
}
