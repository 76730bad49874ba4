package rank

import (
	"math"
	"strconv"
	"strings"
)

// ParseScore reads the leading decimal number of s. Surrounding whitespace is
// ignored and trailing text is dropped ("42 pts" is 42, "1,5" is 1). Anything
// without a leading number, and any non-finite result, is 0.
func ParseScore(s string) float64 {
	num := leadingNumber(strings.TrimSpace(s))
	if num == "" {
		return 0
	}
	v, err := strconv.ParseFloat(num, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// leadingNumber returns the longest prefix of s matching
// [+-]? (digits [. digits?] | . digits) ([eE] [+-]? digits)?
// or "" when s does not start with a number.
func leadingNumber(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	intStart := i
	i = skipDigits(s, i)
	digits := i - intStart

	if i < len(s) && s[i] == '.' {
		fracStart := i + 1
		j := skipDigits(s, fracStart)
		if digits > 0 || j > fracStart {
			digits += j - fracStart
			i = j
		}
	}
	if digits == 0 {
		return ""
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if k := skipDigits(s, j); k > j {
			i = k
		}
	}
	return s[:i]
}

func skipDigits(s string, i int) int {
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return i
}
