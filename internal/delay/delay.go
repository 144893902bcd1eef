package delay

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Default is used whenever an amount carries no recognizable token.
const Default = 30 * time.Minute

var tokenPattern = regexp.MustCompile(`(?i)(\d+)\s*([dhms])`)

var units = map[string]time.Duration{
	"d": 24 * time.Hour,
	"h": time.Hour,
	"m": time.Minute,
	"s": time.Second,
}

// Parse sums every <int><unit> token in raw ("1h30m", "90s", "2d").
// Malformed input, and amounts too large for a time.Duration, degrade to
// Default instead of failing.
func Parse(raw string) time.Duration {
	matches := tokenPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return Default
	}
	var total time.Duration
	for _, m := range matches {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Default
		}
		unit := units[strings.ToLower(m[2])]
		if n > int64(math.MaxInt64/unit) {
			return Default
		}
		part := time.Duration(n) * unit
		if total > math.MaxInt64-part {
			return Default
		}
		total += part
	}
	return total
}

// Valid reports whether raw carries at least one token, i.e. whether Parse
// would not fall back to Default.
func Valid(raw string) bool {
	return tokenPattern.MatchString(raw)
}

// Millis is Parse expressed in milliseconds.
func Millis(raw string) int64 {
	return Parse(raw).Milliseconds()
}

// Format renders d in the compact form Parse accepts, e.g. "1h30m".
func Format(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	var b strings.Builder
	for _, u := range []struct {
		suffix string
		size   time.Duration
	}{
		{"d", 24 * time.Hour},
		{"h", time.Hour},
		{"m", time.Minute},
		{"s", time.Second},
	} {
		if n := d / u.size; n > 0 {
			b.WriteString(strconv.FormatInt(int64(n), 10))
			b.WriteString(u.suffix)
			d -= n * u.size
		}
	}
	if b.Len() == 0 {
		return "0m"
	}
	return b.String()
}
