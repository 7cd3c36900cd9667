package measureplot

import (
	"strconv"
	"strings"
	"time"
)

// Calendar units used by formatDuration, in seconds. A year is 365.25 days
// and a month is a twelfth of that.
const (
	secondsPerYear  = 31_557_600
	secondsPerMonth = 2_630_016
	secondsPerDay   = 86_400
)

// formatDuration renders d as space separated non-zero components from years
// down to nanoseconds, e.g. "1day 1h" or "1m 30s". Year, month and day
// components are spelled out and pluralized. Zero renders as "0s".
func formatDuration(d time.Duration) string {
	var b strings.Builder
	if d < 0 {
		b.WriteByte('-')
	}
	// negated in uint64 so that math.MinInt64 does not overflow
	n := uint64(d)
	if d < 0 {
		n = -n
	}
	secs, nanos := n/uint64(time.Second), n%uint64(time.Second)

	start := b.Len()
	item := func(v uint64, unit string, plural bool) {
		if v == 0 {
			return
		}
		if b.Len() > start {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatUint(v, 10))
		b.WriteString(unit)
		if plural && v > 1 {
			b.WriteByte('s')
		}
	}

	item(secs/secondsPerYear, "year", true)
	secs %= secondsPerYear
	item(secs/secondsPerMonth, "month", true)
	secs %= secondsPerMonth
	item(secs/secondsPerDay, "day", true)
	secs %= secondsPerDay
	item(secs/3600, "h", false)
	item(secs%3600/60, "m", false)
	item(secs%60, "s", false)
	item(nanos/1_000_000, "ms", false)
	item(nanos/1000%1000, "us", false)
	item(nanos%1000, "ns", false)

	if b.Len() == start {
		return "0s"
	}
	return b.String()
}
