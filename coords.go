package measureplot

import (
	"errors"
	"math"
	"time"
)

// ErrTimeOverflow is returned when a timestamp cannot be expressed as int64
// nanoseconds since the Unix epoch.
var ErrTimeOverflow = errors.New("measureplot: timestamp out of nanosecond range")

// TimeToX maps a timestamp in nanoseconds onto the horizontal pixel axis of a
// surface `width` units wide spanning [begin, end]. The caller is expected to
// pass end > begin; otherwise the result is not finite.
func TimeToX(t, begin, end int64, width float64) float64 {
	revFactor := 1 / float64(end-begin)
	delta := float64(t - begin)
	return revFactor * delta * width
}

// XToTime is the inverse of TimeToX, truncated to whole nanoseconds.
func XToTime(x float64, begin, end int64, width float64) int64 {
	revFactor := 1 / width
	offset := revFactor * x * float64(end-begin)
	if math.IsNaN(offset) || math.IsInf(offset, 0) {
		// conversion of a non-finite float is implementation defined
		return begin
	}
	return begin + saturate(offset)
}

// ValueToY maps a value in [0, max] onto the vertical pixel axis, top-left
// origin, keeping a margin of a tenth of the height above and below.
func ValueToY(value, max, height float64) float64 {
	revFactor := 1 / max
	margin := yMargin(height)
	return height - revFactor*value*(height-margin) - margin
}

func yMargin(height float64) float64 {
	return height / 10
}

// Nanos returns t as nanoseconds since the Unix epoch and whether it fits
// in an int64 (roughly years 1678 through 2262).
func Nanos(t time.Time) (int64, bool) {
	if t.Before(minNanoTime) || t.After(maxNanoTime) {
		return 0, false
	}
	return t.UnixNano(), true
}

var (
	minNanoTime = time.Unix(0, math.MinInt64)
	maxNanoTime = time.Unix(0, math.MaxInt64)
)

func saturate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}
