package measureplot

import (
	"math"
	"time"
)

// SegmentRange is a half-open range [First, Last) of segment indices counted
// from the Unix epoch.
type SegmentRange struct {
	First, Last int64
}

// ComputeLOD derives a level of detail from the visible duration:
// max(0, floor(log10(milliseconds) - 2)). Windows under a second are level 0
// and every further power of ten raises it by one.
func ComputeLOD(d time.Duration) int {
	ms := d.Milliseconds()

	// floor(log10(ms)) - 2, counted in digits to stay exact at powers of ten
	lod := -2
	for ; ms >= 10; ms /= 10 {
		lod++
	}
	return max(0, lod)
}

// SegmentDuration returns the size of one time segment at the given level of
// detail: 10^(lod+3)/10 milliseconds. It saturates at the largest
// representable duration.
func SegmentDuration(lod int) time.Duration {
	if lod < 0 {
		lod = 0
	}
	d := time.Millisecond
	for i := 0; i < lod+2; i++ {
		if d > math.MaxInt64/10 {
			return time.Duration(math.MaxInt64)
		}
		d *= 10
	}
	return d
}

// SegmentIndexRange returns the segments covering [begin, end] at the given
// level of detail. It reports false if either bound cannot be expressed in
// int64 nanoseconds since the epoch.
func SegmentIndexRange(begin, end time.Time, lod int) (SegmentRange, bool) {
	size := int64(SegmentDuration(lod))

	beginNs, ok := Nanos(begin)
	if !ok {
		return SegmentRange{}, false
	}
	endNs, ok := Nanos(end)
	if !ok {
		return SegmentRange{}, false
	}

	return SegmentRange{
		First: floorDiv(beginNs, size),
		Last:  floorDiv(endNs, size),
	}, true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// floorTo truncates t down to a multiple of step, both in nanoseconds.
func floorTo(t, step int64) int64 {
	return floorDiv(t, step) * step
}
