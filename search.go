package measureplot

// searchFunc is a binary search over data where cmp is also given the index
// of the element being compared, so that it can look at its neighbours. cmp
// returns a negative number if the element sorts before the target, zero if
// it matches and a positive number otherwise.
//
// The loop never exits early on a match: the number of iterations depends on
// len(data) alone. The returned index is the match if found is true, or the
// insertion point otherwise.
func searchFunc[T any](data []T, cmp func(i int, v T) int) (idx int, found bool) {
	size := len(data)
	if size == 0 {
		return 0, false
	}
	base := 0

	for size > 1 {
		half := size / 2
		mid := base + half

		if cmp(mid, data[mid]) <= 0 {
			base = mid
		}

		// mid stays in range even when it is known to be too large; keeping the
		// iteration count fixed matters more than the one extra element.
		size -= half
	}

	c := cmp(base, data[base])
	if c == 0 {
		return base, true
	}
	if c < 0 {
		base++
	}
	return base, false
}

// FindClosestSample resolves the sample shown for query time t (ns).
//
// The search stops at the first sample whose timestamp exceeds t when the
// sample before it lies below t, so a cursor between two samples always
// resolves to the later one, whichever is nearer in time. Past the last
// sample the last sample is returned. It reports false only for an empty
// slice.
func FindClosestSample(samples []Sample, t int64) (Sample, bool) {
	if len(samples) == 0 {
		return Sample{}, false
	}

	idx, _ := searchFunc(samples, func(i int, s Sample) int {
		if i > 0 && s.Time > t && samples[i-1].Time < t {
			return 0
		}
		if s.Time < t {
			return -1
		}
		return 1
	})

	if idx >= len(samples) {
		idx = len(samples) - 1
	}
	return samples[idx], true
}
