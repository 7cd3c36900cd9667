package measureplot

import (
	"math"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/vg"
)

// AutoTicker is a plot.Ticker for value axes. It picks a power of ten minor
// tick spacing giving about one tick per fifth of an inch over Dim, and labels
// every 2nd, 5th or 10th tick so that labels land roughly an inch apart.
// Labels are SI-prefixed and suffixed with Unit.
type AutoTicker struct {
	Dim  vg.Length
	Unit string
}

const (
	// labelDigits is the number of decimals kept in tick labels.
	labelDigits = 3
	// defaultValueDim stands in for an unset AutoTicker.Dim.
	defaultValueDim vg.Length = 800

	valueTickPitch  = font.Inch / 5
	valueLabelPitch = font.Inch
)

// Ticks implements plot.Ticker. An empty or non-finite range yields a single
// labelled tick at min.
func (t AutoTicker) Ticks(min, max float64) []plot.Tick {
	dim := t.Dim
	if dim == 0 {
		dim = defaultValueDim
	}

	spacing, ok := minorValueSpacing(max-min, dim)
	if !(max > min) || !ok {
		return []plot.Tick{{Value: min, Label: t.label(min)}}
	}
	every := labelEvery((max-min)/spacing, dim)

	first := int(math.Floor(min / spacing))
	last := int(math.Ceil(max / spacing))

	ticks := make([]plot.Tick, 0, last-first+1)
	for i := first; i <= last; i++ {
		tick := plot.Tick{Value: float64(i) * spacing}
		if i%every == 0 {
			tick.Label = t.label(tick.Value)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// minorValueSpacing is the power of ten closest to span split into one step
// per valueTickPitch of dim.
func minorValueSpacing(span float64, dim vg.Length) (float64, bool) {
	mag := math.Round(math.Log10(span / float64(dim/valueTickPitch)))
	if math.IsInf(mag, 0) || math.IsNaN(mag) {
		return 0, false
	}
	return math.Pow10(int(mag)), true
}

// labelEvery returns how many minor steps separate two value labels: 2, 5 or
// 10, whichever keeps labels closest to one per valueLabelPitch.
func labelEvery(steps float64, dim vg.Length) int {
	perLabel := math.Round(steps / float64(dim/valueLabelPitch))
	switch {
	case perLabel > 5:
		return 10
	case perLabel > 2:
		return 5
	}
	return 2
}

func (t AutoTicker) label(v float64) string {
	return humanize.SIWithDigits(v, labelDigits, t.Unit)
}
