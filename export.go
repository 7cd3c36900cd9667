package measureplot

import (
	"fmt"
	"image/color"
	"slices"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// QuantizedLine draws a series line, collapsing it into a min/max envelope
// when it holds more samples than the canvas has points of width. Envelope
// buckets split the x extent evenly, so a series with gaps in its history
// keeps them.
type QuantizedLine struct {
	*plotter.Line
}

// aggregate splits the x extent of xyer into n equal buckets and returns the
// lowest and highest point of every non-empty bucket, positioned at the first
// x of the bucket. xyer must be sorted by x.
func aggregate(xyer plotter.XYer, n int) (mins, maxes plotter.XYs) {
	l := xyer.Len()
	if l == 0 || n <= 0 {
		return nil, nil
	}

	mins = make(plotter.XYs, 0, n)
	maxes = make(plotter.XYs, 0, n)

	x0, _ := xyer.XY(0)
	x1, _ := xyer.XY(l - 1)
	span := x1 - x0

	bucket := -1
	for i := 0; i < l; i++ {
		x, y := xyer.XY(i)

		b := 0
		if span > 0 {
			b = min(int((x-x0)/span*float64(n)), n-1)
		}

		if b != bucket {
			bucket = b
			mins = append(mins, plotter.XY{X: x, Y: y})
			maxes = append(maxes, plotter.XY{X: x, Y: y})
			continue
		}

		last := len(mins) - 1
		mins[last].Y = min(mins[last].Y, y)
		maxes[last].Y = max(maxes[last].Y, y)
	}

	return mins, maxes
}

// Plot implements plot.Plotter. Up to two samples per point of width draw as
// the plain line. Denser series draw the envelope: the bucket maxima and
// minima as lines, with the band between them filled in the line color at
// half its alpha.
func (ql *QuantizedLine) Plot(c draw.Canvas, plt *plot.Plot) {
	dx := int(c.Max.X - c.Min.X)

	if ql.Line.XYs.Len() <= dx*2 {
		ql.Line.Plot(c, plt)
		return
	}

	mins, maxes := aggregate(ql.Line.XYs, dx)

	lower := slices.Clone(mins)
	slices.Reverse(lower)
	verts := append(slices.Clone(maxes), lower...)

	poly, err := plotter.NewPolygon(verts)
	if err != nil {
		// the envelope is cosmetic; draw the raw line instead
		ql.Line.Plot(c, plt)
		return
	}

	r, g, b, a := ql.Line.Color.RGBA()

	poly.Color = color.NRGBA64{
		R: uint16(r),
		G: uint16(g),
		B: uint16(b),
		A: uint16(a / 2),
	}

	poly.LineStyle.Color = color.Transparent

	poly.Plot(c, plt)

	line := *ql.Line
	line.XYs = maxes
	line.Plot(c, plt)
	line.XYs = mins
	line.Plot(c, plt)
}

// SeriesXYs implements plotter.XYer over samples, with X in seconds since the
// Unix epoch.
type SeriesXYs []Sample

// Len returns the number of x, y pairs.
func (s SeriesXYs) Len() int {
	return len(s)
}

// XY returns an x, y pair.
func (s SeriesXYs) XY(i int) (x float64, y float64) {
	return float64(s[i].Time) / float64(time.Second), s[i].Value
}

// VisibleSamples returns the samples of set that are Visible in (begin, end).
func VisibleSamples(set *MeasureSet, begin, end int64) []Sample {
	var out []Sample
	for i, m := range set.Measures {
		if Visible(set.Measures, i, begin, end) {
			out = append(out, m)
		}
	}
	return out
}

// ExportOptions configures NewPlot.
type ExportOptions struct {
	Title    string
	Location *time.Location
	Palette  Palette
	// Height of the output, used to space value axis ticks.
	Height vg.Length
}

// NewPlot builds a static gonum plot of data over [begin, end] with one
// QuantizedLine per series, in draw order. Unlike Render, all series share
// one value axis, which carries the unit when every series agrees on it.
func NewPlot(data MeasuresData, begin, end time.Time, opts ExportOptions) (*plot.Plot, error) {
	beginNs, ok := Nanos(begin)
	if !ok {
		return nil, fmt.Errorf("begin %s: %w", begin, ErrTimeOverflow)
	}
	endNs, ok := Nanos(end)
	if !ok {
		return nil, fmt.Errorf("end %s: %w", end, ErrTimeOverflow)
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "time"
	p.X.Min = float64(beginNs) / float64(time.Second)
	p.X.Max = float64(endNs) / float64(time.Second)
	p.X.Tick.Marker = plot.TimeTicks{
		Format: "15:04:05",
		Time: func(t float64) time.Time {
			return time.Unix(0, int64(t*float64(time.Second))).In(loc)
		},
	}

	unit := ""
	units := make(map[string]struct{})

	var err error
	data.Each(func(index int, target string, set *MeasureSet) {
		if err != nil {
			return
		}
		units[set.Unit] = struct{}{}
		unit = set.Unit

		visible := VisibleSamples(set, beginNs, endNs)
		if len(visible) == 0 {
			return
		}

		var line *plotter.Line
		line, err = plotter.NewLine(SeriesXYs(visible))
		if err != nil {
			err = fmt.Errorf("series %q: %w", target, err)
			return
		}
		line.Color = palette.Color(index)

		p.Add(&QuantizedLine{Line: line})
		p.Legend.Add(fmt.Sprintf("%s (%s)", target, set.Unit), line)
	})
	if err != nil {
		return nil, err
	}

	if len(units) != 1 {
		unit = ""
	}
	p.Y.Tick.Marker = AutoTicker{Dim: opts.Height, Unit: unit}

	return p, nil
}
