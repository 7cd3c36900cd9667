package measureplot

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	epsilon = 1e-9

	// scalePadding is the tick height and label offset below the axis.
	scalePadding = 16.0
	// tickPitch is the minimum horizontal distance between two time ticks.
	tickPitch = 204.0
	// labelOffset moves a tick label left so it sits roughly centred.
	labelOffset = 90.0

	dotRadius = 2.0

	statsX          = 16.0
	statsLineHeight = 16.0

	labelLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ErrNoSurface is returned by New when no drawing surface is available.
var ErrNoSurface = errors.New("measureplot: drawing surface unavailable")

// Renderer draws MeasuresData onto a Surface it owns. It keeps no state
// between calls to Render and is not safe for concurrent use.
type Renderer struct {
	surface  Surface
	logger   *slog.Logger
	debug    bool
	location *time.Location
	palette  Palette
	metrics  *Metrics
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithDebug forces the diagnostic overlay on. It is always on in builds
// tagged "debug".
func WithDebug(debug bool) Option {
	return func(r *Renderer) { r.debug = debug }
}

// WithLocation sets the time zone of axis labels. The default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Renderer) {
		if loc != nil {
			r.location = loc
		}
	}
}

// WithPalette replaces DefaultPalette.
func WithPalette(p Palette) Option {
	return func(r *Renderer) {
		if len(p) > 0 {
			r.palette = p
		}
	}
}

// WithMetrics records render statistics into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Renderer) { r.metrics = m }
}

// New creates a Renderer drawing onto s.
func New(s Surface, opts ...Option) (*Renderer, error) {
	if s == nil {
		return nil, ErrNoSurface
	}

	r := &Renderer{
		surface:  s,
		logger:   defaultLogger(),
		location: time.Local,
		palette:  DefaultPalette,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func defaultLogger() *slog.Logger {
	return slog.Default().With(slog.String("module", "measureplot"))
}

// Palette returns the series colours in use.
func (r *Renderer) Palette() Palette {
	return r.palette
}

// Render draws one complete frame of data for the window [begin, end] on a
// width by height area (in CSS-like units, scaled by dpr), with the crosshair
// at mouseX. A sub-pass that cannot express a timestamp in nanoseconds is
// logged and skipped; the remaining passes still run.
func (r *Renderer) Render(data MeasuresData, begin, end time.Time, width, height, mouseX, dpr float64) {
	r.logger.Debug("rendering")

	if width < epsilon || height < epsilon {
		return
	}

	start := time.Now()
	s := r.surface

	s.Save()
	defer s.Restore()

	s.Scale(dpr, dpr)
	s.Clear(backgroundColor, width, height)

	r.renderScales(width, height, begin, end)
	points := r.renderMeasures(data, width, height, begin, end)
	r.renderDots(data, width, height, begin, end, mouseX)
	if r.debug || debugBuild {
		r.renderStats(data, begin, end)
	}

	r.metrics.rendered(start, points)
}

// window converts begin and end to nanoseconds, logging on overflow.
func (r *Renderer) window(pass string, begin, end time.Time) (int64, int64, bool) {
	beginNs, ok := Nanos(begin)
	if !ok {
		r.logger.Error("nanoseconds conversion overflow",
			slog.String("pass", pass),
			slog.String("begin", begin.Format(time.RFC3339Nano)))
		r.metrics.skipped(pass)
		return 0, 0, false
	}
	endNs, ok := Nanos(end)
	if !ok {
		r.logger.Error("nanoseconds conversion overflow",
			slog.String("pass", pass),
			slog.String("end", end.Format(time.RFC3339Nano)))
		r.metrics.skipped(pass)
		return 0, 0, false
	}
	return beginNs, endNs, true
}

func (r *Renderer) renderScales(width, height float64, begin, end time.Time) {
	r.logger.Debug("rendering scales")

	beginNs, endNs, ok := r.window("scales", begin, end)
	if !ok {
		return
	}

	y := height / 100 * 90
	r.surface.Line(foregroundColor, 0, y, width, y)

	duration := end.Sub(begin)
	ticks := max(1, int(width/tickPitch))
	interval := duration / time.Duration(ticks)
	if interval <= 0 {
		r.logger.Error("tick interval is not positive",
			slog.Duration("duration", duration),
			slog.Int("ticks", ticks))
		r.metrics.skipped("scales")
		return
	}

	first := time.Unix(0, floorTo(beginNs, int64(interval))).Add(interval)
	for i := 0; i < ticks; i++ {
		tick := first.Add(time.Duration(i) * interval)
		t, ok := Nanos(tick)
		if !ok {
			r.logger.Error("nanoseconds conversion overflow",
				slog.String("pass", "scales"),
				slog.String("time", tick.Format(time.RFC3339Nano)))
			continue
		}
		x := TimeToX(t, beginNs, endNs, width)

		r.surface.Line(foregroundColor, x, y, x, y+scalePadding)
		r.surface.Text(foregroundColor, x-labelOffset, y+scalePadding*2, r.formatTime(tick))
	}
}

func (r *Renderer) formatTime(t time.Time) string {
	return t.In(r.location).Format(labelLayout)
}

// renderMeasures draws one polyline per series and returns the number of
// points drawn.
func (r *Renderer) renderMeasures(data MeasuresData, width, height float64, begin, end time.Time) int {
	r.logger.Debug("rendering measures")

	beginNs, endNs, ok := r.window("measures", begin, end)
	if !ok {
		return 0
	}

	points := 0
	var pts []Point
	data.Each(func(index int, target string, set *MeasureSet) {
		r.logger.Debug("rendering series", slog.String("target", target))

		maxValue := MaxVisibleValue(set, beginNs, endNs)

		pts = pts[:0]
		for i, m := range set.Measures {
			if !Visible(set.Measures, i, beginNs, endNs) {
				continue
			}
			p := Point{
				X: TimeToX(m.Time, beginNs, endNs, width),
				Y: ValueToY(m.Value, maxValue, height),
			}
			if !finite(p) {
				continue
			}
			pts = append(pts, p)
		}

		points += len(pts)
		r.surface.Polyline(r.palette.Color(index), pts)
	})
	return points
}

// renderDots marks, on every series, the sample the crosshair resolves to.
// Its height is scaled by the series maximum over all samples, not only the
// visible ones, so it can sit off the line when that line is rescaled.
func (r *Renderer) renderDots(data MeasuresData, width, height float64, begin, end time.Time, mouseX float64) {
	r.logger.Debug("rendering dots")

	beginNs, endNs, ok := r.window("dots", begin, end)
	if !ok {
		return
	}
	t := XToTime(mouseX, beginNs, endNs, width)

	data.Each(func(index int, _ string, set *MeasureSet) {
		m, ok := FindClosestSample(set.Measures, t)
		if !ok {
			return
		}
		p := Point{
			X: TimeToX(m.Time, beginNs, endNs, width),
			Y: ValueToY(m.Value, set.Max, height),
		}
		if !finite(p) {
			return
		}
		r.surface.Circle(r.palette.Color(index), p.X, p.Y, dotRadius)
	})
}

func (r *Renderer) renderStats(data MeasuresData, begin, end time.Time) {
	r.logger.Debug("rendering stats")

	beginNs, endNs, ok := r.window("stats", begin, end)
	if !ok {
		return
	}
	duration := end.Sub(begin)
	lod := ComputeLOD(duration)

	line := func(n int, s string) {
		r.surface.Text(foregroundColor, statsX, statsLineHeight*float64(n+1), s)
	}

	line(0, fmt.Sprintf("rendering %s points", humanize.Comma(int64(CountVisible(data, beginNs, endNs)))))

	if duration < 0 {
		r.logger.Error("negative duration", slog.Duration("duration", duration))
	} else {
		line(1, "duration "+formatDuration(duration))
	}

	line(2, fmt.Sprintf("lod %d", lod))
	line(3, "segment duration "+formatDuration(SegmentDuration(lod)))

	if segments, ok := SegmentIndexRange(begin, end, lod); ok {
		line(4, fmt.Sprintf("first=%d last=%d", segments.First, segments.Last))
	} else {
		line(4, "unknown segments")
	}

	data.Each(func(index int, target string, set *MeasureSet) {
		r.surface.Text(r.palette.Color(index), statsX, statsLineHeight*float64(6+index),
			fmt.Sprintf("%s (%s)", target, set.Unit))
	})
}

// CountVisible returns how many samples of data are Visible in (begin, end).
func CountVisible(data MeasuresData, begin, end int64) int {
	n := 0
	data.Each(func(_ int, _ string, set *MeasureSet) {
		for i := range set.Measures {
			if Visible(set.Measures, i, begin, end) {
				n++
			}
		}
	})
	return n
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}
