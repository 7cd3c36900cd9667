package measureplot

import (
	"bytes"
	"fmt"
	"image/color"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type op struct {
	kind string
	c    color.Color
	args []float64
	pts  []Point
	text string
}

// recorder is a Surface that remembers every call.
type recorder struct {
	ops []op
}

func (r *recorder) Save()    { r.ops = append(r.ops, op{kind: "save"}) }
func (r *recorder) Restore() { r.ops = append(r.ops, op{kind: "restore"}) }

func (r *recorder) Scale(x, y float64) {
	r.ops = append(r.ops, op{kind: "scale", args: []float64{x, y}})
}

func (r *recorder) Clear(c color.Color, w, h float64) {
	r.ops = append(r.ops, op{kind: "clear", c: c, args: []float64{w, h}})
}

func (r *recorder) Line(c color.Color, x0, y0, x1, y1 float64) {
	r.ops = append(r.ops, op{kind: "line", c: c, args: []float64{x0, y0, x1, y1}})
}

func (r *recorder) Polyline(c color.Color, pts []Point) {
	r.ops = append(r.ops, op{kind: "polyline", c: c, pts: append([]Point(nil), pts...)})
}

func (r *recorder) Circle(c color.Color, x, y, radius float64) {
	r.ops = append(r.ops, op{kind: "circle", c: c, args: []float64{x, y, radius}})
}

func (r *recorder) Text(c color.Color, x, y float64, s string) {
	r.ops = append(r.ops, op{kind: "text", c: c, args: []float64{x, y}, text: s})
}

func (r *recorder) filter(kind string) []op {
	var out []op
	for _, o := range r.ops {
		if o.kind == kind {
			out = append(out, o)
		}
	}
	return out
}

func (r *recorder) texts() []string {
	var out []string
	for _, o := range r.filter("text") {
		out = append(out, o.text)
	}
	return out
}

// requireOps compares ops allowing for floating point error in coordinates.
func requireOps(t *testing.T, want, got []op) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		w, g := want[i], got[i]
		require.Equal(t, w.kind, g.kind, "op %d", i)
		require.Equal(t, w.c, g.c, "op %d", i)
		require.Equal(t, w.text, g.text, "op %d", i)
		require.Len(t, g.args, len(w.args), "op %d", i)
		if len(w.args) > 0 {
			require.InDeltaSlice(t, w.args, g.args, 1e-9, "op %d", i)
		}
		requirePoints(t, w.pts, g.pts)
	}
}

func requirePoints(t *testing.T, want, got []Point) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		require.InDelta(t, want[i].X, got[i].X, 1e-9, "point %d", i)
		require.InDelta(t, want[i].Y, got[i].Y, 1e-9, "point %d", i)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *recorder) {
	t.Helper()
	rec := &recorder{}
	opts = append([]Option{WithLogger(quietLogger()), WithLocation(time.UTC)}, opts...)
	r, err := New(rec, opts...)
	require.NoError(t, err)
	return r, rec
}

func cpuData() MeasuresData {
	return Fold(MeasuresData{}, []Row{
		{Target: "cpu", Time: rfc(0), Value: 1, Unit: "%"},
		{Target: "cpu", Time: rfc(100), Value: 2, Unit: "%"},
		{Target: "cpu", Time: rfc(200), Value: 3, Unit: "%"},
	})
}

func TestNew_NoSurface(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNoSurface)
}

func TestRender_ZeroSize(t *testing.T) {
	r, rec := newTestRenderer(t)

	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 0, 100, 0, 1)
	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 1e-12, 0, 1)
	require.Empty(t, rec.ops)
}

func TestRender_Frame(t *testing.T) {
	r, rec := newTestRenderer(t)

	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 2)

	require.Equal(t, op{kind: "save"}, rec.ops[0])
	require.Equal(t, op{kind: "scale", args: []float64{2, 2}}, rec.ops[1])
	require.Equal(t, op{kind: "clear", c: backgroundColor, args: []float64{300, 100}}, rec.ops[2])
	require.Equal(t, op{kind: "restore"}, rec.ops[len(rec.ops)-1])

	lines := rec.filter("polyline")
	require.Len(t, lines, 1)
	require.Equal(t, DefaultPalette[0], lines[0].c)
	requirePoints(t, []Point{{0, 60}, {100, 30}, {200, 0}}, lines[0].pts)

	// no overlay unless asked for
	if !debugBuild {
		require.Empty(t, rec.filter("text")[1:])
	}
}

func TestRender_Crosshair(t *testing.T) {
	r, rec := newTestRenderer(t)

	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)

	dots := rec.filter("circle")
	require.Len(t, dots, 1)
	requireOps(t, []op{{kind: "circle", c: DefaultPalette[0], args: []float64{200, 0, 2}}}, dots)
}

func TestRender_ColorsCycle(t *testing.T) {
	var rows []Row
	for i := 0; i < 7; i++ {
		for _, ts := range []int64{10, 20, 30} {
			rows = append(rows, Row{Target: fmt.Sprintf("s%d", i), Time: rfc(ts), Value: float64(i + 1)})
		}
	}
	data := Fold(MeasuresData{}, rows)

	r, rec := newTestRenderer(t)
	r.Render(data, time.Unix(0, 0), time.Unix(0, 40), 400, 100, 0, 1)

	lines := rec.filter("polyline")
	require.Len(t, lines, 7)
	for i, l := range lines {
		require.Equal(t, DefaultPalette[i%5], l.c, "series %d", i)
	}
	require.Equal(t, lines[0].c, lines[5].c)
	require.Equal(t, lines[1].c, lines[6].c)
}

func TestRender_CustomPalette(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	r, rec := newTestRenderer(t, WithPalette(Palette{red}))
	require.Equal(t, Palette{red}, r.Palette())

	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)
	require.Equal(t, red, rec.filter("polyline")[0].c)
	require.Equal(t, red, rec.filter("circle")[0].c)
}

func TestRender_OnlyVisibleSamples(t *testing.T) {
	data := Fold(MeasuresData{}, []Row{
		{Target: "cpu", Time: rfc(0), Value: 9},
		{Target: "cpu", Time: rfc(50), Value: 2},
		{Target: "cpu", Time: rfc(150), Value: 4},
		{Target: "cpu", Time: rfc(300), Value: 4},
		{Target: "cpu", Time: rfc(400), Value: 8},
	})

	r, rec := newTestRenderer(t)
	r.Render(data, time.Unix(0, 60), time.Unix(0, 160), 100, 100, 0, 1)

	lines := rec.filter("polyline")
	require.Len(t, lines, 1)
	// 50, 150 and 300 are drawn, scaled to the visible max of 4
	requirePoints(t, []Point{{-10, 45}, {90, 0}, {240, 0}}, lines[0].pts)
}

func TestRender_CrosshairUsesSeriesMax(t *testing.T) {
	data := Fold(MeasuresData{}, []Row{
		{Target: "cpu", Time: rfc(0), Value: 9},
		{Target: "cpu", Time: rfc(50), Value: 2},
		{Target: "cpu", Time: rfc(150), Value: 4},
		{Target: "cpu", Time: rfc(300), Value: 4},
		{Target: "cpu", Time: rfc(400), Value: 8},
	})

	r, rec := newTestRenderer(t)
	r.Render(data, time.Unix(0, 60), time.Unix(0, 160), 100, 100, 90, 1)

	// x=90 resolves to the sample at 150; its height follows the max of 9
	// over all samples while the line is scaled to the visible 4
	requireOps(t, []op{{kind: "circle", c: DefaultPalette[0], args: []float64{90, 50, 2}}}, rec.filter("circle"))
	requirePoints(t, []Point{{-10, 45}, {90, 0}, {240, 0}}, rec.filter("polyline")[0].pts)
}

func TestRender_Idempotent(t *testing.T) {
	r, rec := newTestRenderer(t, WithDebug(true))

	data := cpuData()
	r.Render(data, time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)
	first := rec.ops
	rec.ops = nil
	r.Render(data, time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)

	require.Equal(t, first, rec.ops)
}

func TestRender_Scales(t *testing.T) {
	r, rec := newTestRenderer(t)

	r.Render(MeasuresData{}, time.Unix(0, 0), time.Unix(10, 0), 408, 100, 0, 1)

	requireOps(t, []op{
		{kind: "line", c: foregroundColor, args: []float64{0, 90, 408, 90}},
		{kind: "line", c: foregroundColor, args: []float64{204, 90, 204, 106}},
		{kind: "line", c: foregroundColor, args: []float64{408, 90, 408, 106}},
	}, rec.filter("line"))

	requireOps(t, []op{
		{kind: "text", c: foregroundColor, args: []float64{114, 122}, text: "1970-01-01T00:00:05.000Z"},
		{kind: "text", c: foregroundColor, args: []float64{318, 122}, text: "1970-01-01T00:00:10.000Z"},
	}, rec.filter("text")[:2])
}

func TestRender_ScalesTruncateToInterval(t *testing.T) {
	r, rec := newTestRenderer(t)

	begin := time.Date(2024, 5, 1, 10, 0, 3, 0, time.UTC)
	r.Render(MeasuresData{}, begin, begin.Add(10*time.Second), 204, 100, 0, 1)

	// a single tick, one interval after the truncated begin
	require.Equal(t, "2024-05-01T10:00:10.000Z", rec.texts()[0])
}

func TestRender_ScalesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	r, rec := newTestRenderer(t, WithLocation(loc))

	r.Render(MeasuresData{}, time.Unix(0, 0), time.Unix(10, 0), 204, 100, 0, 1)
	require.Equal(t, "1970-01-01T02:00:10.000+02:00", rec.texts()[0])
}

func TestRender_Overflow(t *testing.T) {
	metrics := NewMetrics()
	r, rec := newTestRenderer(t, WithMetrics(metrics))

	begin := time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Render(cpuData(), begin, time.Unix(0, 300), 300, 100, 150, 1)

	require.Len(t, rec.filter("clear"), 1)
	require.Empty(t, rec.filter("line"))
	require.Empty(t, rec.filter("polyline"))
	require.Empty(t, rec.filter("circle"))

	for _, pass := range []string{"scales", "measures", "dots"} {
		require.Equal(t, 1.0, testutil.ToFloat64(metrics.SkippedPassesTotal.WithLabelValues(pass)), pass)
	}
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.RendersTotal))
}

func TestRender_Metrics(t *testing.T) {
	metrics := NewMetrics()
	r, _ := newTestRenderer(t, WithMetrics(metrics))

	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)
	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)

	require.Equal(t, 2.0, testutil.ToFloat64(metrics.RendersTotal))
	require.Equal(t, 3.0, testutil.ToFloat64(metrics.RenderedPoints))
	require.Equal(t, 1, testutil.CollectAndCount(metrics.RenderDuration))
}

func TestRender_Stats(t *testing.T) {
	r, rec := newTestRenderer(t, WithDebug(true))

	r.Render(cpuData(), time.Unix(0, 0), time.Unix(0, 300), 300, 100, 150, 1)

	texts := rec.texts()
	for _, want := range []string{
		"rendering 3 points",
		"duration 300ns",
		"lod 0",
		"segment duration 100ms",
		"first=0 last=0",
		"cpu (%)",
	} {
		require.Contains(t, texts, want)
	}

	legend := rec.filter("text")[len(texts)-1:]
	requireOps(t, []op{{kind: "text", c: DefaultPalette[0], args: []float64{16, 96}, text: "cpu (%)"}}, legend)
}

func TestRender_StatsLargeCount(t *testing.T) {
	var rows []Row
	for i := 0; i < 1500; i++ {
		rows = append(rows, Row{Target: "io", Time: rfc(int64(i+1) * int64(time.Millisecond)), Value: 1, Unit: "B/s"})
	}

	r, rec := newTestRenderer(t, WithDebug(true))
	r.Render(Fold(MeasuresData{}, rows), time.Unix(0, 0), time.Unix(2, 0), 1000, 500, 0, 1)

	texts := rec.texts()
	require.Contains(t, texts, "rendering 1,500 points")
	require.Contains(t, texts, "duration 2s")
	require.Contains(t, texts, "lod 1")
	require.Contains(t, texts, "segment duration 1s")
	require.Contains(t, texts, "first=0 last=2")
	require.Contains(t, texts, "io (B/s)")
}
