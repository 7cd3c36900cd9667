package measureplot

import (
	"image/color"
	"log/slog"
	"time"
)

// Chart is the single owner of a Renderer, a data snapshot and a Viewport.
// Every state change renders a new frame immediately, so the surface always
// reflects the latest state once a call returns.
type Chart struct {
	renderer *Renderer
	data     MeasuresData
	vp       Viewport
}

// NewChart creates a Chart over data and renders its first frame.
func NewChart(r *Renderer, data MeasuresData, vp Viewport) *Chart {
	c := &Chart{renderer: r, data: data, vp: vp}
	c.Render()
	return c
}

// Render draws the current state.
func (c *Chart) Render() {
	c.renderer.Render(c.data, c.vp.Begin, c.vp.End, c.vp.Width, c.vp.Height, c.vp.MouseX, c.vp.DPR)
}

// Data returns the current snapshot.
func (c *Chart) Data() MeasuresData { return c.data }

// Viewport returns the current viewport.
func (c *Chart) Viewport() Viewport { return c.vp }

// SetData replaces the snapshot.
func (c *Chart) SetData(d MeasuresData) {
	c.data = d
	c.Render()
}

// SetViewport replaces the viewport.
func (c *Chart) SetViewport(vp Viewport) {
	c.vp = vp
	c.Render()
}

// SetWindow changes the visible time range.
func (c *Chart) SetWindow(begin, end time.Time) {
	c.vp.Begin, c.vp.End = begin, end
	c.Render()
}

// MoveCursor updates the crosshair position.
func (c *Chart) MoveCursor(x, y float64) {
	c.vp.MouseX, c.vp.MouseY = x, y
	c.Render()
}

// Resize updates the drawing area.
func (c *Chart) Resize(width, height, dpr float64) {
	c.vp.Width, c.vp.Height, c.vp.DPR = width, height, dpr
	c.Render()
}

// Pan drags the window by dx pixels.
func (c *Chart) Pan(dx float64) {
	c.vp.Pan(dx)
	c.Render()
}

// Zoom applies one wheel step at cursorX.
func (c *Chart) Zoom(deltaY, cursorX float64) {
	c.vp.Zoom(deltaY, cursorX)
	c.Render()
}

// Tooltip describes the values under the cursor.
func (c *Chart) Tooltip() (TooltipInfo, bool) {
	return Tooltip(c.data, c.vp, c.renderer.Palette())
}

// TooltipEntry is the value of one series under the cursor.
type TooltipEntry struct {
	Target string
	Unit   string
	// Value is 0 when Found is false.
	Value float64
	Found bool
	Color color.Color
}

// LogValue implements slog.LogValuer.
func (e TooltipEntry) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("target", e.Target),
		slog.String("color", hexColor(e.Color)),
	}
	if e.Found {
		attrs = append(attrs, slog.Float64("value", e.Value), slog.String("unit", e.Unit))
	}
	return slog.GroupValue(attrs...)
}

// TooltipInfo holds the cursor time and one entry per series, in draw order.
type TooltipInfo struct {
	Time    time.Time
	Entries []TooltipEntry
}

// Tooltip resolves the cursor of vp against data using the same mapping as
// the renderer. It reports false when the window cannot be expressed in
// nanoseconds.
func Tooltip(data MeasuresData, vp Viewport, palette Palette) (TooltipInfo, bool) {
	beginNs, ok := Nanos(vp.Begin)
	if !ok {
		return TooltipInfo{}, false
	}
	endNs, ok := Nanos(vp.End)
	if !ok {
		return TooltipInfo{}, false
	}
	t := XToTime(vp.MouseX, beginNs, endNs, vp.Width)

	info := TooltipInfo{
		Time:    time.Unix(0, t),
		Entries: make([]TooltipEntry, 0, data.Len()),
	}
	data.Each(func(index int, target string, set *MeasureSet) {
		e := TooltipEntry{
			Target: target,
			Unit:   set.Unit,
			Color:  palette.Color(index),
		}
		if m, ok := FindClosestSample(set.Measures, t); ok {
			e.Value, e.Found = m.Value, true
		}
		info.Entries = append(info.Entries, e)
	})
	return info, true
}

// TooltipPosition places a tooltip box of the given size next to the
// cursor, keeping it inside the window horizontally and flipping it above
// the cursor in the lower 30% of the canvas.
func TooltipPosition(vp Viewport, windowWidth, boxWidth, boxHeight float64) (x, y float64) {
	x = min(windowWidth-boxWidth-64, vp.MouseX+8)
	if vp.MouseY > vp.Height*0.7 {
		y = vp.MouseY - boxHeight - 8
	} else {
		y = vp.MouseY + 8
	}
	return x, y
}
