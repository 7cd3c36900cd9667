package measureplot

import (
	"time"
)

// Viewport is the interactive state a host feeds into a render pass.
type Viewport struct {
	Begin, End    time.Time
	Width, Height float64
	DPR           float64
	MouseX        float64
	MouseY        float64
}

// Duration returns the visible duration.
func (v Viewport) Duration() time.Duration {
	return v.End.Sub(v.Begin)
}

// Pan moves the window by dx pixels of drag. Dragging right (dx > 0) moves
// the window back in time.
func (v *Viewport) Pan(dx float64) {
	if v.Width < epsilon {
		return
	}
	delta := time.Duration(float64(v.Duration()) * dx / v.Width)
	v.Begin = v.Begin.Add(-delta)
	v.End = v.End.Add(-delta)
}

// Zoom applies one wheel step at cursorX. A negative deltaY zooms in. The
// change is split around the cursor so that the time under it stays put:
// each step moves the edges by a thousandth of the duration per percent of
// width on either side of the cursor.
func (v *Viewport) Zoom(deltaY, cursorX float64) {
	if v.Width < epsilon {
		return
	}
	step := v.Duration() / 1000
	if deltaY < 0 {
		step = -step
	}
	pct := time.Duration(cursorX / v.Width * 100)
	v.Begin = v.Begin.Add(-step * pct)
	v.End = v.End.Add(step * (100 - pct))
}
