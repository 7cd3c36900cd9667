package measureplot

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Surface is the minimal 2D drawing surface the renderer needs. Coordinates
// have their origin in the top left corner with y growing downwards, in the
// units of the current transform.
type Surface interface {
	// Save pushes the current transform, Restore pops it.
	Save()
	Restore()
	Scale(x, y float64)

	// Clear fills the rectangle (0, 0, width, height).
	Clear(c color.Color, width, height float64)
	Line(c color.Color, x0, y0, x1, y1 float64)
	Polyline(c color.Color, pts []Point)
	Circle(c color.Color, x, y, radius float64)
	// Text draws s with its left baseline at (x, y).
	Text(c color.Color, x, y float64, s string)
}

// Point is a position on a Surface.
type Point struct {
	X, Y float64
}

// CanvasSurface adapts a gonum vg canvas, whose origin is bottom left, to
// Surface.
type CanvasSurface struct {
	c      draw.Canvas
	height vg.Length

	yscale float64
	stack  []float64

	style text.Style
}

// SurfaceFont is the face used for labels.
var SurfaceFont = font.Font{Typeface: "Liberation", Variant: "Sans"}

// NewCanvasSurface wraps c. fontSize is in canvas units, before any Scale.
func NewCanvasSurface(c vg.CanvasSizer, fontSize float64) *CanvasSurface {
	_, h := c.Size()
	return &CanvasSurface{
		c:      draw.New(c),
		height: h,
		yscale: 1,
		style: text.Style{
			Color:   foregroundColor,
			Font:    font.From(SurfaceFont, vg.Length(fontSize)),
			XAlign:  text.XLeft,
			YAlign:  text.YBottom,
			Handler: plot.DefaultTextHandler,
		},
	}
}

func (s *CanvasSurface) Save() {
	s.stack = append(s.stack, s.yscale)
	s.c.Push()
}

func (s *CanvasSurface) Restore() {
	if len(s.stack) == 0 {
		return
	}
	s.yscale = s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	s.c.Pop()
}

func (s *CanvasSurface) Scale(x, y float64) {
	s.c.Scale(x, y)
	s.yscale *= y
}

func (s *CanvasSurface) pt(x, y float64) vg.Point {
	return vg.Point{
		X: vg.Length(x),
		Y: s.height/vg.Length(s.yscale) - vg.Length(y),
	}
}

func (s *CanvasSurface) Clear(c color.Color, width, height float64) {
	s.c.FillPolygon(c, []vg.Point{
		s.pt(0, 0),
		s.pt(width, 0),
		s.pt(width, height),
		s.pt(0, height),
	})
}

func (s *CanvasSurface) Line(c color.Color, x0, y0, x1, y1 float64) {
	s.c.StrokeLines(lineStyle(c), []vg.Point{s.pt(x0, y0), s.pt(x1, y1)})
}

func (s *CanvasSurface) Polyline(c color.Color, pts []Point) {
	if len(pts) == 0 {
		return
	}
	line := make([]vg.Point, len(pts))
	for i, p := range pts {
		line[i] = s.pt(p.X, p.Y)
	}
	s.c.StrokeLines(lineStyle(c), line)
}

func (s *CanvasSurface) Circle(c color.Color, x, y, radius float64) {
	s.c.DrawGlyphNoClip(draw.GlyphStyle{
		Color:  c,
		Radius: vg.Length(radius),
		Shape:  draw.CircleGlyph{},
	}, s.pt(x, y))
}

func (s *CanvasSurface) Text(c color.Color, x, y float64, str string) {
	sty := s.style
	sty.Color = c
	s.c.FillText(sty, s.pt(x, y), str)
}

func lineStyle(c color.Color) draw.LineStyle {
	return draw.LineStyle{Color: c, Width: 1}
}
