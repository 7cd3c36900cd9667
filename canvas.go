package measureplot

import (
	"fmt"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgeps"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"
)

// pixelDPI makes one vg.Length unit one image pixel.
const pixelDPI = 72

// NewCanvas allocates an output canvas for a width by height frame rendered
// at the given device pixel ratio. Raster formats get one pixel per unit
// times dpr; other formats are whatever gonum's vg/draw has registered.
func NewCanvas(width, height, dpr float64, format string) (vg.CanvasWriterTo, error) {
	w := vg.Length(width * dpr)
	h := vg.Length(height * dpr)
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: empty %gx%g canvas", ErrNoSurface, width, height)
	}

	raster := func() *vgimg.Canvas {
		return vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(pixelDPI))
	}

	switch format {
	case "png":
		return vgimg.PngCanvas{Canvas: raster()}, nil
	case "jpg", "jpeg":
		return vgimg.JpegCanvas{Canvas: raster()}, nil
	case "tif", "tiff":
		return vgimg.TiffCanvas{Canvas: raster()}, nil
	case "svg":
		return vgsvg.New(w, h), nil
	case "pdf":
		return vgpdf.New(w, h), nil
	case "eps":
		return vgeps.New(w, h), nil
	}

	c, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSurface, err)
	}
	return c, nil
}
