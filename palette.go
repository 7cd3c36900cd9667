package measureplot

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Palette is the cycle of series colours.
type Palette []color.Color

// DefaultPalette is the five-colour series palette.
var DefaultPalette = Palette{
	color.NRGBA{R: 0xff, G: 0x00, B: 0xc1, A: 0xff},
	color.NRGBA{R: 0x96, G: 0x00, B: 0xff, A: 0xff},
	color.NRGBA{R: 0x49, G: 0x00, B: 0xff, A: 0xff},
	color.NRGBA{R: 0x00, G: 0xb8, B: 0xff, A: 0xff},
	color.NRGBA{R: 0x00, G: 0xff, B: 0xf9, A: 0xff},
}

var (
	backgroundColor = color.NRGBA{R: 0x13, G: 0x17, B: 0x1f, A: 0xff}
	foregroundColor = color.White
)

// Color returns the colour of the series at index, wrapping around.
func (p Palette) Color(index int) color.Color {
	if len(p) == 0 {
		return foregroundColor
	}
	return p[index%len(p)]
}

// ParsePalette parses a list of "#rrggbb" or "#rrggbbaa" strings.
func ParsePalette(hex []string) (Palette, error) {
	p := make(Palette, 0, len(hex))
	for _, h := range hex {
		c, err := ParseHexColor(h)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	return p, nil
}

// ParseHexColor parses "#rrggbb" or "#rrggbbaa".
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	if len(h) == 6 {
		v = v<<8 | 0xff
	}
	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// hexColor formats c as "#rrggbb".
func hexColor(c color.Color) string {
	if c == nil {
		return ""
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}
