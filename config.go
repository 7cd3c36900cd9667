package measureplot

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes an output frame. It is usually read from a YAML file and
// then overridden by command line flags.
type Config struct {
	Width    float64  `yaml:"width"`
	Height   float64  `yaml:"height"`
	DPR      float64  `yaml:"dpr"`
	FontSize float64  `yaml:"font_size"`
	Debug    bool     `yaml:"debug"`
	Location string   `yaml:"location"`
	Palette  []string `yaml:"palette"`
	// Format is an output format known to gonum's vg/draw, e.g. "png" or "svg".
	Format string `yaml:"format"`
	// Mode is "canvas" for the interactive-style frame or "plot" for a static
	// gonum plot.
	Mode   string       `yaml:"mode"`
	Window WindowConfig `yaml:"window"`
	// Cursor is the crosshair position as a fraction of the width.
	Cursor float64 `yaml:"cursor"`
}

// WindowConfig bounds the visible time range. Empty values fall back to the
// extent of the data.
type WindowConfig struct {
	Begin string `yaml:"begin"`
	End   string `yaml:"end"`
}

// DefaultConfig returns the defaults used when no file is given.
func DefaultConfig() Config {
	return Config{
		Width:    1280,
		Height:   600,
		DPR:      1,
		FontSize: 14,
		Location: "Local",
		Format:   "png",
		Mode:     "canvas",
		Cursor:   0.5,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise only fail at render time.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid size %gx%g", c.Width, c.Height)
	}
	if c.DPR <= 0 {
		return fmt.Errorf("invalid dpr %g", c.DPR)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid font size %g", c.FontSize)
	}
	switch c.Mode {
	case "canvas", "plot":
	default:
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if _, err := time.LoadLocation(c.Location); err != nil {
		return fmt.Errorf("invalid location: %w", err)
	}
	if _, err := ParsePalette(c.Palette); err != nil {
		return err
	}
	return nil
}

// RendererOptions translates the config into Renderer options.
func (c Config) RendererOptions() ([]Option, error) {
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("invalid location: %w", err)
	}
	palette, err := ParsePalette(c.Palette)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithDebug(c.Debug),
		WithLocation(loc),
		WithPalette(palette),
	}, nil
}

// ResolveWindow returns the configured window, falling back to the earliest
// start and latest end across data for unset bounds.
func (c Config) ResolveWindow(data MeasuresData) (begin, end time.Time, err error) {
	first, last, ok := Extent(data)
	if ok {
		begin, end = time.Unix(0, first), time.Unix(0, last)
	}

	if c.Window.Begin != "" {
		if begin, err = time.Parse(time.RFC3339Nano, c.Window.Begin); err != nil {
			return begin, end, fmt.Errorf("window begin: %w", err)
		}
	}
	if c.Window.End != "" {
		if end, err = time.Parse(time.RFC3339Nano, c.Window.End); err != nil {
			return begin, end, fmt.Errorf("window end: %w", err)
		}
	}
	if !end.After(begin) {
		return begin, end, fmt.Errorf("empty window %s..%s", begin.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return begin, end, nil
}

// Extent returns the earliest Start and latest End over all series.
func Extent(data MeasuresData) (start, end int64, ok bool) {
	data.Each(func(_ int, _ string, set *MeasureSet) {
		if !ok {
			start, end, ok = set.Start, set.End, true
			return
		}
		start = min(start, set.Start)
		end = max(end, set.End)
	})
	return start, end, ok
}
