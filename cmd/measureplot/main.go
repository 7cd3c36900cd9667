package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/plot/vg"

	"ktkr.us/pkg/measureplot"
	"ktkr.us/pkg/measureplot/internal/source"
)

func main() {
	os.Exit(mainWithExitCode())
}

type flags struct {
	config   string
	output   string
	format   string
	mode     string
	width    float64
	height   float64
	dpr      float64
	begin    string
	end      string
	cursor   float64
	location string
	process  string
	debug    bool
	verbose  bool
	logJSON  bool
	metrics  string
}

func mainWithExitCode() int {
	var f flags

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "measureplot - render process measures to an image\n\n")
		fmt.Fprintf(os.Stderr, "Usage:\n")
		fmt.Fprintf(os.Stderr, "  measureplot [flags] <rows.parquet|rows.json|rows.jsonl>...\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}

	flag.StringVar(&f.config, "config", "", "YAML config file")
	flag.StringVar(&f.output, "o", "measures.png", "output file")
	flag.StringVar(&f.format, "format", "", "output format (png, svg, jpg, tiff, pdf, eps)")
	flag.StringVar(&f.mode, "mode", "", `"canvas" or "plot"`)
	flag.Float64Var(&f.width, "width", 0, "frame width")
	flag.Float64Var(&f.height, "height", 0, "frame height")
	flag.Float64Var(&f.dpr, "dpr", 0, "device pixel ratio")
	flag.StringVar(&f.begin, "begin", "", "window begin, RFC 3339")
	flag.StringVar(&f.end, "end", "", "window end, RFC 3339")
	flag.Float64Var(&f.cursor, "cursor", -1, "crosshair position as a fraction of the width")
	flag.StringVar(&f.location, "location", "", "time zone of axis labels")
	flag.StringVar(&f.process, "process", "", "only keep rows of this process id")
	flag.BoolVar(&f.debug, "debug", false, "draw the diagnostic overlay")
	flag.BoolVar(&f.verbose, "v", false, "debug logging")
	flag.BoolVar(&f.logJSON, "log-json", false, "log as JSON")
	flag.StringVar(&f.metrics, "metrics", "", "write Prometheus metrics to this textfile")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	logger := newLogger(os.Stderr, f.verbose, f.logJSON)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, f, flag.Args()); err != nil {
		logger.Error("measureplot failed", slog.Any("error", err))
		return 1
	}
	return 0
}

func newLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func run(ctx context.Context, logger *slog.Logger, f flags, inputs []string) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	var process uuid.UUID
	if f.process != "" {
		if process, err = uuid.Parse(f.process); err != nil {
			return fmt.Errorf("invalid process id: %w", err)
		}
	}

	var rows []measureplot.Row
	for _, in := range inputs {
		r, err := source.Load(ctx, in)
		if err != nil {
			return err
		}
		rows = append(rows, source.FilterProcess(r, process)...)
	}
	logger.Info("loaded rows", slog.Int("rows", len(rows)), slog.Int("files", len(inputs)))

	metrics := measureplot.NewMetrics()
	agg := measureplot.Aggregator{Logger: logger, Metrics: metrics}
	data := agg.Fold(measureplot.MeasuresData{}, rows)

	begin, end, err := cfg.ResolveWindow(data)
	if err != nil {
		return err
	}
	logger.Info("window",
		slog.Time("begin", begin),
		slog.Time("end", end),
		slog.Int("targets", data.Len()))

	out, err := os.Create(f.output)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	defer out.Close()

	switch cfg.Mode {
	case "plot":
		err = writePlot(out, cfg, data, begin, end)
	default:
		err = writeCanvas(out, logger, metrics, cfg, data, begin, end)
	}
	if err != nil {
		return err
	}

	if f.metrics != "" {
		if err := metrics.WriteToTextfile(f.metrics); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return out.Close()
}

func loadConfig(f flags) (measureplot.Config, error) {
	cfg := measureplot.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = measureplot.LoadConfig(f.config); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "format":
			cfg.Format = f.format
		case "mode":
			cfg.Mode = f.mode
		case "width":
			cfg.Width = f.width
		case "height":
			cfg.Height = f.height
		case "dpr":
			cfg.DPR = f.dpr
		case "begin":
			cfg.Window.Begin = f.begin
		case "end":
			cfg.Window.End = f.end
		case "cursor":
			cfg.Cursor = f.cursor
		case "location":
			cfg.Location = f.location
		case "debug":
			cfg.Debug = f.debug
		}
	})

	return cfg, cfg.Validate()
}

func writeCanvas(w io.Writer, logger *slog.Logger, metrics *measureplot.Metrics, cfg measureplot.Config, data measureplot.MeasuresData, begin, end time.Time) error {
	c, err := measureplot.NewCanvas(cfg.Width, cfg.Height, cfg.DPR, cfg.Format)
	if err != nil {
		return err
	}

	opts, err := cfg.RendererOptions()
	if err != nil {
		return err
	}
	opts = append(opts, measureplot.WithLogger(logger), measureplot.WithMetrics(metrics))

	r, err := measureplot.New(measureplot.NewCanvasSurface(c, cfg.FontSize), opts...)
	if err != nil {
		return err
	}

	chart := measureplot.NewChart(r, data, measureplot.Viewport{
		Begin:  begin,
		End:    end,
		Width:  cfg.Width,
		Height: cfg.Height,
		DPR:    cfg.DPR,
		MouseX: cfg.Cursor * cfg.Width,
	})

	if tip, ok := chart.Tooltip(); ok {
		for _, e := range tip.Entries {
			logger.Info("cursor", slog.Time("time", tip.Time), slog.Any("series", e))
		}
	}

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Format, err)
	}
	return nil
}

func writePlot(w io.Writer, cfg measureplot.Config, data measureplot.MeasuresData, begin, end time.Time) error {
	loc, err := time.LoadLocation(cfg.Location)
	if err != nil {
		return err
	}
	palette, err := measureplot.ParsePalette(cfg.Palette)
	if err != nil {
		return err
	}

	p, err := measureplot.NewPlot(data, begin, end, measureplot.ExportOptions{
		Title:    "measures",
		Location: loc,
		Palette:  palette,
		Height:   vg.Length(cfg.Height),
	})
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(vg.Length(cfg.Width), vg.Length(cfg.Height), cfg.Format)
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", cfg.Format, err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", cfg.Format, err)
	}
	return nil
}
