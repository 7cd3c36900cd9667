package measureplot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects render and aggregation statistics on a private registry.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RendersTotal       prometheus.Counter
	RenderDuration     prometheus.Histogram
	RenderedPoints     prometheus.Gauge
	SkippedPassesTotal *prometheus.CounterVec
	FoldedRowsTotal    prometheus.Counter
	DroppedRowsTotal   *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RendersTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "measureplot_renders_total",
			Help: "Total number of completed render passes",
		}),
		RenderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "measureplot_render_duration_seconds",
			Help:    "Duration of a render pass in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		RenderedPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "measureplot_rendered_points",
			Help: "Number of points drawn by the last render pass",
		}),
		SkippedPassesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "measureplot_skipped_passes_total",
			Help: "Render sub-passes skipped because a timestamp overflowed",
		}, []string{"pass"}),
		FoldedRowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "measureplot_folded_rows_total",
			Help: "Total number of rows handed to the aggregator",
		}),
		DroppedRowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "measureplot_dropped_rows_total",
			Help: "Rows dropped by the aggregator",
		}, []string{"reason"}),
	}

	m.registry.MustRegister(
		m.RendersTotal,
		m.RenderDuration,
		m.RenderedPoints,
		m.SkippedPassesTotal,
		m.FoldedRowsTotal,
		m.DroppedRowsTotal,
	)

	return m
}

// Gatherer exposes the registry, e.g. for promhttp or testutil.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteToTextfile writes the current values in the text exposition format,
// suitable for the node exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func (m *Metrics) rendered(start time.Time, points int) {
	if m == nil {
		return
	}
	m.RendersTotal.Inc()
	m.RenderDuration.Observe(time.Since(start).Seconds())
	m.RenderedPoints.Set(float64(points))
}

func (m *Metrics) skipped(pass string) {
	if m == nil {
		return
	}
	m.SkippedPassesTotal.WithLabelValues(pass).Inc()
}

func (m *Metrics) folded(n int) {
	if m == nil {
		return
	}
	m.FoldedRowsTotal.Add(float64(n))
}

func (m *Metrics) droppedRow(reason string) {
	if m == nil {
		return
	}
	m.DroppedRowsTotal.WithLabelValues(reason).Inc()
}
