// Package measureplot renders process performance counters as multi-series
// time charts. It maps time and value ranges to pixels, draws gridlines,
// series and a crosshair onto a Surface, and resolves the sample under the
// cursor for tooltips. Surfaces are backed by gonum/plot canvases, and
// NewPlot produces static gonum plots of the same data.
package measureplot
