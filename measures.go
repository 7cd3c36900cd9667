package measureplot

import (
	"log/slog"
	"slices"
	"sort"
	"time"
)

// Sample is a single measurement: nanoseconds since the Unix epoch and the
// measured value.
type Sample struct {
	Time  int64
	Value float64
}

// MeasureSet holds the full history of one target along with running
// statistics over every sample folded into it.
type MeasureSet struct {
	// Measures is sorted by ascending Time. Duplicate timestamps are kept.
	Measures []Sample
	Unit     string
	Min, Max float64
	// Start and End are the earliest and latest timestamps seen.
	Start, End int64
}

func newMeasureSet(s Sample, unit string) *MeasureSet {
	return &MeasureSet{
		Measures: []Sample{s},
		Unit:     unit,
		Min:      s.Value,
		Max:      s.Value,
		Start:    s.Time,
		End:      s.Time,
	}
}

func (m *MeasureSet) add(s Sample) {
	m.Min = min(m.Min, s.Value)
	m.Max = max(m.Max, s.Value)
	m.Start = min(m.Start, s.Time)
	m.End = max(m.End, s.Time)

	n := len(m.Measures)
	if n == 0 || m.Measures[n-1].Time <= s.Time {
		m.Measures = append(m.Measures, s)
		return
	}
	i := sort.Search(n, func(i int) bool { return m.Measures[i].Time > s.Time })
	m.Measures = slices.Insert(m.Measures, i, s)
}

func (m *MeasureSet) clone() *MeasureSet {
	c := *m
	c.Measures = slices.Clone(m.Measures)
	return &c
}

// MeasuresData maps target names to their MeasureSet and remembers the order
// in which targets were first seen, which is the order series are drawn and
// listed in. The zero value is an empty snapshot.
type MeasuresData struct {
	targets []string
	sets    map[string]*MeasureSet
}

// Len returns the number of targets.
func (d MeasuresData) Len() int {
	return len(d.targets)
}

// Targets returns target names in first-seen order.
func (d MeasuresData) Targets() []string {
	return slices.Clone(d.targets)
}

// Get returns the set for target.
func (d MeasuresData) Get(target string) (*MeasureSet, bool) {
	s, ok := d.sets[target]
	return s, ok
}

// Each calls fn for every target in first-seen order.
func (d MeasuresData) Each(fn func(index int, target string, set *MeasureSet)) {
	for i, target := range d.targets {
		fn(i, target, d.sets[target])
	}
}

func (d MeasuresData) clone() MeasuresData {
	c := MeasuresData{
		targets: slices.Clone(d.targets),
		sets:    make(map[string]*MeasureSet, len(d.sets)),
	}
	for k, v := range d.sets {
		c.sets[k] = v.clone()
	}
	return c
}

// Row is one line of a measures query result.
type Row struct {
	ProcessID string  `json:"process_id,omitempty" parquet:"process_id,optional"`
	Target    string  `json:"target" parquet:"target"`
	Time      string  `json:"time" parquet:"time"` // RFC 3339
	Value     float64 `json:"value" parquet:"value"`
	Unit      string  `json:"unit" parquet:"unit"`
}

// Aggregator folds query rows into MeasuresData snapshots. The zero value is
// ready to use.
type Aggregator struct {
	Logger  *slog.Logger
	Metrics *Metrics
}

// Fold returns a new snapshot made of existing plus rows. existing is left
// untouched. Rows whose time cannot be parsed or does not fit in int64
// nanoseconds are logged and skipped.
func (a *Aggregator) Fold(existing MeasuresData, rows []Row) MeasuresData {
	logger := a.Logger
	if logger == nil {
		logger = defaultLogger()
	}

	data := existing.clone()

	for _, row := range rows {
		ts, err := time.Parse(time.RFC3339Nano, row.Time)
		if err != nil {
			logger.Warn("datetime parse error",
				slog.String("target", row.Target),
				slog.String("time", row.Time),
				slog.Any("error", err))
			a.Metrics.droppedRow("parse")
			continue
		}

		t, ok := Nanos(ts)
		if !ok {
			logger.Warn("conversion to nanoseconds overflow",
				slog.String("target", row.Target),
				slog.String("time", row.Time))
			a.Metrics.droppedRow("overflow")
			continue
		}

		s := Sample{Time: t, Value: row.Value}
		if set, ok := data.sets[row.Target]; ok {
			// the unit is assumed never to change for a given target
			set.add(s)
			continue
		}
		data.targets = append(data.targets, row.Target)
		data.sets[row.Target] = newMeasureSet(s, row.Unit)
	}

	a.Metrics.folded(len(rows))

	return data
}

// Fold folds rows into existing using a zero Aggregator.
func Fold(existing MeasuresData, rows []Row) MeasuresData {
	var a Aggregator
	return a.Fold(existing, rows)
}

// Visible reports whether samples[i] takes part in drawing the window
// (begin, end): its own timestamp, or that of either neighbour, lies
// strictly inside the window. The neighbour slack keeps lines running off
// the edges of the window instead of stopping at the last inner sample.
func Visible(samples []Sample, i int, begin, end int64) bool {
	in := func(j int) bool {
		return j >= 0 && j < len(samples) && samples[j].Time > begin && samples[j].Time < end
	}
	return in(i) || in(i-1) || in(i+1)
}

// MaxVisibleValue returns the largest value among the samples of set that are
// Visible in (begin, end), or set.Max if none are.
func MaxVisibleValue(set *MeasureSet, begin, end int64) float64 {
	found := false
	var m float64
	for i, s := range set.Measures {
		if !Visible(set.Measures, i, begin, end) {
			continue
		}
		if !found || s.Value > m {
			m = s.Value
			found = true
		}
	}
	if !found {
		return set.Max
	}
	return m
}
