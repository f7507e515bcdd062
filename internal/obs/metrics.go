package obs

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Label is a key/value pair attached to measurements.
type Label struct {
	Key   string
	Value string
}

// Meter is a very small interface for emitting counters/histograms.
// Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter is a Meter that discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(name string, value float64, labels ...Label)   {}
func (NopMeter) Histogram(name string, value float64, labels ...Label) {}

// CountingMeter keeps counter totals in memory, keyed by name and labels.
// Histograms record their observation count and sum. Safe for concurrent use.
type CountingMeter struct {
	mu     sync.Mutex
	counts map[string]float64
}

func (m *CountingMeter) Counter(name string, value float64, labels ...Label) {
	m.add(seriesKey(name, labels), value)
}

func (m *CountingMeter) Histogram(name string, value float64, labels ...Label) {
	k := seriesKey(name, labels)
	m.add(k+"_count", 1)
	m.add(k+"_sum", value)
}

func (m *CountingMeter) add(k string, v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = make(map[string]float64)
	}
	m.counts[k] += v
}

// Get returns the current value of a series.
func (m *CountingMeter) Get(name string, labels ...Label) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[seriesKey(name, labels)]
}

// Snapshot returns all series as "name{k=v,...} value" lines, sorted.
func (m *CountingMeter) Snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.counts))
	for k, v := range m.counts {
		out = append(out, k+" "+strconv.FormatFloat(v, 'f', -1, 64))
	}
	sort.Strings(out)
	return out
}

func seriesKey(name string, labels []Label) string {
	if len(labels) == 0 {
		return name
	}
	ls := make([]string, 0, len(labels))
	for _, l := range labels {
		ls = append(ls, l.Key+"="+l.Value)
	}
	sort.Strings(ls)
	return name + "{" + strings.Join(ls, ",") + "}"
}
