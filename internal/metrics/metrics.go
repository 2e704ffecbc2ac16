// Package metrics collects audit counters and durations and exports them in
// the Prometheus text format, suitable for the node_exporter textfile collector.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Counter represents a monotonically increasing counter
type Counter struct {
	mu    sync.RWMutex
	value float64
}

// Inc increments the counter by 1
func (c *Counter) Inc() {
	c.Add(1)
}

// Add adds the given value to the counter
func (c *Counter) Add(delta float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value += delta
}

// Value returns the current counter value
func (c *Counter) Value() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Gauge represents a value that can go up and down
type Gauge struct {
	mu    sync.RWMutex
	value float64
}

// Set sets the gauge to the given value
func (g *Gauge) Set(value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value = value
}

// Add adds the given value to the gauge
func (g *Gauge) Add(delta float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.value += delta
}

// Value returns the current gauge value
func (g *Gauge) Value() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.value
}

// Histogram tracks the sum and count of observations
type Histogram struct {
	mu    sync.RWMutex
	sum   float64
	count uint64
}

// Observe adds a single observation to the histogram
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sum += value
	h.count++
}

// Sum returns the sum of all observations
func (h *Histogram) Sum() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sum
}

// Count returns the count of observations
func (h *Histogram) Count() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

type series struct {
	name   string
	labels string
}

// Registry holds all metrics
type Registry struct {
	mu         sync.RWMutex
	counters   map[series]*Counter
	gauges     map[series]*Gauge
	histograms map[series]*Histogram
}

// NewRegistry creates a new metrics registry
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[series]*Counter),
		gauges:     make(map[series]*Gauge),
		histograms: make(map[series]*Histogram),
	}
}

// Counter gets or creates a counter
func (r *Registry) Counter(name string, labels map[string]string) *Counter {
	key := series{name: name, labels: formatLabels(labels)}
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[key]; ok {
		return c
	}
	c := &Counter{}
	r.counters[key] = c
	return c
}

// Gauge gets or creates a gauge
func (r *Registry) Gauge(name string, labels map[string]string) *Gauge {
	key := series{name: name, labels: formatLabels(labels)}
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gauges[key]; ok {
		return g
	}
	g := &Gauge{}
	r.gauges[key] = g
	return g
}

// Histogram gets or creates a histogram
func (r *Registry) Histogram(name string, labels map[string]string) *Histogram {
	key := series{name: name, labels: formatLabels(labels)}
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.histograms[key]; ok {
		return h
	}
	h := &Histogram{}
	r.histograms[key] = h
	return h
}

// ExportPrometheus exports metrics in Prometheus text format. Series are
// sorted so the output is stable between runs.
func (r *Registry) ExportPrometheus() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder

	typed := map[string]bool{}
	writeType := func(name, kind string) {
		if !typed[name] {
			fmt.Fprintf(&b, "# TYPE %s %s\n", name, kind)
			typed[name] = true
		}
	}

	for _, key := range sortedKeys(r.counters) {
		writeType(key.name, "counter")
		fmt.Fprintf(&b, "%s%s %g\n", key.name, key.labels, r.counters[key].Value())
	}
	for _, key := range sortedKeys(r.gauges) {
		writeType(key.name, "gauge")
		fmt.Fprintf(&b, "%s%s %g\n", key.name, key.labels, r.gauges[key].Value())
	}
	for _, key := range sortedKeys(r.histograms) {
		h := r.histograms[key]
		writeType(key.name, "summary")
		fmt.Fprintf(&b, "%s_sum%s %g\n", key.name, key.labels, h.Sum())
		fmt.Fprintf(&b, "%s_count%s %d\n", key.name, key.labels, h.Count())
	}

	return b.String()
}

// WriteTextfile writes the Prometheus export to path atomically, so a
// textfile collector never reads a partial file.
func (r *Registry) WriteTextfile(path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".cyberaudit-metrics-*")
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(r.ExportPrometheus()); err != nil {
		tmp.Close()
		return fmt.Errorf("write metrics file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metrics file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod metrics file: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}

// formatLabels renders labels as {k1="v1",k2="v2"} with keys sorted
func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%q", k, labels[k]))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func sortedKeys[T any](m map[series]T) []series {
	keys := make([]series, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].name != keys[j].name {
			return keys[i].name < keys[j].name
		}
		return keys[i].labels < keys[j].labels
	})
	return keys
}

// Global registry
var defaultRegistry = NewRegistry()

// GetRegistry returns the default global registry
func GetRegistry() *Registry {
	return defaultRegistry
}
