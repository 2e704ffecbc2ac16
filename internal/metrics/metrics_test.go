package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestCounter(t *testing.T) {
	c := &Counter{}

	if got := c.Value(); got != 0 {
		t.Errorf("Counter.Value() = %v, want 0", got)
	}

	c.Inc()
	c.Add(5.5)
	if got := c.Value(); got != 6.5 {
		t.Errorf("Counter.Value() = %v, want 6.5", got)
	}
}

func TestGauge(t *testing.T) {
	g := &Gauge{}

	g.Set(10.5)
	g.Add(-5.5)
	if got := g.Value(); got != 5.0 {
		t.Errorf("Gauge.Value() = %v, want 5.0", got)
	}
}

func TestHistogram(t *testing.T) {
	h := &Histogram{}

	h.Observe(1.5)
	h.Observe(2.5)
	h.Observe(3.0)

	if got := h.Sum(); got != 7.0 {
		t.Errorf("Histogram.Sum() = %v, want 7.0", got)
	}
	if got := h.Count(); got != 3 {
		t.Errorf("Histogram.Count() = %v, want 3", got)
	}
}

func TestRegistryReuse(t *testing.T) {
	reg := NewRegistry()

	c1 := reg.Counter("probe_runs", map[string]string{"probe": "firewall", "status": "ok"})
	c1.Add(2)
	c2 := reg.Counter("probe_runs", map[string]string{"status": "ok", "probe": "firewall"})
	if c1 != c2 {
		t.Error("Registry should return same counter regardless of label order")
	}

	other := reg.Counter("probe_runs", map[string]string{"probe": "users", "status": "ok"})
	if other == c1 {
		t.Error("different labels must give a different counter")
	}
}

func TestExportPrometheus(t *testing.T) {
	reg := NewRegistry()

	reg.Counter("test_counter", map[string]string{"probe": "firewall", "status": "ok"}).Add(42)
	reg.Gauge("test_gauge", nil).Set(123.45)
	h := reg.Histogram("test_duration", map[string]string{"probe": "users"})
	h.Observe(1.0)
	h.Observe(2.0)

	output := reg.ExportPrometheus()

	tests := []struct {
		name    string
		pattern string
	}{
		{"counter type", "# TYPE test_counter counter\n"},
		{"counter sample", `test_counter{probe="firewall",status="ok"} 42` + "\n"},
		{"gauge sample", "test_gauge 123.45\n"},
		{"histogram sum", `test_duration_sum{probe="users"} 3` + "\n"},
		{"histogram count", `test_duration_count{probe="users"} 2` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(output, tt.pattern) {
				t.Errorf("ExportPrometheus() output missing %q in:\n%s", tt.pattern, output)
			}
		})
	}

	if output != reg.ExportPrometheus() {
		t.Error("ExportPrometheus() output is not stable")
	}
}

func TestExportPrometheusSingleTypeLine(t *testing.T) {
	reg := NewRegistry()
	reg.Counter("runs", map[string]string{"probe": "a"}).Inc()
	reg.Counter("runs", map[string]string{"probe": "b"}).Inc()

	if n := strings.Count(reg.ExportPrometheus(), "# TYPE runs counter"); n != 1 {
		t.Errorf("TYPE line written %d times, want 1", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	reg := NewRegistry()
	reg.Gauge("cyberaudit_report_keys", nil).Set(2)

	path := filepath.Join(t.TempDir(), "cyberaudit.prom")
	if err := reg.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read metrics file: %v", err)
	}
	if !strings.Contains(string(data), "cyberaudit_report_keys 2") {
		t.Errorf("metrics file = %q", data)
	}
}

func TestWriteTextfileMissingDir(t *testing.T) {
	reg := NewRegistry()
	if err := reg.WriteTextfile(filepath.Join(t.TempDir(), "missing", "x.prom")); err == nil {
		t.Error("WriteTextfile() into missing dir should fail")
	}
}

func TestGetRegistry(t *testing.T) {
	if GetRegistry() != GetRegistry() {
		t.Error("GetRegistry() should return same instance (singleton)")
	}
}

func TestConcurrentAccess(t *testing.T) {
	reg := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Counter("concurrent_test", nil).Inc()
		}()
	}
	wg.Wait()

	if got := reg.Counter("concurrent_test", nil).Value(); got != 100 {
		t.Errorf("Counter value = %v, want 100 (concurrent safety issue)", got)
	}
}
