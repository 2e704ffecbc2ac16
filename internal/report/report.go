// Package report holds the aggregated audit results: an insertion-ordered,
// write-once mapping from probe key to value.
package report

import (
	"encoding/json"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/girste/cyberaudit/internal/errors"
)

// Probe keys. Each key is owned by exactly one probe.
const (
	KeyOSInfo         = "os_info"
	KeyOpenPorts      = "open_ports"
	KeySensitiveFiles = "sensitive_files"
	KeyWorldWritable  = "world_writable"
	KeyUsers          = "users"
	KeyGroups         = "groups"
	KeyFirewall       = "firewall"
	KeyEnvSecrets     = "env_secrets"
	KeyDeepScan       = "deep_scan"
)

// Mapping is an ordered string mapping used for nested report values.
type Mapping = orderedmap.OrderedMap[string, string]

// NewMapping returns an empty ordered string mapping
func NewMapping() *Mapping {
	return orderedmap.New[string, string]()
}

// Report is safe for concurrent use. Values are a string, a []string or a
// nested mapping (*Mapping or map[string]string).
type Report struct {
	mu      sync.RWMutex
	entries *orderedmap.OrderedMap[string, any]
}

// New creates an empty report
func New() *Report {
	return &Report{entries: orderedmap.New[string, any]()}
}

// Set stores value under key. A key can only be written once; a second
// write returns ErrDuplicateKey and keeps the first value.
func (r *Report) Set(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries.Get(key); exists {
		return errors.Wrap(errors.ErrDuplicateKey, "key %q", key)
	}
	r.entries.Set(key, value)
	return nil
}

// Get returns the value stored under key
func (r *Report) Get(key string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Get(key)
}

// Has reports whether key was written
func (r *Report) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys returns the written keys in insertion order
func (r *Report) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, r.entries.Len())
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of keys
func (r *Report) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.Len()
}

// MarshalJSON encodes the report as a JSON object in insertion order.
func (r *Report) MarshalJSON() ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries.MarshalJSON()
}

// MarshalIndent encodes the report with 2-space indentation
func (r *Report) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
