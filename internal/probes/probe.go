// Package probes implements the independent host checks of an audit. Each
// probe owns a fixed set of report keys and reports failures as values, never
// by aborting the run.
package probes

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/system"
)

// Probe names, in the order a full audit runs them.
const (
	NameOSInfo         = "os_info"
	NameOpenPorts      = "open_ports"
	NameUsersGroups    = "users_groups"
	NameSensitiveFiles = "sensitive_files"
	NameEnvSecrets     = "env_secrets"
	NameWorldWritable  = "world_writable"
	NameFirewall       = "firewall"
	NameDeepScan       = "deep_scan"
)

// Values maps report keys to the values a probe produced
type Values map[string]any

// Probe is the interface all probes implement
type Probe interface {
	Name() string
	// Keys lists the report keys the probe owns; Run writes exactly these.
	Keys() []string
	Timeout(cfg *config.Config) time.Duration
	Run(ctx context.Context, env *Env) (Values, error)
}

// Env carries everything a probe reads from the host. Tests replace the
// fields to fake the platform.
type Env struct {
	Exec     system.Executor
	Family   system.Family
	Config   *config.Config
	Environ  func() []string
	HostInfo func(ctx context.Context, family system.Family) system.HostInfo
}

// NewEnv builds an environment bound to the running host
func NewEnv(cfg *config.Config, exec system.Executor) *Env {
	return &Env{
		Exec:     exec,
		Family:   system.ParseFamily(cfg.Platform),
		Config:   cfg,
		Environ:  os.Environ,
		HostInfo: system.GetHostInfo,
	}
}

func (e *Env) patterns() *config.Patterns {
	if e.Config.Patterns == nil {
		e.Config.Patterns = config.DefaultPatterns()
	}
	return e.Config.Patterns
}

// firstSuccess runs commands in order and returns the first result whose
// text is non-empty and carries no "Error" marker.
func firstSuccess(ctx context.Context, env *Env, commands []string) (system.Result, bool) {
	var first system.Result
	for i, cmd := range commands {
		res := env.Exec.Run(ctx, cmd, env.Config.CommandTimeout())
		if i == 0 {
			first = res
		}
		text := res.String()
		if !strings.Contains(text, "Error") && strings.TrimSpace(text) != "" {
			return res, true
		}
	}
	return first, false
}

// splitLines splits command output into non-empty lines
func splitLines(s string) []string {
	lines := []string{}
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Registry keeps probes in registration order
type Registry struct {
	probes []Probe
	byName map[string]Probe
}

// NewRegistry creates a new probe registry
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Probe)}
}

// Register adds a probe, replacing any probe with the same name in place
func (r *Registry) Register(p Probe) {
	if _, exists := r.byName[p.Name()]; exists {
		for i, existing := range r.probes {
			if existing.Name() == p.Name() {
				r.probes[i] = p
			}
		}
	} else {
		r.probes = append(r.probes, p)
	}
	r.byName[p.Name()] = p
}

// Get retrieves a probe by name
func (r *Registry) Get(name string) (Probe, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// All returns all registered probes in registration order
func (r *Registry) All() []Probe {
	out := make([]Probe, len(r.probes))
	copy(out, r.probes)
	return out
}

// DefaultRegistry returns a registry with every built-in probe
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&OSInfoProbe{})
	r.Register(&PortsProbe{})
	r.Register(&UsersGroupsProbe{})
	r.Register(&SensitiveFilesProbe{})
	r.Register(&EnvSecretsProbe{})
	r.Register(&WorldWritableProbe{})
	r.Register(&FirewallProbe{})
	r.Register(&DeepScanProbe{})
	return r
}
