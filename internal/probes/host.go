package probes

import (
	"context"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/report"
	"github.com/girste/cyberaudit/internal/system"
)

// OSInfoProbe records static host identification. It runs no command.
type OSInfoProbe struct{}

func (p *OSInfoProbe) Name() string                             { return NameOSInfo }
func (p *OSInfoProbe) Keys() []string                           { return []string{report.KeyOSInfo} }
func (p *OSInfoProbe) Timeout(cfg *config.Config) time.Duration { return system.TimeoutMedium }

func (p *OSInfoProbe) Run(ctx context.Context, env *Env) (Values, error) {
	hostInfo := env.HostInfo
	if hostInfo == nil {
		hostInfo = system.GetHostInfo
	}
	info := hostInfo(ctx, env.Family)

	m := report.NewMapping()
	m.Set("system", info.System)
	m.Set("release", info.Release)
	m.Set("version", info.Version)
	m.Set("architecture", info.Architecture)

	return Values{report.KeyOSInfo: m}, nil
}

// PortsProbe stores the raw listening-socket table of the host
type PortsProbe struct{}

func (p *PortsProbe) Name() string                             { return NameOpenPorts }
func (p *PortsProbe) Keys() []string                           { return []string{report.KeyOpenPorts} }
func (p *PortsProbe) Timeout(cfg *config.Config) time.Duration { return cfg.CommandTimeout() * 2 }

func (p *PortsProbe) Run(ctx context.Context, env *Env) (Values, error) {
	commands := env.patterns().PortCommandsFor(string(env.Family))

	res, _ := firstSuccess(ctx, env, commands)
	return Values{report.KeyOpenPorts: res.String()}, nil
}
