package probes

import (
	"context"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/report"
)

const firewallUnavailable = "Firewall status unavailable"

// FirewallProbe stores the output of the first firewall tool that answers
type FirewallProbe struct{}

func (p *FirewallProbe) Name() string                             { return NameFirewall }
func (p *FirewallProbe) Keys() []string                           { return []string{report.KeyFirewall} }
func (p *FirewallProbe) Timeout(cfg *config.Config) time.Duration { return cfg.CommandTimeout() * 2 }

func (p *FirewallProbe) Run(ctx context.Context, env *Env) (Values, error) {
	candidates := env.patterns().FirewallCommands(string(env.Family))

	if res, ok := firstSuccess(ctx, env, candidates); ok {
		return Values{report.KeyFirewall: res.Output}, nil
	}
	return Values{report.KeyFirewall: firewallUnavailable}, nil
}
