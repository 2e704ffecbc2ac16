package probes

import (
	"context"
	"time"

	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/log"
	"github.com/girste/cyberaudit/internal/report"
)

// DeepScanProbe runs the external scanners that are installed. Missing
// tools are reported, never installed.
type DeepScanProbe struct{}

func (p *DeepScanProbe) Name() string   { return NameDeepScan }
func (p *DeepScanProbe) Keys() []string { return []string{report.KeyDeepScan} }

// Timeout covers every tool running to its own limit in sequence
func (p *DeepScanProbe) Timeout(cfg *config.Config) time.Duration {
	n := len(config.DefaultPatterns().DeepScanTools)
	if cfg.Patterns != nil {
		n = len(cfg.Patterns.DeepScanTools)
	}
	return cfg.DeepScanTimeout()*time.Duration(n) + cfg.CommandTimeout()
}

func (p *DeepScanProbe) Run(ctx context.Context, env *Env) (Values, error) {
	results := report.NewMapping()
	for _, tool := range env.patterns().DeepScanTools {
		if !env.Exec.LookPath(tool.Binary) {
			results.Set(tool.Name, tool.Name+" not installed")
			continue
		}
		log.Infof("deep scan: running %s", tool.Name)
		res := env.Exec.Run(ctx, tool.Command, env.Config.DeepScanTimeout())
		results.Set(tool.Name, res.String())
	}
	return Values{report.KeyDeepScan: results}, nil
}
