package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/girste/cyberaudit/internal/audit"
	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/output"
	"github.com/girste/cyberaudit/internal/probes"
	"github.com/girste/cyberaudit/internal/util"
)

const banner = "🔍 Running CyberAuditX..."

// runAudit executes the selected probes and reports the result. Probe
// failures are part of the report and never fail the command.
func runAudit(ctx context.Context, d *deps, cfg *config.Config, v *viper.Viper, sel audit.Selection, verbose bool) error {
	logger := util.GetLogger()

	if f, ok := d.stderr.(*os.File); ok {
		output.ConfigureColor(v.GetBool(flagNoColor), f)
	} else {
		output.ConfigureColor(true, nil)
	}

	fmt.Fprintln(d.stderr, banner)

	if !cfg.RedactSecrets && (sel.Sensitive || sel.All) {
		logger.Warn("Secret redaction disabled: the report will contain raw environment secret values")
	}

	env := probes.NewEnv(cfg, d.exec)
	if d.environ != nil {
		env.Environ = d.environ
	}

	registry := probes.DefaultRegistry()
	orch := audit.NewOrchestrator(registry, d.metrics)

	res, err := orch.RunAudit(ctx, env, sel)
	if err != nil {
		return err
	}
	logger = logger.With(zap.String("run_id", res.RunID))

	summary := output.Summarize(res.RunID, res.Report, res.Duration)
	if err := output.NewFormatter(verbose).WriteSummary(d.stderr, summary); err != nil {
		logger.Warn("Failed to write summary", zap.Error(err))
	}

	if sel.Persist() {
		path, err := output.SaveReport(cfg.OutputDir, res.Report, d.now())
		if err != nil {
			logger.Error("Failed to save report", zap.Error(err))
			fmt.Fprintf(d.stderr, "[✘] Failed to save report: %v\n", err)
		} else {
			fmt.Fprintln(d.stdout, output.Saved(path))
		}
	}

	if verbose {
		if err := output.PrintJSON(d.stdout, res.Report); err != nil {
			logger.Error("Failed to print report", zap.Error(err))
		}
	}

	if cfg.MetricsFile != "" {
		if err := d.metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("Failed to write metrics", zap.String("path", cfg.MetricsFile), zap.Error(err))
		}
	}

	return nil
}
