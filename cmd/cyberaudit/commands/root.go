// Package commands implements the cyberaudit command line.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/girste/cyberaudit/internal/audit"
	"github.com/girste/cyberaudit/internal/config"
	"github.com/girste/cyberaudit/internal/log"
	"github.com/girste/cyberaudit/internal/metrics"
	"github.com/girste/cyberaudit/internal/system"
	"github.com/girste/cyberaudit/internal/util"
)

// Flags bound through viper; CYBERAUDIT_<NAME> overrides the config file.
const (
	flagConfig        = "config"
	flagOutputDir     = "output-dir"
	flagParallel      = "parallel"
	flagRevealSecrets = "reveal-secrets"
	flagMetricsFile   = "metrics-file"
	flagNoColor       = "no-color"
	flagDebug         = "debug"
)

// deps are the host bindings a command runs against. Tests replace them.
type deps struct {
	stdout  io.Writer
	stderr  io.Writer
	exec    system.Executor
	environ func() []string
	now     func() time.Time
	metrics *metrics.Registry
}

func defaultDeps() *deps {
	reg := metrics.GetRegistry()
	return &deps{
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		exec:    system.NewShellRunner(reg),
		environ: os.Environ,
		now:     time.Now,
		metrics: reg,
	}
}

// Execute runs the command line and returns the process exit status
func Execute(version string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := defaultDeps()
	root := newRootCmd(version, d)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(version string, d *deps) *cobra.Command {
	v := viper.New()
	var sel audit.Selection
	var verbose bool

	cmd := &cobra.Command{
		Use:   "cyberaudit",
		Short: "Local host security audit",
		Long: `CyberAuditX audits the local host: OS metadata, listening ports, accounts,
sensitive file names, environment secrets, world-writable files, firewall
state and, optionally, external scanners. Probes that fail are recorded in
the report as "Error: ..." values; the audit itself always completes.`,
		Example: `  cyberaudit --quick --verbose
  cyberaudit --sensitive --json --output-dir /var/tmp
  cyberaudit --all --parallel 4`,
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runAudit(cmd.Context(), d, cfg, v, sel, verbose)
		},
	}

	bindSelection(cmd.Flags(), &sel)
	cmd.Flags().BoolVar(&verbose, "verbose", false, "print the full report as JSON")

	persistent := cmd.PersistentFlags()
	persistent.String(flagConfig, "", "config file (default: first of the standard search paths)")
	persistent.String(flagOutputDir, "", "directory the report file is written to (default \".\")")
	persistent.Int(flagParallel, 0, "number of probes run at once (default 1)")
	persistent.Bool(flagRevealSecrets, false, "store environment secret values unmasked")
	persistent.String(flagMetricsFile, "", "write Prometheus text metrics to this file after the run")
	persistent.Bool(flagNoColor, false, "disable colored output")
	persistent.Bool(flagDebug, false, "enable debug logging")

	v.SetEnvPrefix("CYBERAUDIT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindPFlags(persistent)

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if v.GetBool(flagDebug) {
			util.EnableDebug()
			log.SetLevel(zerolog.DebugLevel)
		}
	}

	cmd.SetOut(d.stdout)
	cmd.SetErr(d.stderr)
	cmd.AddCommand(newVersionCmd(version, d))
	cmd.AddCommand(newServeCmd(version, d, v))

	return cmd
}

// bindSelection registers the probe selection switches on flags
func bindSelection(flags *pflag.FlagSet, sel *audit.Selection) {
	flags.BoolVar(&sel.Quick, "quick", false, "OS info, open ports, users and groups")
	flags.BoolVar(&sel.Sensitive, "sensitive", false, "sensitive file names and environment secrets")
	flags.BoolVar(&sel.Writable, "writable", false, "world-writable files")
	flags.BoolVar(&sel.Firewall, "firewall", false, "firewall status")
	flags.BoolVar(&sel.Deep, "deep", false, "external scanners (nmap, chkrootkit, lynis, clamav)")
	flags.BoolVar(&sel.All, "all", false, "every probe; also saves the report")
	flags.BoolVar(&sel.JSON, "json", false, "save the report as a timestamped JSON file")
}

// loadConfig reads the config file and applies flag and environment overrides
func loadConfig(v *viper.Viper) (*config.Config, error) {
	cfg, err := config.Load(v.GetString(flagConfig))
	if err != nil {
		return nil, err
	}

	if dir := v.GetString(flagOutputDir); dir != "" {
		cfg.OutputDir = dir
	}
	if n := v.GetInt(flagParallel); n != 0 {
		cfg.MaxConcurrency = n
	}
	if v.GetBool(flagRevealSecrets) {
		cfg.RedactSecrets = false
	}
	if path := v.GetString(flagMetricsFile); path != "" {
		cfg.MetricsFile = path
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
