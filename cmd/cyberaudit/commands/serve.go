package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/girste/cyberaudit/internal/audit"
	"github.com/girste/cyberaudit/internal/mcp"
	"github.com/girste/cyberaudit/internal/probes"
)

func newServeCmd(version string, d *deps, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve audits to MCP clients over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout. The run_audit tool
accepts the same probe selection as the command line and returns the
report as JSON text; reports are not written to disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}

			env := probes.NewEnv(cfg, d.exec)
			if d.environ != nil {
				env.Environ = d.environ
			}
			registry := probes.DefaultRegistry()
			orch := audit.NewOrchestrator(registry, d.metrics)

			return mcp.NewServer(version, registry, orch, env).Serve()
		},
	}
}
