// Package mcp exposes the audit as Model Context Protocol tools over stdio.
package mcp

import (
	"context"
	"strings"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/girste/cyberaudit/internal/audit"
	"github.com/girste/cyberaudit/internal/probes"
	"github.com/girste/cyberaudit/internal/util"
)

const (
	serverName = "cyberaudit"

	toolRunAudit   = "run_audit"
	toolListProbes = "list_probes"
)

// selection flags accepted by run_audit, in CLI order
var selectionArgs = []struct {
	name string
	desc string
}{
	{"quick", "OS info, open ports, users and groups"},
	{"sensitive", "Sensitive file names and environment secrets"},
	{"writable", "World-writable files"},
	{"firewall", "Firewall status"},
	{"deep", "External scanners (nmap, chkrootkit, lynis, clamav); slow"},
	{"all", "Every probe"},
}

// Server serves audits to an MCP client. Reports are returned to the
// client and never written to disk.
type Server struct {
	mcp      *server.MCPServer
	orch     *audit.Orchestrator
	env      *probes.Env
	registry *probes.Registry
	logger   *zap.Logger
}

// NewServer creates a new MCP server running probes from registry against env
func NewServer(version string, registry *probes.Registry, orch *audit.Orchestrator, env *probes.Env) *Server {
	s := &Server{
		mcp: server.NewMCPServer(serverName, version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		orch:     orch,
		env:      env,
		registry: registry,
		logger:   util.GetLogger().Named("mcp"),
	}
	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	opts := []mcpgo.ToolOption{
		mcpgo.WithDescription("Run a local host security audit and return the JSON report"),
		mcpgo.WithReadOnlyHintAnnotation(true),
		mcpgo.WithOpenWorldHintAnnotation(false),
	}
	for _, arg := range selectionArgs {
		opts = append(opts, mcpgo.WithBoolean(arg.name,
			mcpgo.Description(arg.desc),
			mcpgo.DefaultBool(false),
		))
	}
	s.mcp.AddTool(mcpgo.NewTool(toolRunAudit, opts...), s.handleRunAudit)

	s.mcp.AddTool(mcpgo.NewTool(toolListProbes,
		mcpgo.WithDescription("List the available probes and the report keys each one owns"),
		mcpgo.WithReadOnlyHintAnnotation(true),
	), s.handleListProbes)
}

// Serve blocks serving requests on stdin/stdout
func (s *Server) Serve() error {
	s.logger.Info("Starting MCP server on stdio")
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleRunAudit(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	sel := audit.Selection{
		Quick:     req.GetBool("quick", false),
		Sensitive: req.GetBool("sensitive", false),
		Writable:  req.GetBool("writable", false),
		Firewall:  req.GetBool("firewall", false),
		Deep:      req.GetBool("deep", false),
		All:       req.GetBool("all", false),
	}
	if sel.Empty() {
		return mcpgo.NewToolResultError("no probes selected: set at least one of quick, sensitive, writable, firewall, deep, all"), nil
	}

	res, err := s.orch.RunAudit(ctx, s.env, sel)
	if err != nil {
		return mcpgo.NewToolResultErrorFromErr("audit failed", err), nil
	}

	data, err := res.Report.MarshalIndent()
	if err != nil {
		return mcpgo.NewToolResultErrorFromErr("encode report", err), nil
	}

	s.logger.Info("Audit served",
		zap.String("run_id", res.RunID),
		zap.Int("keys", res.Report.Len()),
		zap.Int("failed_probes", len(res.Failed())))
	return mcpgo.NewToolResultText(string(data)), nil
}

func (s *Server) handleListProbes(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
	var sb strings.Builder
	for _, p := range s.registry.All() {
		sb.WriteString(p.Name())
		sb.WriteString(": ")
		sb.WriteString(strings.Join(p.Keys(), ", "))
		sb.WriteString("\n")
	}
	return mcpgo.NewToolResultText(sb.String()), nil
}
