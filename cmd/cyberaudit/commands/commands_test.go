package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/metrics"
	"github.com/girste/cyberaudit/internal/system"
)

// scriptedExec answers every command with the same output
type scriptedExec struct {
	output string
}

func (s scriptedExec) Run(ctx context.Context, command string, timeout time.Duration) system.Result {
	if s.output == "" {
		return system.Result{Command: command, Err: errors.ErrCommandNotFound}
	}
	return system.Result{Command: command, Output: s.output}
}

func (s scriptedExec) LookPath(tool string) bool { return false }

type harness struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
	deps   *deps
	now    time.Time
}

func newHarness(t *testing.T, execOutput string) *harness {
	t.Helper()
	h := &harness{
		dir: t.TempDir(),
		now: time.Date(2024, time.May, 6, 7, 8, 9, 0, time.Local),
	}

	root := filepath.Join(h.dir, "root")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "api_token"), nil, 0o600))
	passwd := filepath.Join(root, "etc", "passwd")
	group := filepath.Join(root, "etc", "group")
	require.NoError(t, os.WriteFile(passwd, []byte("root:x:0:0::/root:/bin/sh\nalice:x:1000:1000::/home/alice:/bin/sh\n"), 0o600))
	require.NoError(t, os.WriteFile(group, []byte("root:x:0:\n"), 0o600))

	out := filepath.Join(h.dir, "out")
	require.NoError(t, os.MkdirAll(out, 0o755))

	cfg := fmt.Sprintf(`platform: linux
outputDir: %q
redactSecrets: true
walk:
  root: %q
  skipDirs: []
accounts:
  passwd: %q
  group: %q
`, out, root, passwd, group)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "config.yaml"), []byte(cfg), 0o600))

	h.deps = &deps{
		stdout:  &h.stdout,
		stderr:  &h.stderr,
		exec:    scriptedExec{output: execOutput},
		environ: func() []string { return []string{"API_TOKEN=abc", "HOME=/x"} },
		now:     func() time.Time { return h.now },
		metrics: metrics.NewRegistry(),
	}
	return h
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd("test", h.deps)
	cmd.SetArgs(append([]string{"--config", filepath.Join(h.dir, "config.yaml"), "--no-color"}, args...))
	return cmd.ExecuteContext(context.Background())
}

func (h *harness) reportPath() string {
	return filepath.Join(h.dir, "out", "cyberaudit_report_2024-05-06_07-08-09.json")
}

func readReport(t *testing.T, path string) map[string]json.RawMessage {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rep map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &rep))
	return rep
}

func keysOf(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

func TestSensitiveJSONWritesOnlySensitiveKeys(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run(t, "--sensitive", "--json"))

	rep := readReport(t, h.reportPath())
	assert.ElementsMatch(t, []string{"sensitive_files", "env_secrets"}, keysOf(rep))

	var files []string
	require.NoError(t, json.Unmarshal(rep["sensitive_files"], &files))
	assert.Equal(t, []string{filepath.Join(h.dir, "root", "etc", "api_token")}, files)

	var secrets map[string]string
	require.NoError(t, json.Unmarshal(rep["env_secrets"], &secrets))
	assert.Equal(t, map[string]string{"API_TOKEN": "****"}, secrets)

	assert.Contains(t, h.stdout.String(), "[✔] Report saved as "+h.reportPath())
	assert.Contains(t, h.stderr.String(), "Running CyberAuditX...")
}

func TestRevealSecrets(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run(t, "--sensitive", "--json", "--reveal-secrets"))

	var secrets map[string]string
	require.NoError(t, json.Unmarshal(readReport(t, h.reportPath())["env_secrets"], &secrets))
	assert.Equal(t, "abc", secrets["API_TOKEN"])
	assert.NotContains(t, secrets, "HOME")
}

func TestQuickVerbosePrintsWithoutSaving(t *testing.T) {
	h := newHarness(t, "tcp LISTEN 0.0.0.0:22\n")
	require.NoError(t, h.run(t, "--quick", "--verbose"))

	_, err := os.Stat(h.reportPath())
	assert.True(t, os.IsNotExist(err))

	var rep map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &rep))
	assert.ElementsMatch(t, []string{"os_info", "open_ports", "users", "groups"}, keysOf(rep))

	var users []string
	require.NoError(t, json.Unmarshal(rep["users"], &users))
	assert.Equal(t, []string{"root", "alice"}, users)

	// Keys appear in invocation order
	out := h.stdout.String()
	assert.Less(t, strings.Index(out, `"os_info"`), strings.Index(out, `"open_ports"`))
	assert.Less(t, strings.Index(out, `"users"`), strings.Index(out, `"groups"`))
}

func TestAllPersistsAndSurvivesFailures(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run(t, "--all", "--parallel", "4"))

	rep := readReport(t, h.reportPath())
	assert.ElementsMatch(t, []string{
		"os_info", "open_ports", "users", "groups", "sensitive_files",
		"env_secrets", "world_writable", "firewall", "deep_scan",
	}, keysOf(rep))

	var ports string
	require.NoError(t, json.Unmarshal(rep["open_ports"], &ports))
	assert.True(t, strings.HasPrefix(ports, "Error: "), ports)

	var firewall string
	require.NoError(t, json.Unmarshal(rep["firewall"], &firewall))
	assert.Equal(t, "Firewall status unavailable", firewall)

	var deep map[string]string
	require.NoError(t, json.Unmarshal(rep["deep_scan"], &deep))
	assert.Equal(t, "nmap not installed", deep["nmap"])
}

func TestNoSelectionRunsNothing(t *testing.T) {
	h := newHarness(t, "")
	require.NoError(t, h.run(t, "--json"))

	assert.Equal(t, "{}", strings.TrimSpace(mustRead(t, h.reportPath())))
}

func TestMetricsFile(t *testing.T) {
	h := newHarness(t, "Status: active\n")
	metricsPath := filepath.Join(h.dir, "cyberaudit.prom")
	require.NoError(t, h.run(t, "--firewall", "--metrics-file", metricsPath))

	text := mustRead(t, metricsPath)
	assert.Contains(t, text, `cyberaudit_probe_runs_total{probe="firewall",status="success"} 1`)
	assert.Contains(t, text, "cyberaudit_report_keys 1")
}

func TestInvalidArguments(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"--bogus"}},
		{"positional argument", []string{"extra"}},
		{"negative parallelism", []string{"--quick", "--parallel", "-3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "")
			assert.Error(t, h.run(t, tt.args...))
		})
	}
}

func TestMissingConfigFile(t *testing.T) {
	h := newHarness(t, "")
	cmd := newRootCmd("test", h.deps)
	cmd.SetArgs([]string{"--config", filepath.Join(h.dir, "nope.yaml"), "--quick"})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestOutputDirFromEnvironment(t *testing.T) {
	h := newHarness(t, "")
	envDir := filepath.Join(h.dir, "from-env")
	require.NoError(t, os.MkdirAll(envDir, 0o755))
	t.Setenv("CYBERAUDIT_OUTPUT_DIR", envDir)

	require.NoError(t, h.run(t, "--firewall", "--json"))
	_, err := os.Stat(filepath.Join(envDir, "cyberaudit_report_2024-05-06_07-08-09.json"))
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	h := newHarness(t, "")
	cmd := newRootCmd("1.2.3", h.deps)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "cyberaudit version 1.2.3\n", h.stdout.String())
}

func mustRead(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
