package system

import (
	"context"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/metrics"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("POSIX shell required")
	}
}

func TestResultString(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"success", Result{Output: "Status: active\n"}, "Status: active\n"},
		{"failure", Result{Output: "ignored", Err: errors.ErrCommandFailed}, "Error: command failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShellRunnerRun(t *testing.T) {
	skipOnWindows(t)
	ctx := context.Background()
	runner := NewShellRunner(metrics.NewRegistry())

	t.Run("successful command", func(t *testing.T) {
		res := runner.Run(ctx, "echo hello", TimeoutShort)
		if !res.OK() {
			t.Fatalf("Run() error = %v", res.Err)
		}
		if res.Output != "hello\n" {
			t.Errorf("Output = %q, want %q", res.Output, "hello\n")
		}
	})

	t.Run("combined output", func(t *testing.T) {
		res := runner.Run(ctx, "echo out; echo err 1>&2", TimeoutShort)
		if !strings.Contains(res.Output, "out") || !strings.Contains(res.Output, "err") {
			t.Errorf("Output = %q, want stdout and stderr", res.Output)
		}
	})

	t.Run("nonexistent binary", func(t *testing.T) {
		res := runner.Run(ctx, "nonexistent-command-xyz123 --flag", TimeoutShort)
		if res.OK() {
			t.Fatal("Run() succeeded for nonexistent command")
		}
		if !strings.HasPrefix(res.String(), "Error: ") {
			t.Errorf("String() = %q, want Error: prefix", res.String())
		}
		if !errors.Is(res.Err, errors.ErrCommandNotFound) {
			t.Errorf("Err = %v, want ErrCommandNotFound", res.Err)
		}
	})

	t.Run("non-zero exit", func(t *testing.T) {
		res := runner.Run(ctx, "echo partial; exit 3", TimeoutShort)
		if !errors.Is(res.Err, errors.ErrCommandFailed) {
			t.Fatalf("Err = %v, want ErrCommandFailed", res.Err)
		}
		if !strings.Contains(res.Err.Error(), "status 3") {
			t.Errorf("Err = %v, want exit status in message", res.Err)
		}
		if res.Output != "partial\n" {
			t.Errorf("Output = %q, want output kept on failure", res.Output)
		}
	})

	t.Run("command timeout", func(t *testing.T) {
		start := time.Now()
		res := runner.Run(ctx, "sleep 10", 100*time.Millisecond)
		if !errors.Is(res.Err, errors.ErrTimeoutExceeded) {
			t.Fatalf("Err = %v, want ErrTimeoutExceeded", res.Err)
		}
		if time.Since(start) > 5*time.Second {
			t.Errorf("timeout not enforced, took %s", time.Since(start))
		}
	})

	t.Run("empty command", func(t *testing.T) {
		res := runner.Run(ctx, "   ", TimeoutShort)
		if !errors.Is(res.Err, errors.ErrInvalidInput) {
			t.Errorf("Err = %v, want ErrInvalidInput", res.Err)
		}
	})
}

func TestShellRunnerCancelledContext(t *testing.T) {
	skipOnWindows(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewShellRunner(metrics.NewRegistry()).Run(ctx, "echo test", TimeoutShort)
	if res.OK() {
		t.Error("Run() with cancelled context should fail")
	}
	if !strings.HasPrefix(res.String(), "Error: ") {
		t.Errorf("String() = %q, want Error: prefix", res.String())
	}
}

func TestShellRunnerMetrics(t *testing.T) {
	skipOnWindows(t)
	reg := metrics.NewRegistry()
	runner := NewShellRunner(reg)

	runner.Run(context.Background(), "true", TimeoutShort)
	runner.Run(context.Background(), "false", TimeoutShort)

	ok := reg.Counter("cyberaudit_commands_total", map[string]string{"status": "success"}).Value()
	failed := reg.Counter("cyberaudit_commands_total", map[string]string{"status": "failure"}).Value()
	if ok != 1 || failed != 1 {
		t.Errorf("commands_total success=%v failure=%v, want 1 and 1", ok, failed)
	}
	if got := reg.Histogram("cyberaudit_command_duration_seconds", nil).Count(); got != 2 {
		t.Errorf("duration count = %d, want 2", got)
	}
}

func TestShellRunnerLookPath(t *testing.T) {
	skipOnWindows(t)
	runner := NewShellRunner(nil)

	tests := []struct {
		name string
		tool string
		want bool
	}{
		{"sh exists", "sh", true},
		{"nonexistent", "nonexistent-cmd-xyz", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := runner.LookPath(tt.tool); got != tt.want {
				t.Errorf("LookPath(%q) = %v, want %v", tt.tool, got, tt.want)
			}
		})
	}
}

func TestShellFor(t *testing.T) {
	if shell, flag := shellFor("windows"); shell != "cmd" || flag != "/C" {
		t.Errorf("shellFor(windows) = %s %s", shell, flag)
	}
	if shell, flag := shellFor("linux"); shell != "/bin/sh" || flag != "-c" {
		t.Errorf("shellFor(linux) = %s %s", shell, flag)
	}
}

func TestTruncateString(t *testing.T) {
	if got := truncateString("abcdef", 3); got != "abc..." {
		t.Errorf("truncateString() = %q", got)
	}
	if got := truncateString("abc", 10); got != "abc" {
		t.Errorf("truncateString() = %q", got)
	}
}
