package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/log"
	"github.com/girste/cyberaudit/internal/metrics"
)

const (
	TimeoutShort    = 5 * time.Second
	TimeoutMedium   = 30 * time.Second
	TimeoutLong     = 2 * time.Minute
	TimeoutDeepScan = 30 * time.Minute

	// exit status a POSIX shell uses when the program is missing
	exitNotFound = 127

	// grace period for children that keep the output pipe open after the kill
	waitDelay = 2 * time.Second
)

// Result is the outcome of a single shell command. Err is nil on success.
// Output holds whatever the command printed, even when it failed.
type Result struct {
	Command  string
	Output   string
	Err      error
	Duration time.Duration
}

// OK reports whether the command succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// String renders the result the way it is stored in a report: the output on
// success, "Error: <cause>" on failure.
func (r Result) String() string {
	if r.Err != nil {
		return errors.Text(r.Err)
	}
	return r.Output
}

// Executor runs shell commands for probes. Implementations never panic and
// never return failures other than through Result.Err.
type Executor interface {
	Run(ctx context.Context, command string, timeout time.Duration) Result
	LookPath(tool string) bool
}

// ShellRunner executes commands through the host's default shell.
type ShellRunner struct {
	metrics *metrics.Registry
}

// NewShellRunner creates a runner that records command outcomes in reg.
// A nil registry falls back to the global one.
func NewShellRunner(reg *metrics.Registry) *ShellRunner {
	if reg == nil {
		reg = metrics.GetRegistry()
	}
	return &ShellRunner{metrics: reg}
}

// Run executes command and captures its combined output. A timeout <= 0
// means no deadline beyond the one carried by ctx.
func (s *ShellRunner) Run(ctx context.Context, command string, timeout time.Duration) (res Result) {
	res.Command = command
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res.Err = errors.Wrap(errors.ErrCommandFailed, "panic running %q: %v", command, r)
		}
		res.Duration = time.Since(start)
		s.record(res)
	}()

	if strings.TrimSpace(command) == "" {
		res.Err = errors.Wrap(errors.ErrInvalidInput, "no command specified")
		return res
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shell, flag := shellFor(runtime.GOOS)
	cmd := exec.CommandContext(ctx, shell, flag, command)
	cmd.WaitDelay = waitDelay

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	res.Output = out.String()
	res.Err = classify(ctx, command, timeout, err)
	return res
}

// LookPath reports whether tool is installed in PATH
func (s *ShellRunner) LookPath(tool string) bool {
	_, err := exec.LookPath(tool)
	return err == nil
}

func (s *ShellRunner) record(res Result) {
	status := "success"
	switch {
	case errors.Is(res.Err, errors.ErrTimeoutExceeded):
		status = "timeout"
	case res.Err != nil:
		status = "failure"
	}
	s.metrics.Counter("cyberaudit_commands_total", map[string]string{"status": status}).Inc()
	s.metrics.Histogram("cyberaudit_command_duration_seconds", nil).Observe(res.Duration.Seconds())

	switch status {
	case "success":
		log.Debugf("command executed: command=%q duration=%s", res.Command, res.Duration)
	case "timeout":
		log.Warnf("command timed out: command=%q duration=%s", res.Command, res.Duration)
	default:
		log.Warnf("command failed: command=%q error=%v output=%s duration=%s",
			res.Command, res.Err, truncateString(res.Output, 200), res.Duration)
	}
}

func classify(ctx context.Context, command string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("command timed out after %s: %w", timeout, errors.ErrTimeoutExceeded)
	}
	if ctx.Err() == context.Canceled {
		return fmt.Errorf("%w: %q interrupted", errors.ErrCommandFailed, command)
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if exitErr.ExitCode() == exitNotFound {
			return fmt.Errorf("%w: %q", errors.ErrCommandNotFound, command)
		}
		return fmt.Errorf("%w: %q exited with status %d", errors.ErrCommandFailed, command, exitErr.ExitCode())
	}
	return fmt.Errorf("%w: %q: %v", errors.ErrCommandFailed, command, err)
}

func shellFor(goos string) (string, string) {
	if goos == "windows" {
		return "cmd", "/C"
	}
	return "/bin/sh", "-c"
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
