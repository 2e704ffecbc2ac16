// Package audit runs the selected probes and aggregates their values into
// a single report. A failing probe never aborts the run: its keys are
// filled with "Error: <cause>" text instead.
package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/metrics"
	"github.com/girste/cyberaudit/internal/probes"
	"github.com/girste/cyberaudit/internal/report"
	"github.com/girste/cyberaudit/internal/util"
)

// Probe run statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusTimeout = "timeout"
	StatusPanic   = "panic"
)

// ProbeOutcome describes how a single probe run ended
type ProbeOutcome struct {
	Name     string
	Status   string
	Duration time.Duration
	Err      error
}

// Result is a completed audit
type Result struct {
	RunID    string
	Report   *report.Report
	Outcomes []ProbeOutcome
	Duration time.Duration
}

// Failed returns the outcomes of probes that did not succeed
func (r *Result) Failed() []ProbeOutcome {
	var failed []ProbeOutcome
	for _, o := range r.Outcomes {
		if o.Status != StatusSuccess {
			failed = append(failed, o)
		}
	}
	return failed
}

// Orchestrator coordinates the security audit
type Orchestrator struct {
	registry *probes.Registry
	logger   *zap.Logger
	metrics  *metrics.Registry
}

// NewOrchestrator creates an orchestrator over registry. Nil arguments
// fall back to the built-in probes and the global metrics registry.
func NewOrchestrator(registry *probes.Registry, reg *metrics.Registry) *Orchestrator {
	if registry == nil {
		registry = probes.DefaultRegistry()
	}
	if reg == nil {
		reg = metrics.GetRegistry()
	}
	return &Orchestrator{
		registry: registry,
		logger:   util.GetLogger(),
		metrics:  reg,
	}
}

// probeRun is the collected output of one probe before it reaches the report
type probeRun struct {
	probe   probes.Probe
	values  probes.Values
	outcome ProbeOutcome
}

// RunAudit executes the selected probes and returns the aggregated report.
// Probes run sequentially unless the config allows more concurrency; the
// report key order is the invocation order either way.
func (o *Orchestrator) RunAudit(ctx context.Context, env *probes.Env, sel Selection) (*Result, error) {
	startTime := time.Now()
	runID := uuid.New().String()
	logger := o.logger.With(zap.String("run_id", runID))

	selected, err := o.resolve(sel.ProbeNames())
	if err != nil {
		return nil, err
	}

	runs := make([]probeRun, len(selected))
	limit := env.Config.GetMaxConcurrency()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, p := range selected {
		g.Go(func() error {
			runs[i] = o.runProbe(gctx, logger, env, p)
			// Probe failures are values, never group errors
			return nil
		})
	}
	_ = g.Wait()

	rep := report.New()
	outcomes := make([]ProbeOutcome, 0, len(runs))
	for _, run := range runs {
		o.store(logger, rep, run)
		outcomes = append(outcomes, run.outcome)
	}

	o.metrics.Gauge("cyberaudit_report_keys", nil).Set(float64(rep.Len()))

	duration := time.Since(startTime)
	logger.Info("Audit completed",
		zap.Int("probes", len(selected)),
		zap.Int("keys", rep.Len()),
		zap.Int("concurrency", limit),
		zap.Duration("duration", duration))

	return &Result{RunID: runID, Report: rep, Outcomes: outcomes, Duration: duration}, nil
}

func (o *Orchestrator) resolve(names []string) ([]probes.Probe, error) {
	selected := make([]probes.Probe, 0, len(names))
	for _, name := range names {
		p, ok := o.registry.Get(name)
		if !ok {
			return nil, errors.Wrap(errors.ErrInvalidInput, "unknown probe %q", name)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// runProbe executes p under its own deadline and never panics
func (o *Orchestrator) runProbe(ctx context.Context, logger *zap.Logger, env *probes.Env, p probes.Probe) (run probeRun) {
	run.probe = p
	run.outcome.Name = p.Name()

	probeCtx, cancel := context.WithTimeout(ctx, p.Timeout(env.Config))
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			run.values = nil
			run.outcome.Status = StatusPanic
			run.outcome.Err = errors.Wrap(errors.ErrProbeFailed, "%s panicked: %v", p.Name(), r)
		}
		run.outcome.Duration = time.Since(start)
		o.record(logger, run.outcome)
	}()

	logger.Debug("Running probe", zap.String("probe", p.Name()))
	values, err := p.Run(probeCtx, env)
	run.values = values

	switch {
	case err == nil:
		run.outcome.Status = StatusSuccess
	case probeCtx.Err() == context.DeadlineExceeded:
		run.outcome.Status = StatusTimeout
		run.outcome.Err = fmt.Errorf("%s exceeded %s: %w", p.Name(), p.Timeout(env.Config), errors.ErrTimeoutExceeded)
	default:
		run.outcome.Status = StatusFailure
		run.outcome.Err = errors.Wrap(errors.ErrProbeFailed, "%s: %v", p.Name(), err)
	}
	return run
}

// store writes exactly the keys the probe owns. Missing keys get the
// failure text, keys the probe does not own are dropped.
func (o *Orchestrator) store(logger *zap.Logger, rep *report.Report, run probeRun) {
	owned := make(map[string]bool, len(run.probe.Keys()))
	for _, key := range run.probe.Keys() {
		owned[key] = true

		value, ok := run.values[key]
		if !ok || value == nil {
			cause := run.outcome.Err
			if cause == nil {
				cause = errors.Wrap(errors.ErrProbeFailed, "%s produced no value for %s", run.probe.Name(), key)
			}
			value = errors.Text(cause)
		}

		if err := rep.Set(key, value); err != nil {
			logger.Error("Report key already written", zap.String("key", key), zap.Error(err))
		}
	}

	for key := range run.values {
		if !owned[key] {
			logger.Warn("Dropping value for key not owned by probe",
				zap.String("probe", run.probe.Name()), zap.String("key", key))
		}
	}
}

func (o *Orchestrator) record(logger *zap.Logger, outcome ProbeOutcome) {
	labels := map[string]string{"probe": outcome.Name, "status": outcome.Status}
	o.metrics.Counter("cyberaudit_probe_runs_total", labels).Inc()
	o.metrics.Histogram("cyberaudit_probe_duration_seconds", map[string]string{"probe": outcome.Name}).
		Observe(outcome.Duration.Seconds())

	if outcome.Err != nil {
		logger.Warn("Probe failed",
			zap.String("probe", outcome.Name),
			zap.String("status", outcome.Status),
			zap.Duration("duration", outcome.Duration),
			zap.Error(outcome.Err))
		return
	}
	logger.Debug("Probe completed", zap.String("probe", outcome.Name), zap.Duration("duration", outcome.Duration))
}
