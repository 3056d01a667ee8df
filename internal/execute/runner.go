package execute

import (
	"context"

	"go.uber.org/zap"

	"tracelens/internal/model"
	"tracelens/internal/sim"
)

// Source names where an outcome's output came from.
type Source string

const (
	SourceReal      Source = "real"
	SourceSimulated Source = "simulated"
)

// LineMismatch is one output line on which the simulation and the real run
// disagree. A missing line is reported as an empty string with the
// corresponding Has flag unset.
type LineMismatch struct {
	Line         int    `json:"line"`
	Simulated    string `json:"simulated"`
	Real         string `json:"real"`
	HasSimulated bool   `json:"hasSimulated"`
	HasReal      bool   `json:"hasReal"`
}

// Reconciliation compares simulated output with real output line by line.
type Reconciliation struct {
	Matches    bool           `json:"matches"`
	Mismatches []LineMismatch `json:"mismatches"`
}

// Outcome is the result of running a program: the simulation always, and
// the real run when an executor answered. Output, Success and Error come
// from the real run when there is one.
type Outcome struct {
	Source         Source                 `json:"source"`
	Success        bool                   `json:"success"`
	Error          string                 `json:"error,omitempty"`
	Output         []string               `json:"output"`
	Simulation     model.SimulationResult `json:"simulation"`
	Real           *Result                `json:"real,omitempty"`
	RealError      string                 `json:"realError,omitempty"`
	Reconciliation *Reconciliation        `json:"reconciliation,omitempty"`
}

// Runner prefers a real execution and falls back to the simulator.
type Runner struct {
	exec    Executor
	simOpts []sim.Option
	logger  *zap.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(l *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSimOptions configures the fallback simulator.
func WithSimOptions(opts ...sim.Option) RunnerOption {
	return func(r *Runner) {
		r.simOpts = append(r.simOpts, opts...)
	}
}

// NewRunner creates a runner. exec may be nil, in which case every run is
// simulated.
func NewRunner(exec Executor, opts ...RunnerOption) *Runner {
	r := &Runner{exec: exec, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run simulates req and, when an executor is configured, runs it for real.
func (r *Runner) Run(ctx context.Context, req Request) Outcome {
	simRes := sim.Simulate(req.Code, req.Language, req.Stdin, append([]sim.Option{sim.WithLogger(r.logger)}, r.simOpts...)...)
	out := Outcome{
		Source:     SourceSimulated,
		Success:    simRes.Success,
		Error:      simRes.Error,
		Output:     simRes.Output,
		Simulation: simRes,
	}
	if r.exec == nil {
		return out
	}

	res, err := r.exec.Execute(ctx, req)
	if err != nil {
		r.logger.Warn("real execution failed; using simulation",
			zap.String("language", string(req.Language)),
			zap.Error(err))
		out.RealError = err.Error()
		return out
	}
	r.logger.Debug("using real execution", zap.Bool("success", res.Success))
	rec := Reconcile(simRes.Output, res.OutputLines)
	out.Source = SourceReal
	out.Success = res.Success
	out.Error = res.Error
	out.Output = res.OutputLines
	out.Real = &res
	out.Reconciliation = &rec
	return out
}

// Reconcile compares simulated and real output lines position by position.
func Reconcile(simulated, actual []string) Reconciliation {
	rec := Reconciliation{Mismatches: []LineMismatch{}}
	n := max(len(simulated), len(actual))
	for i := 0; i < n; i++ {
		m := LineMismatch{Line: i + 1, HasSimulated: i < len(simulated), HasReal: i < len(actual)}
		if m.HasSimulated {
			m.Simulated = simulated[i]
		}
		if m.HasReal {
			m.Real = actual[i]
		}
		if m.HasSimulated && m.HasReal && m.Simulated == m.Real {
			continue
		}
		rec.Mismatches = append(rec.Mismatches, m)
	}
	rec.Matches = len(rec.Mismatches) == 0
	return rec
}
