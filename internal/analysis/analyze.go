// Package analysis runs the simulator, graph builder, complexity estimator
// and comparator over one program and renders the combined report.
package analysis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tracelens/internal/cfg"
	"tracelens/internal/compare"
	"tracelens/internal/complexity"
	"tracelens/internal/execute"
	"tracelens/internal/model"
	"tracelens/internal/syntax"
)

// Request is one program to analyze. An empty Language is detected from the
// source. Predicted, when set, is compared against the simulated trace.
type Request struct {
	Source    string
	Language  model.Language
	Stdin     string
	Predicted model.Trace
}

// Result bundles everything known about one program.
type Result struct {
	RunID      string                  `json:"runId"`
	Language   model.Language          `json:"language"`
	Source     string                  `json:"source"`
	Outcome    execute.Outcome         `json:"outcome"`
	Graph      model.Graph             `json:"graph"`
	Complexity model.ComplexitySummary `json:"complexity"`
	Comparison *model.Comparison       `json:"comparison,omitempty"`
	Elapsed    time.Duration           `json:"elapsed"`
}

// Simulation is the simulated run inside the outcome.
func (r Result) Simulation() model.SimulationResult {
	return r.Outcome.Simulation
}

// Analyzer composes the analysis components. It is safe for concurrent use.
type Analyzer struct {
	runner  *execute.Runner
	builder *cfg.Builder
	logger  *zap.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithRunner replaces the default simulate-only runner.
func WithRunner(r *execute.Runner) Option {
	return func(a *Analyzer) {
		if r != nil {
			a.runner = r
		}
	}
}

// NewAnalyzer creates an Analyzer.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		a.runner = execute.NewRunner(nil, execute.WithLogger(a.logger))
	}
	a.builder = cfg.NewBuilder(cfg.WithLogger(a.logger))
	return a
}

// Analyze runs every component over req. The graph is built while the
// program runs; the complexity estimate waits for the trace. The only
// error is a cancelled context.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	lang := req.Language
	if lang == "" {
		lang = syntax.Detect(req.Source)
	}
	res := Result{RunID: uuid.NewString(), Language: lang, Source: req.Source}
	logger := a.logger.With(zap.String("run", res.RunID), zap.String("language", string(lang)))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res.Outcome = a.runner.Run(gctx, execute.Request{Code: req.Source, Language: lang, Stdin: req.Stdin})
		res.Complexity = complexity.Estimate(req.Source,
			complexity.WithLanguage(lang),
			complexity.WithTrace(res.Outcome.Simulation.Trace))
		if len(req.Predicted) > 0 {
			cmp := compare.Summarize(req.Predicted, res.Outcome.Simulation.Trace)
			res.Comparison = &cmp
		}
		return gctx.Err()
	})
	g.Go(func() error {
		res.Graph = a.builder.Build(req.Source, lang)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res.Elapsed = time.Since(start)
	logger.Info("analysis finished",
		zap.String("source", string(res.Outcome.Source)),
		zap.Bool("success", res.Outcome.Success),
		zap.Int("steps", len(res.Outcome.Simulation.Trace)),
		zap.Int("nodes", len(res.Graph.Nodes)),
		zap.String("time", string(res.Complexity.EstimatedTimeClass)),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}
