// Package sim simulates C++, Python and JavaScript programs line by line,
// producing a step trace of variable state, output and branch decisions
// without compiling or running the program.
package sim

import (
	"errors"

	"go.uber.org/zap"

	"tracelens/internal/expr"
	"tracelens/internal/model"
	"tracelens/internal/syntax"
	"tracelens/internal/trace"
)

const (
	// DefaultIterationCap bounds the statements executed per run. The
	// effective cap grows with program length.
	DefaultIterationCap = 1000
	// DefaultMaxCallDepth bounds inlined procedure calls.
	DefaultMaxCallDepth = 8
	// capPerLine is the minimum budget granted per logical line.
	capPerLine = 20
)

// ErrInputExhausted is wrapped by the error reported when a read finds no
// remaining stdin token.
var ErrInputExhausted = errors.New("input exhausted")

// rules captures the per-language behavior of the engine.
type rules struct {
	tokens    trace.TokenMode
	rootFrame string
	typed     bool // declared types drive input conversion and coercion
	mainFunc  bool // a function named main is the entry point
	stepOps   bool // ++ and -- exist
}

var languageRules = map[model.Language]rules{
	model.LangCPP: {
		tokens:    trace.TokenWords,
		rootFrame: "<global>",
		typed:     true,
		mainFunc:  true,
		stepOps:   true,
	},
	model.LangPython: {
		tokens:    trace.TokenWords,
		rootFrame: "<module>",
	},
	model.LangJavaScript: {
		tokens:    trace.TokenLines,
		rootFrame: "<global>",
		stepOps:   true,
	},
}

// Simulator runs programs of one language. It holds configuration only and
// may be reused across runs.
type Simulator struct {
	lang     model.Language
	rules    rules
	logger   *zap.Logger
	cap      int
	maxDepth int
	registry *Registry
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger for debug diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIterationCap sets the base statement budget.
func WithIterationCap(n int) Option {
	return func(s *Simulator) {
		if n > 0 {
			s.cap = n
		}
	}
}

// WithMaxCallDepth bounds nested procedure inlining.
func WithMaxCallDepth(n int) Option {
	return func(s *Simulator) {
		if n >= 0 {
			s.maxDepth = n
		}
	}
}

// WithRegistry replaces the known-function registry.
func WithRegistry(r *Registry) Option {
	return func(s *Simulator) {
		if r != nil {
			s.registry = r
		}
	}
}

// New returns a simulator for lang. Unknown languages fall back to the
// C-family rules.
func New(lang model.Language, opts ...Option) *Simulator {
	r, ok := languageRules[lang]
	if !ok {
		lang = model.LangCPP
		r = languageRules[lang]
	}
	s := &Simulator{
		lang:     lang,
		rules:    r,
		logger:   zap.NewNop(),
		cap:      DefaultIterationCap,
		maxDepth: DefaultMaxCallDepth,
		registry: DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCPP returns a C++ simulator.
func NewCPP(opts ...Option) *Simulator { return New(model.LangCPP, opts...) }

// NewPython returns a Python simulator.
func NewPython(opts ...Option) *Simulator { return New(model.LangPython, opts...) }

// NewJavaScript returns a JavaScript simulator.
func NewJavaScript(opts ...Option) *Simulator { return New(model.LangJavaScript, opts...) }

// Language reports the simulated language.
func (s *Simulator) Language() model.Language {
	return s.lang
}

// Simulate runs source against stdin with a fresh simulator for lang.
func Simulate(source string, lang model.Language, stdin string, opts ...Option) model.SimulationResult {
	return New(lang, opts...).Simulate(source, stdin)
}

// Simulate runs source against stdin. The returned trace always holds at
// least one step.
func (s *Simulator) Simulate(source, stdin string) model.SimulationResult {
	prog := syntax.Parse(source, s.lang)
	budget := s.cap
	if n := capPerLine * prog.Len(); n > budget {
		budget = n
	}
	root := NewEnv(nil)
	r := &run{
		Simulator: s,
		prog:      prog,
		ev:        expr.New(expr.DialectFor(s.lang), expr.WithFuncs(s.registry.Funcs())),
		env:       root,
		acc:       trace.NewAccumulator(),
		in:        trace.NewInputStream(stdin, s.rules.tokens),
		types:     map[string]string{},
		funcs:     prog.Functions(),
		frames:    []frame{{name: s.rules.rootFrame, scope: root}},
		budget:    budget,
	}
	r.execRange(0, prog.Len())

	if r.acc.Len() == 0 {
		rationale := "code analyzed: no executable statements were recognized"
		if r.err != nil {
			rationale = "code analyzed: " + r.err.Error()
		}
		r.acc.AddStep(firstLine(prog), r.env.Snapshot(), trace.StepMeta{Rationale: rationale})
	}

	result := model.SimulationResult{
		Language:       s.lang,
		Success:        r.err == nil,
		Trace:          r.acc.Trace(),
		Output:         r.acc.Output(),
		FinalVariables: r.env.Snapshot(),
		Truncated:      r.truncated,
		Executed:       r.ticks,
	}
	if r.err != nil {
		result.Error = r.err.Error()
	}
	s.logger.Debug("simulation finished",
		zap.String("language", string(s.lang)),
		zap.Int("lines", prog.Len()),
		zap.Int("steps", len(result.Trace)),
		zap.Int("executed", r.ticks),
		zap.Bool("truncated", r.truncated),
		zap.Bool("success", result.Success))
	return result
}

func firstLine(p *syntax.Program) int {
	if p.Len() == 0 {
		return 1
	}
	return p.Stmts[0].Pos().No
}
