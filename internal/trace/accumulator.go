// Package trace records simulated executions as step-indexed traces.
package trace

import (
	"sort"
	"strings"

	"tracelens/internal/model"
)

// StepMeta carries the optional descriptive fields of a step.
type StepMeta struct {
	BranchLabel string
	Rationale   string
	LiteralText string
	CallStack   []model.StackFrame
}

// Accumulator is the mutable ledger behind a Trace. It owns the output
// buffer so every step can carry the output emitted up to that point.
// An Accumulator belongs to a single run and must not be shared.
type Accumulator struct {
	steps   []model.Step
	prev    map[string]model.Value
	lines   []string // completed output lines
	partial strings.Builder
	open    bool // partial holds text not yet terminated by a newline
}

// NewAccumulator returns an empty ledger.
func NewAccumulator() *Accumulator {
	return &Accumulator{prev: map[string]model.Value{}}
}

// AddStep appends a step for sourceLine with a deep copy of vars. The
// variable changes are computed against the previous step's snapshot (an
// empty snapshot for the first step). Line numbers are not required to be
// monotonic: loops revisit earlier lines.
func (a *Accumulator) AddStep(sourceLine int, vars map[string]model.Value, meta StepMeta) {
	snapshot := model.CloneVars(vars)
	step := model.Step{
		Index:             len(a.steps) + 1,
		SourceLine:        sourceLine,
		LiteralText:       meta.LiteralText,
		Variables:         snapshot,
		VariableChanges:   Diff(a.prev, snapshot),
		AccumulatedOutput: a.Output(),
		CallStack:         cloneFrames(meta.CallStack),
		BranchLabel:       meta.BranchLabel,
		Rationale:         meta.Rationale,
	}
	a.steps = append(a.steps, step)
	a.prev = snapshot
}

// Print appends text to the output. Embedded newlines terminate lines; when
// newline is true the current line is terminated after text.
func (a *Accumulator) Print(text string, newline bool) {
	parts := strings.Split(text, "\n")
	for i, part := range parts {
		if i > 0 {
			a.endLine()
		}
		if part != "" {
			a.partial.WriteString(part)
			a.open = true
		}
	}
	if newline {
		a.endLine()
	}
}

func (a *Accumulator) endLine() {
	a.lines = append(a.lines, a.partial.String())
	a.partial.Reset()
	a.open = false
}

// Output returns a copy of the emitted lines, including an unterminated
// trailing line.
func (a *Accumulator) Output() []string {
	out := make([]string, 0, len(a.lines)+1)
	out = append(out, a.lines...)
	if a.open {
		out = append(out, a.partial.String())
	}
	return out
}

// Len is the number of recorded steps.
func (a *Accumulator) Len() int {
	return len(a.steps)
}

// Trace returns the steps recorded so far. The returned slice is a copy;
// later AddStep calls do not affect it.
func (a *Accumulator) Trace() model.Trace {
	out := make(model.Trace, len(a.steps))
	copy(out, a.steps)
	return out
}

// Diff returns the changes that turn prev into next, sorted by name. The
// result is exactly the symmetric difference of the two snapshots.
func Diff(prev, next map[string]model.Value) []model.VariableChange {
	changes := []model.VariableChange{}
	for name, cur := range next {
		old, existed := prev[name]
		switch {
		case !existed:
			changes = append(changes, model.VariableChange{
				Name:         name,
				CurrentValue: model.CloneValue(cur),
				Kind:         model.ChangeCreated,
			})
		case !model.ValuesEqual(old, cur):
			changes = append(changes, model.VariableChange{
				Name:          name,
				PreviousValue: model.CloneValue(old),
				CurrentValue:  model.CloneValue(cur),
				Kind:          model.ChangeUpdated,
			})
		}
	}
	for name, old := range prev {
		if _, ok := next[name]; !ok {
			changes = append(changes, model.VariableChange{
				Name:          name,
				PreviousValue: model.CloneValue(old),
				Kind:          model.ChangeDeleted,
			})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Name < changes[j].Name })
	return changes
}

func cloneFrames(frames []model.StackFrame) []model.StackFrame {
	out := make([]model.StackFrame, len(frames))
	for i, f := range frames {
		out[i] = model.StackFrame{
			FunctionName: f.FunctionName,
			Variables:    model.CloneVars(f.Variables),
			SourceLine:   f.SourceLine,
		}
	}
	return out
}
