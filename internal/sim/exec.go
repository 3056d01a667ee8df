package sim

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"tracelens/internal/expr"
	"tracelens/internal/model"
	"tracelens/internal/syntax"
	"tracelens/internal/trace"
)

// flow is the control signal a statement hands back to its enclosing block.
type flow int

const (
	flowNext flow = iota
	flowBreak
	flowContinue
	flowReturn
	flowHalt
)

type frame struct {
	name     string
	scope    *Env
	callLine int
}

// run is the state of one simulation.
type run struct {
	*Simulator
	prog   *syntax.Program
	ev     *expr.Evaluator
	env    *Env
	acc    *trace.Accumulator
	in     *trace.InputStream
	types  map[string]string
	funcs  map[string]int
	frames []frame

	budget    int
	ticks     int
	halted    bool
	truncated bool
	err       error
}

// tick charges one unit of the statement budget. It reports false once the
// budget is spent, after which the run is halted as truncated.
func (r *run) tick() bool {
	if r.halted {
		return false
	}
	r.ticks++
	if r.ticks > r.budget {
		r.truncated = true
		r.halted = true
		r.logger.Debug("iteration cap reached", zap.Int("budget", r.budget))
		return false
	}
	return true
}

func (r *run) fail(err error) flow {
	r.err = err
	r.halted = true
	return flowHalt
}

func (r *run) record(ln syntax.Line, label, rationale string) {
	r.acc.AddStep(ln.No, r.env.Snapshot(), trace.StepMeta{
		BranchLabel: label,
		Rationale:   rationale,
		LiteralText: ln.Text,
		CallStack:   r.callStack(ln.No),
	})
}

func (r *run) callStack(line int) []model.StackFrame {
	out := make([]model.StackFrame, len(r.frames))
	for i, f := range r.frames {
		at := line
		if i+1 < len(r.frames) {
			at = r.frames[i+1].callLine
		}
		out[i] = model.StackFrame{FunctionName: f.name, Variables: f.scope.Local(), SourceLine: at}
	}
	return out
}

func (r *run) eval(src string) (model.Value, bool) {
	return r.ev.Eval(src, r.env)
}

// execRange runs the statements in [start, end) and returns the first
// non-sequential control signal.
func (r *run) execRange(start, end int) flow {
	for i := start; i < end; {
		if r.halted {
			return flowHalt
		}
		next, f := r.exec(i)
		if f != flowNext {
			return f
		}
		i = next
	}
	if r.halted {
		return flowHalt
	}
	return flowNext
}

// exec runs the statement at i and returns the index to continue at.
func (r *run) exec(i int) (int, flow) {
	st := r.prog.Stmts[i]
	switch s := st.(type) {
	case *syntax.OpenBrace, *syntax.CloseBrace, *syntax.Directive:
		return i + 1, flowNext
	case *syntax.Unknown:
		r.logger.Debug("unrecognized line", zap.Int("line", s.Pos().No), zap.String("text", s.Pos().Text))
		if b, ok := r.prog.Block(i); ok {
			return b.Next, flowNext
		}
		return i + 1, flowNext
	case *syntax.ElseIf, *syntax.Else:
		// a branch without a preceding if
		return r.skip(i), flowNext
	}

	if !r.tick() {
		return i + 1, flowHalt
	}
	switch s := st.(type) {
	case *syntax.If:
		return r.execIf(i)
	case *syntax.While:
		return r.execWhile(i, s)
	case *syntax.For:
		return r.execFor(i, s)
	case *syntax.ForRange:
		return r.execForRange(i, s)
	case *syntax.ForEach:
		return r.execForEach(i, s)
	case *syntax.FuncDef:
		return r.execFuncDef(i, s)
	case *syntax.MainGuard:
		b, ok := r.prog.Block(i)
		if !ok {
			return i + 1, flowNext
		}
		r.record(s.Pos(), "__name__ == \"__main__\"", "script entry point")
		return b.Next, r.execRange(b.Start, b.End)
	case *syntax.Call:
		return i + 1, r.execCall(s)
	}
	return i + 1, r.execSimple(st)
}

func (r *run) skip(i int) int {
	if b, ok := r.prog.Block(i); ok {
		return b.Next
	}
	return i + 1
}

// label renders a condition for display: the source text followed by the
// text with current values substituted.
func (r *run) label(cond string) string {
	rendered := r.ev.Render(cond, r.env)
	if rendered == cond {
		return cond
	}
	return cond + " [" + rendered + "]"
}

var (
	rePreStep  = regexp.MustCompile(`(\+\+|--)\s*([A-Za-z_]\w*)\b`)
	rePostStep = regexp.MustCompile(`\b([A-Za-z_]\w*)\s*(\+\+|--)`)
)

// test evaluates a condition. Prefix steps such as --x are applied before
// the test and postfix steps such as x-- after it, so while (x--) checks
// the old value and always decrements.
func (r *run) test(cond string) (bool, bool, string) {
	cond = strings.TrimSpace(cond)
	if cond == "" {
		return true, true, ""
	}
	var post [][]string
	if r.rules.stepOps {
		for _, m := range rePreStep.FindAllStringSubmatch(cond, -1) {
			r.bump(m[2], m[1])
		}
		cond = rePreStep.ReplaceAllString(cond, "$2")
		post = rePostStep.FindAllStringSubmatch(cond, -1)
		cond = rePostStep.ReplaceAllString(cond, "$1")
	}
	label := r.label(cond)
	v, ok := r.eval(cond)
	for _, m := range post {
		r.bump(m[1], m[2])
	}
	return ok && expr.Truthy(v), ok, label
}

func (r *run) bump(name, op string) bool {
	v, ok := r.env.Lookup(name)
	if !ok {
		return false
	}
	switch v.(type) {
	case int64, float64:
	default:
		return false
	}
	next, ok := r.eval(fmt.Sprintf("(%s) %c 1", name, op[0]))
	if !ok {
		return false
	}
	r.env.Set(name, next)
	return true
}

func (r *run) execIf(i int) (int, flow) {
	end := r.prog.ChainEnd(i)
	for j := i; j < end; {
		st := r.prog.Stmts[j]
		b, ok := r.prog.Block(j)
		if !ok {
			return end, flowNext
		}
		var cond string
		switch s := st.(type) {
		case *syntax.Else:
			r.record(s.Pos(), "else", "no earlier condition held; taking the else branch")
			return end, r.execRange(b.Start, b.End)
		case *syntax.If:
			cond = s.Cond
		case *syntax.ElseIf:
			cond = s.Cond
		default:
			return end, flowNext
		}
		taken, known, label := r.test(cond)
		switch {
		case !known:
			r.record(st.Pos(), label, "condition could not be evaluated; branch skipped")
		case taken:
			r.record(st.Pos(), label, "condition is true; entering the branch")
			return end, r.execRange(b.Start, b.End)
		}
		j = b.Next
	}
	return end, flowNext
}

// loopBody runs one iteration and reports whether the loop should stop,
// with the flow to propagate.
func (r *run) loopBody(b syntax.Block) (bool, flow) {
	switch f := r.execRange(b.Start, b.End); f {
	case flowBreak:
		return true, flowNext
	case flowReturn, flowHalt:
		return true, f
	}
	return false, flowNext
}

func (r *run) execWhile(i int, s *syntax.While) (int, flow) {
	b, ok := r.prog.Block(i)
	if !ok {
		return i + 1, flowNext
	}
	for iter := 1; ; iter++ {
		if iter > 1 && !r.tick() {
			return b.Next, flowHalt
		}
		taken, known, label := r.test(s.Cond)
		if !known {
			r.record(s.Pos(), label, "loop condition could not be evaluated; leaving the loop")
			return b.Next, flowNext
		}
		if !taken {
			return b.Next, flowNext
		}
		r.record(s.Pos(), label, fmt.Sprintf("loop condition true, iteration %d", iter))
		if stop, f := r.loopBody(b); stop {
			return b.Next, f
		}
	}
}

func (r *run) execFor(i int, s *syntax.For) (int, flow) {
	b, ok := r.prog.Block(i)
	if !ok {
		return i + 1, flowNext
	}
	if s.Init != "" {
		if f := r.execSimple(r.prog.ClassifyClause(s.Pos(), s.Init)); f != flowNext {
			return b.Next, f
		}
	}
	for iter := 1; ; iter++ {
		if iter > 1 && !r.tick() {
			return b.Next, flowHalt
		}
		taken, known, label := r.test(s.Cond)
		if !known {
			r.record(s.Pos(), label, "loop condition could not be evaluated; leaving the loop")
			return b.Next, flowNext
		}
		if !taken {
			return b.Next, flowNext
		}
		r.record(s.Pos(), label, fmt.Sprintf("loop condition true, iteration %d", iter))
		if stop, f := r.loopBody(b); stop {
			return b.Next, f
		}
		if s.Post != "" {
			if f := r.execSimple(r.prog.ClassifyClause(s.Pos(), s.Post)); f != flowNext {
				return b.Next, f
			}
		}
	}
}

func (r *run) execForRange(i int, s *syntax.ForRange) (int, flow) {
	b, ok := r.prog.Block(i)
	if !ok {
		return i + 1, flowNext
	}
	bounds := make([]int64, 0, 3)
	for _, a := range s.Args {
		v, ok := r.eval(a)
		n, isInt := v.(int64)
		if !ok || !isInt {
			r.record(s.Pos(), "", fmt.Sprintf("range bound %q could not be evaluated; loop skipped", a))
			return b.Next, flowNext
		}
		bounds = append(bounds, n)
	}
	start, stop, step := int64(0), bounds[0], int64(1)
	if len(bounds) >= 2 {
		start, stop = bounds[0], bounds[1]
	}
	if len(bounds) == 3 {
		step = bounds[2]
	}
	if step == 0 {
		r.record(s.Pos(), "", "range step is zero; loop skipped")
		return b.Next, flowNext
	}
	iter := 0
	for v := start; (step > 0 && v < stop) || (step < 0 && v > stop); v += step {
		iter++
		if iter > 1 && !r.tick() {
			return b.Next, flowHalt
		}
		r.env.Set(s.Var, v)
		r.record(s.Pos(), fmt.Sprintf("%s = %d", s.Var, v), fmt.Sprintf("range iteration %d", iter))
		if stop, f := r.loopBody(b); stop {
			return b.Next, f
		}
	}
	return b.Next, flowNext
}

func (r *run) execForEach(i int, s *syntax.ForEach) (int, flow) {
	b, ok := r.prog.Block(i)
	if !ok {
		return i + 1, flowNext
	}
	v, ok := r.eval(s.Iterable)
	var items []model.Value
	switch x := v.(type) {
	case []model.Value:
		items = x
	case string:
		for _, ch := range x {
			items = append(items, string(ch))
		}
	default:
		ok = false
	}
	if !ok {
		r.record(s.Pos(), "", fmt.Sprintf("%q could not be evaluated as a sequence; loop skipped", s.Iterable))
		return b.Next, flowNext
	}
	for n, item := range items {
		if n > 0 && !r.tick() {
			return b.Next, flowHalt
		}
		if s.Indices {
			item = int64(n)
		}
		r.env.Set(s.Var, item)
		r.record(s.Pos(), fmt.Sprintf("%s = %s", s.Var, r.ev.Format(item)), fmt.Sprintf("element %d of %s", n+1, s.Iterable))
		if stop, f := r.loopBody(b); stop {
			return b.Next, f
		}
	}
	return b.Next, flowNext
}

// execFuncDef enters main for languages whose entry point it is and skips
// every other function body.
func (r *run) execFuncDef(i int, s *syntax.FuncDef) (int, flow) {
	b, ok := r.prog.Block(i)
	if !ok {
		return i + 1, flowNext
	}
	if r.rules.mainFunc && s.Name == "main" && len(r.frames) == 1 {
		r.frames[0].name = "main"
		r.record(s.Pos(), "", "program entry point")
		f := r.execRange(b.Start, b.End)
		if f == flowReturn {
			// returning from main ends the program
			r.halted = true
		}
		return b.Next, f
	}
	return b.Next, flowNext
}

// execCall inlines a call to a parameterless procedure defined in the
// program. Other calls have no traced effect.
func (r *run) execCall(s *syntax.Call) flow {
	idx, ok := r.funcs[s.Name]
	if !ok || len(s.Args) > 0 {
		return flowNext
	}
	fn := r.prog.Stmts[idx].(*syntax.FuncDef)
	b, ok := r.prog.Block(idx)
	if !ok || len(fn.Params) > 0 {
		return flowNext
	}
	if len(r.frames) > r.maxDepth {
		r.record(s.Pos(), "", fmt.Sprintf("call to %s() not followed: depth limit %d reached", s.Name, r.maxDepth))
		return flowNext
	}
	caller := r.env
	r.env = caller.Child()
	r.frames = append(r.frames, frame{name: s.Name, scope: r.env, callLine: s.Pos().No})
	r.record(s.Pos(), "", fmt.Sprintf("calling %s()", s.Name))
	f := r.execRange(b.Start, b.End)
	if f == flowHalt {
		// keep the callee scope so final variables show where the run stopped
		return flowHalt
	}
	r.frames = r.frames[:len(r.frames)-1]
	r.env = caller
	return flowNext
}
