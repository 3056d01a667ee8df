// Package cfg derives a control-flow graph from source text using the same
// line catalogue as the simulator.
package cfg

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"tracelens/internal/model"
	"tracelens/internal/syntax"
)

const (
	StartID = "start"
	EndID   = "end"

	maxLabel = 40
)

// Edge annotations.
const (
	AnnotLoopBack    = "loop back"
	AnnotContinue    = "continue"
	AnnotBreak       = "break"
	AnnotReturn      = "return"
	AnnotFallthrough = "fallthrough"
)

// exit is an edge whose source is known but whose target is the next node
// to be created.
type exit struct {
	from string
	cond string
}

// construct is an entry on the control-construct stack. Only loops need to
// be found again: continue jumps back to them and break leaves them.
type construct struct {
	node   string
	breaks []exit
}

// Builder builds graphs. It holds configuration only.
type Builder struct {
	logger *zap.Logger
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger for debug diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build derives the graph of source with the default builder.
func Build(source string, lang model.Language) model.Graph {
	return NewBuilder().Build(source, lang)
}

// build is the state of one graph construction.
type build struct {
	prog  *syntax.Program
	graph model.Graph
	seq   int
	stack []construct
}

// Build derives the graph of source. It never fails: unrecognized lines
// become process nodes and unbalanced blocks extend to the end of the file.
func (b *Builder) Build(source string, lang model.Language) model.Graph {
	st := &build{prog: syntax.Parse(source, lang)}
	st.graph.Nodes = append(st.graph.Nodes, model.Node{ID: StartID, Kind: model.NodeStart, Label: "start"})

	open := st.walk(0, st.prog.Len(), []exit{{from: StartID}})

	st.graph.Nodes = append(st.graph.Nodes, model.Node{
		ID:         EndID,
		Kind:       model.NodeEnd,
		Label:      "end",
		SourceLine: st.prog.LastLine(),
	})
	st.join(open, EndID, "")
	st.finalize()

	b.logger.Debug("graph built",
		zap.String("language", string(st.prog.Language)),
		zap.Int("nodes", len(st.graph.Nodes)),
		zap.Int("edges", len(st.graph.Edges)))
	return st.graph
}

func (st *build) node(ln syntax.Line, kind model.NodeKind, label string) string {
	st.seq++
	id := fmt.Sprintf("node-%d", st.seq)
	st.graph.Nodes = append(st.graph.Nodes, model.Node{
		ID:         id,
		SourceLine: ln.No,
		Kind:       kind,
		Label:      truncate(label),
	})
	return id
}

func (st *build) edge(from, to, cond, annot string) {
	st.graph.Edges = append(st.graph.Edges, model.Edge{Source: from, Target: to, Condition: cond, Annotation: annot})
}

// join connects every pending exit to target.
func (st *build) join(exits []exit, target, annot string) {
	for _, x := range exits {
		st.edge(x.from, target, x.cond, annot)
	}
}

// step adds a process node reached from the pending exits.
func (st *build) step(in []exit, ln syntax.Line) []exit {
	id := st.node(ln, model.NodeProcess, ln.Text)
	st.join(in, id, "")
	return []exit{{from: id}}
}

// walk builds the statements in [start, end), entered from in, and returns
// the exits left open at the end of the range. A range that ends in a
// jump returns no exits.
func (st *build) walk(start, end int, in []exit) []exit {
	for i := start; i < end; {
		next, out := st.stmt(i, in)
		in = out
		i = next
	}
	return in
}

func (st *build) stmt(i int, in []exit) (int, []exit) {
	s := st.prog.Stmts[i]
	ln := s.Pos()
	blk, hasBlock := st.prog.Block(i)

	switch s := s.(type) {
	case *syntax.OpenBrace, *syntax.CloseBrace, *syntax.Directive:
		return i + 1, in
	case *syntax.If:
		return st.chain(i, in)
	case *syntax.ElseIf, *syntax.Else:
		// a branch without a preceding if: treat the header as plain code
		out := st.step(in, ln)
		if hasBlock {
			return blk.Next, st.walk(blk.Start, blk.End, out)
		}
		return i + 1, out
	case *syntax.While, *syntax.For, *syntax.ForRange, *syntax.ForEach:
		if !hasBlock {
			return i + 1, st.step(in, ln)
		}
		return blk.Next, st.loop(blk, ln, in)
	case *syntax.FuncDef:
		out := st.step(in, ln)
		if !hasBlock {
			return i + 1, out
		}
		if st.entry(s) {
			return blk.Next, st.walk(blk.Start, blk.End, out)
		}
		// bodies of other functions run only when called
		return blk.Next, out
	case *syntax.MainGuard:
		if !hasBlock {
			return i + 1, st.step(in, ln)
		}
		return blk.Next, st.guard(blk, ln, in)
	case *syntax.Return:
		out := st.step(in, ln)
		st.join(out, EndID, AnnotReturn)
		return i + 1, nil
	case *syntax.Break:
		out := st.step(in, ln)
		if len(st.stack) == 0 {
			return i + 1, out
		}
		top := &st.stack[len(st.stack)-1]
		top.breaks = append(top.breaks, out...)
		return i + 1, nil
	case *syntax.Continue:
		out := st.step(in, ln)
		if len(st.stack) == 0 {
			return i + 1, out
		}
		st.join(out, st.stack[len(st.stack)-1].node, AnnotContinue)
		return i + 1, nil
	case *syntax.Unknown:
		out := st.step(in, ln)
		if hasBlock {
			return blk.Next, out
		}
		return i + 1, out
	}
	return i + 1, st.step(in, ln)
}

// entry reports whether a function body is part of the program's top-level
// flow.
func (st *build) entry(fn *syntax.FuncDef) bool {
	return st.prog.Language == model.LangCPP && fn.Name == "main"
}

// chain builds an if statement with its else-if and else branches. Each
// condition is a decision node; its false edge leads to the next condition
// or, when there is no else, out of the construct.
func (st *build) chain(i int, in []exit) (int, []exit) {
	end := st.prog.ChainEnd(i)
	var out []exit
	for j := i; j < end; {
		s := st.prog.Stmts[j]
		blk, ok := st.prog.Block(j)
		if !ok {
			in = st.step(in, s.Pos())
			break
		}
		if _, isElse := s.(*syntax.Else); isElse {
			out = append(out, st.walk(blk.Start, blk.End, in)...)
			in = nil
			break
		}
		id := st.node(s.Pos(), model.NodeDecision, condLabel(s))
		st.join(in, id, "")
		out = append(out, st.walk(blk.Start, blk.End, []exit{{from: id, cond: model.CondTrue}})...)
		in = []exit{{from: id, cond: model.CondFalse}}
		j = blk.Next
	}
	return end, append(out, in...)
}

func (st *build) loop(blk syntax.Block, ln syntax.Line, in []exit) []exit {
	id := st.node(ln, model.NodeLoop, ln.Text)
	st.join(in, id, "")

	st.stack = append(st.stack, construct{node: id})
	body := st.walk(blk.Start, blk.End, []exit{{from: id, cond: model.CondTrue}})
	top := st.stack[len(st.stack)-1]
	st.stack = st.stack[:len(st.stack)-1]

	st.join(body, id, AnnotLoopBack)
	return append([]exit{{from: id, cond: model.CondFalse}}, top.breaks...)
}

func (st *build) guard(blk syntax.Block, ln syntax.Line, in []exit) []exit {
	id := st.node(ln, model.NodeDecision, "__name__ == \"__main__\"")
	st.join(in, id, "")
	body := st.walk(blk.Start, blk.End, []exit{{from: id, cond: model.CondTrue}})
	return append(body, exit{from: id, cond: model.CondFalse})
}

// finalize routes every dead end to the end node, gives each decision and
// loop node both branches, and flags nodes nothing can reach.
func (st *build) finalize() {
	g := &st.graph
	for _, n := range g.Nodes {
		if n.ID == EndID {
			continue
		}
		out := g.Outgoing(n.ID)
		switch n.Kind {
		case model.NodeDecision, model.NodeLoop:
			var hasTrue, hasFalse bool
			for _, e := range out {
				hasTrue = hasTrue || e.Condition == model.CondTrue
				hasFalse = hasFalse || e.Condition == model.CondFalse
			}
			if !hasTrue {
				st.edge(n.ID, EndID, model.CondTrue, AnnotFallthrough)
			}
			if !hasFalse {
				st.edge(n.ID, EndID, model.CondFalse, AnnotFallthrough)
			}
		default:
			if len(out) == 0 {
				st.edge(n.ID, EndID, "", AnnotFallthrough)
			}
		}
	}

	reached := map[string]bool{StartID: true}
	queue := []string{StartID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Outgoing(id) {
			if !reached[e.Target] {
				reached[e.Target] = true
				queue = append(queue, e.Target)
			}
		}
	}
	for i := range g.Nodes {
		if !reached[g.Nodes[i].ID] {
			g.Nodes[i].Unreachable = true
		}
	}
}

func condLabel(s syntax.Stmt) string {
	switch s := s.(type) {
	case *syntax.If:
		return s.Cond
	case *syntax.ElseIf:
		return s.Cond
	}
	return s.Pos().Text
}

func truncate(label string) string {
	label = strings.Join(strings.Fields(label), " ")
	r := []rune(label)
	if len(r) <= maxLabel {
		return label
	}
	return string(r[:maxLabel-3]) + "..."
}
