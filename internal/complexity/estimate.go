// Package complexity estimates time and space classes from lexical patterns:
// loop nesting, self-recursion and allocations. The results are estimates,
// not proofs.
package complexity

import (
	"fmt"
	"regexp"
	"strings"

	"tracelens/internal/model"
	"tracelens/internal/syntax"
)

// Option configures an estimate.
type Option func(*options)

type options struct {
	lang  model.Language
	trace model.Trace
}

// WithLanguage fixes the source language instead of detecting it.
func WithLanguage(lang model.Language) Option {
	return func(o *options) { o.lang = lang }
}

// WithTrace attaches a simulated run whose length is reported alongside the
// lexical estimate.
func WithTrace(t model.Trace) Option {
	return func(o *options) { o.trace = t }
}

var (
	reStrings   = regexp.MustCompile(`"(?:[^"\\]|\\.)*"|'(?:[^'\\]|\\.)*'|` + "`[^`]*`")
	reBranch    = regexp.MustCompile(`\b(?:if|elif|while|for|switch|case|catch|except)\b`)
	reDecrement = regexp.MustCompile(`\b\w+\s*-\s*1\b`)
	reAlloc     = regexp.MustCompile(`\bnew\s+\w|\bmalloc\s*\(|\bcalloc\s*\(|\b(?:vector|deque|list|map|set|unordered_map)\s*<|` +
		`\bArray\s*\(|\b(?:list|dict|set)\s*\(|\.(?:push_back|emplace_back|push|append)\s*\(|=\s*\[|=\s*\{\s*\}`)
)

// recursion describes the strongest self-call pattern found.
type recursion struct {
	fn        string
	found     bool
	doubling  bool
	decrement bool
}

// Estimate derives a complexity summary from source.
func Estimate(source string, opts ...Option) model.ComplexitySummary {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lang == "" {
		o.lang = syntax.Detect(source)
	}
	prog := syntax.Parse(source, o.lang)

	depth := loopDepth(prog)
	rec := findRecursion(prog)
	sum := model.ComplexitySummary{
		LoopNestingDepth:     depth,
		HasRecursion:         rec.found,
		CyclomaticComplexity: cyclomatic(prog),
	}

	switch {
	case rec.found && rec.doubling:
		sum.EstimatedTimeClass = model.ClassExponential
		sum.Notes = append(sum.Notes, fmt.Sprintf("%s calls itself more than once per call", rec.fn))
	case rec.found && rec.decrement:
		sum.EstimatedTimeClass = model.ClassLinear
		sum.Notes = append(sum.Notes, fmt.Sprintf("%s recurses on a value reduced by one", rec.fn))
	case rec.found:
		sum.EstimatedTimeClass = model.ClassLogarithmic
		sum.Notes = append(sum.Notes, fmt.Sprintf("%s recurses; assuming the input shrinks geometrically", rec.fn))
	default:
		sum.EstimatedTimeClass = model.Polynomial(depth)
		if depth > 0 {
			sum.Notes = append(sum.Notes, fmt.Sprintf("deepest loop nest is %d", depth))
		} else {
			sum.Notes = append(sum.Notes, "no loops or recursion")
		}
	}

	switch {
	case rec.found:
		sum.EstimatedSpaceClass = model.ClassLinear
		sum.Notes = append(sum.Notes, "recursion uses stack space per call")
	case allocates(prog):
		sum.EstimatedSpaceClass = model.ClassLinear
		sum.Notes = append(sum.Notes, "allocates a list or array")
	default:
		sum.EstimatedSpaceClass = model.ClassConstant
	}

	if len(o.trace) > 0 {
		sum.ObservedSteps = len(o.trace)
		sum.Notes = append(sum.Notes, fmt.Sprintf("the simulated run took %d steps", len(o.trace)))
	}
	return sum
}

// loopDepth is the deepest nesting of loop bodies.
func loopDepth(p *syntax.Program) int {
	enclosing := make([]int, p.Len())
	for i, st := range p.Stmts {
		if !syntax.IsLoop(st) {
			continue
		}
		if b, ok := p.Block(i); ok {
			for j := b.Start; j < b.End; j++ {
				enclosing[j]++
			}
		}
	}
	depth := 0
	for i, st := range p.Stmts {
		if syntax.IsLoop(st) && enclosing[i]+1 > depth {
			depth = enclosing[i] + 1
		}
	}
	return depth
}

func findRecursion(p *syntax.Program) recursion {
	var best recursion
	for name, idx := range p.Functions() {
		b, ok := p.Block(idx)
		if !ok {
			continue
		}
		call := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\s*\(`)
		r := recursion{fn: name}
		for j := b.Start; j < b.End; j++ {
			text := reStrings.ReplaceAllString(p.Stmts[j].Pos().Text, `""`)
			locs := call.FindAllStringIndex(text, -1)
			if len(locs) == 0 {
				continue
			}
			r.found = true
			if len(locs) > 1 {
				r.doubling = true
			}
			for _, loc := range locs {
				if reDecrement.MatchString(argsAt(text, loc[1])) {
					r.decrement = true
				}
			}
		}
		if rk := rank(r); rk > rank(best) || rk > 0 && rk == rank(best) && name < best.fn {
			best = r
		}
	}
	return best
}

// rank orders recursion patterns by the class they imply.
func rank(r recursion) int {
	switch {
	case !r.found:
		return 0
	case r.doubling:
		return 3
	case r.decrement:
		return 2
	}
	return 1
}

// argsAt returns the argument text of the call whose opening parenthesis
// ends at open.
func argsAt(text string, open int) string {
	depth := 1
	for i := open; i < len(text); i++ {
		switch text[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return text[open:i]
			}
		}
	}
	return text[open:]
}

func cyclomatic(p *syntax.Program) int {
	n := 1
	for _, st := range p.Stmts {
		text := reStrings.ReplaceAllString(st.Pos().Text, `""`)
		n += len(reBranch.FindAllString(text, -1))
	}
	return n
}

func allocates(p *syntax.Program) bool {
	for _, st := range p.Stmts {
		text := strings.TrimSpace(st.Pos().Text)
		if reAlloc.MatchString(text) {
			return true
		}
		if d, ok := st.(*syntax.Declare); ok {
			for _, dc := range d.Declarators {
				if dc.Array {
					return true
				}
			}
		}
	}
	return false
}
