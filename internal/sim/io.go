package sim

import (
	"fmt"
	"strings"

	"tracelens/internal/model"
	"tracelens/internal/syntax"
)

func (r *run) execInput(s *syntax.Input) flow {
	ln := s.Pos()
	exhausted := func() flow {
		return r.fail(fmt.Errorf("line %d: read %q failed: %w", ln.No, ln.Text, ErrInputExhausted))
	}
	var parts []string
	switch {
	case s.All:
		if r.in.Remaining() == 0 {
			return exhausted()
		}
		var list []model.Value
		for _, tok := range r.in.Rest() {
			v, err := r.convert(s.Targets[0], tok, s.Conv)
			if err != nil {
				return r.fail(fmt.Errorf("line %d: %w", ln.No, err))
			}
			list = append(list, v)
		}
		r.env.Set(s.Targets[0], list)
		parts = append(parts, s.Targets[0]+" = "+r.ev.Format(list))
	case s.Split:
		tok, ok := r.in.Next()
		if !ok {
			return exhausted()
		}
		fields := strings.Fields(tok)
		if len(fields) < len(s.Targets) {
			return exhausted()
		}
		for i, t := range s.Targets {
			v, err := r.convert(t, fields[i], s.Conv)
			if err != nil {
				return r.fail(fmt.Errorf("line %d: %w", ln.No, err))
			}
			r.bind(t, v)
			parts = append(parts, t+" = "+r.ev.Format(v))
		}
	default:
		for _, t := range s.Targets {
			tok, ok := r.in.Next()
			if !ok {
				return exhausted()
			}
			v, err := r.convert(t, tok, s.Conv)
			if err != nil {
				return r.fail(fmt.Errorf("line %d: %w", ln.No, err))
			}
			r.bind(t, v)
			cur, _ := r.env.Lookup(t)
			parts = append(parts, t+" = "+r.ev.Format(cur))
		}
	}
	r.record(ln, "", "read input: "+strings.Join(parts, ", "))
	return flowNext
}

func (r *run) execOutput(s *syntax.Output) {
	var text string
	if s.Printf {
		args := make([]model.Value, len(s.Parts))
		for i, p := range s.Parts {
			args[i] = r.outputValue(p)
		}
		text = r.ev.Printf(s.Format, args)
	} else {
		sep := ""
		if s.Sep != "" {
			if v, ok := r.eval(s.Sep); ok {
				sep = r.ev.Format(v)
			}
		}
		parts := make([]string, 0, len(s.Parts))
		for _, p := range s.Parts {
			if p == "endl" || p == "std::endl" {
				parts = append(parts, "\n")
				continue
			}
			parts = append(parts, r.ev.Format(r.outputValue(p)))
		}
		text = strings.Join(parts, sep)
		if r.lang == model.LangPython {
			end := "\n"
			if s.End != "" {
				if v, ok := r.eval(s.End); ok {
					end = r.ev.Format(v)
				}
			}
			text += end
		}
	}
	r.acc.Print(text, s.Newline && r.lang != model.LangPython)
	shown := strings.TrimRight(text, "\n")
	r.record(s.Pos(), "", fmt.Sprintf("output %q", shown))
}

// outputValue evaluates a printed expression, falling back to its source
// text when it cannot be evaluated.
func (r *run) outputValue(src string) model.Value {
	if v, ok := r.eval(src); ok {
		return v
	}
	return src
}
