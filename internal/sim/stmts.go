package sim

import (
	"fmt"
	"strings"

	"tracelens/internal/model"
	"tracelens/internal/syntax"
)

// execSimple runs a statement that has no nested body.
func (r *run) execSimple(st syntax.Stmt) flow {
	ln := st.Pos()
	switch s := st.(type) {
	case *syntax.Input:
		return r.execInput(s)
	case *syntax.Output:
		r.execOutput(s)
	case *syntax.Return:
		rationale := "return"
		if s.Value != "" {
			if v, ok := r.eval(s.Value); ok {
				rationale = "return " + r.ev.Format(v)
			} else {
				rationale = fmt.Sprintf("return %s (value unknown)", s.Value)
			}
		}
		r.record(ln, "", rationale)
		return flowReturn
	case *syntax.Break:
		r.record(ln, "", "break: leaving the loop")
		return flowBreak
	case *syntax.Continue:
		r.record(ln, "", "continue: next iteration")
		return flowContinue
	case *syntax.IncDec:
		if r.bump(s.Name, s.Op) {
			v, _ := r.env.Lookup(s.Name)
			r.record(ln, "", fmt.Sprintf("%s%s gives %s", s.Name, s.Op, r.ev.Format(v)))
		}
	case *syntax.Compound:
		r.execCompound(s)
	case *syntax.Assign:
		r.execAssign(s)
	case *syntax.Declare:
		r.execDeclare(s)
	case *syntax.IndexAssign:
		r.execIndexAssign(s)
	case *syntax.Append:
		r.execAppend(s)
	case *syntax.Delete:
		if r.env.Delete(s.Name) {
			r.record(ln, "", "deleted "+s.Name)
		}
	case *syntax.Call:
		return r.execCall(s)
	}
	return flowNext
}

func (r *run) unknown(ln syntax.Line, what string) {
	r.record(ln, "", fmt.Sprintf("could not evaluate %s; value left unchanged", what))
}

func (r *run) bind(name string, v model.Value) {
	if t, ok := r.types[name]; ok {
		v = coerce(t, v)
	}
	r.env.Set(name, v)
}

func (r *run) execAssign(s *syntax.Assign) {
	ln := s.Pos()
	values := make([]model.Value, 0, len(s.Values))
	for _, src := range s.Values {
		v, ok := r.eval(src)
		if !ok {
			r.unknown(ln, fmt.Sprintf("%q", src))
			return
		}
		values = append(values, v)
	}
	if len(s.Targets) > 1 && len(values) == 1 {
		list, ok := values[0].([]model.Value)
		if !ok || len(list) != len(s.Targets) {
			r.unknown(ln, "the unpacked value")
			return
		}
		values = list
	}
	parts := make([]string, len(s.Targets))
	for i, t := range s.Targets {
		r.bind(t, values[i])
		cur, _ := r.env.Lookup(t)
		parts[i] = t + " = " + r.ev.Format(cur)
	}
	r.record(ln, "", "assigned "+strings.Join(parts, ", "))
}

func (r *run) execCompound(s *syntax.Compound) {
	old, ok := r.env.Lookup(s.Name)
	if !ok {
		return
	}
	// an operand that cannot be evaluated leaves the statement a no-op
	v, ok := r.eval(fmt.Sprintf("(%s) %s (%s)", s.Name, s.Op, s.Value))
	if !ok {
		return
	}
	r.bind(s.Name, v)
	cur, _ := r.env.Lookup(s.Name)
	r.record(s.Pos(), "", fmt.Sprintf("%s: %s -> %s", s.Name, r.ev.Format(old), r.ev.Format(cur)))
}

func (r *run) execDeclare(s *syntax.Declare) {
	var parts []string
	for _, d := range s.Declarators {
		if r.rules.typed {
			r.types[d.Name] = s.Type
		}
		v, note, ok := r.declValue(s.Type, d)
		if !ok {
			if note != "" {
				parts = append(parts, note)
			}
			continue
		}
		r.env.Define(d.Name, v)
		parts = append(parts, d.Name+" = "+r.ev.Format(v))
	}
	if len(parts) > 0 {
		r.record(s.Pos(), "", "declared "+strings.Join(parts, ", "))
	}
}

// declValue computes the initial value of a declarator. ok is false when
// the name stays unbound; note then explains why, if worth reporting.
func (r *run) declValue(typ string, d syntax.Declarator) (model.Value, string, bool) {
	if d.Array {
		n := int64(-1)
		if d.Size != "" {
			v, ok := r.eval(d.Size)
			size, isInt := v.(int64)
			if !ok || !isInt || size < 0 {
				return nil, d.Name + " has an unknown size", false
			}
			n = size
		}
		fill := zeroOf(typ)
		if d.Fill != "" {
			v, ok := r.eval(d.Fill)
			if !ok {
				return nil, d.Name + " has an unknown fill value", false
			}
			fill = v
		}
		var list []model.Value
		if d.Value != "" {
			v, ok := r.eval(d.Value)
			if !ok {
				return nil, d.Name + " has an unknown initializer", false
			}
			list, ok = v.([]model.Value)
			if !ok {
				return nil, d.Name + " has a non-list initializer", false
			}
		}
		for int64(len(list)) < n {
			list = append(list, model.CloneValue(fill))
		}
		if list == nil {
			list = []model.Value{}
		}
		return list, "", true
	}
	if d.Value == "" {
		switch {
		case !r.rules.typed:
			// let x; binds undefined
			return nil, "", true
		case isStringType(typ):
			return "", "", true
		case classify(typ) == typeList:
			return []model.Value{}, "", true
		}
		return nil, "", false
	}
	v, ok := r.eval(d.Value)
	if !ok {
		return nil, fmt.Sprintf("%s: could not evaluate %q", d.Name, d.Value), false
	}
	return coerce(typ, v), "", true
}

func (r *run) execIndexAssign(s *syntax.IndexAssign) {
	ln := s.Pos()
	cur, ok := r.env.Lookup(s.Name)
	list, isList := cur.([]model.Value)
	if !ok || !isList {
		r.unknown(ln, s.Name+"["+s.Index+"]")
		return
	}
	iv, ok1 := r.eval(s.Index)
	val, ok2 := r.eval(s.Value)
	idx, isInt := iv.(int64)
	if !ok1 || !ok2 || !isInt {
		r.unknown(ln, s.Name+"["+s.Index+"]")
		return
	}
	if idx < 0 {
		idx += int64(len(list))
	}
	if idx < 0 || idx >= int64(len(list)) {
		r.record(ln, "", fmt.Sprintf("index %s out of range for %s; value left unchanged", r.ev.Format(iv), s.Name))
		return
	}
	updated := model.CloneValue(list).([]model.Value)
	if t, ok := r.types[s.Name]; ok {
		val = coerce(elementType(t), val)
	}
	updated[idx] = val
	r.env.Set(s.Name, updated)
	r.record(ln, "", fmt.Sprintf("%s[%d] = %s", s.Name, idx, r.ev.Format(val)))
}

func (r *run) execAppend(s *syntax.Append) {
	cur, ok := r.env.Lookup(s.Name)
	list, isList := cur.([]model.Value)
	v, ok2 := r.eval(s.Value)
	if !ok || !isList || !ok2 {
		r.unknown(s.Pos(), "the appended value")
		return
	}
	updated := append(model.CloneValue(list).([]model.Value), v)
	r.env.Set(s.Name, updated)
	r.record(s.Pos(), "", fmt.Sprintf("appended %s to %s", r.ev.Format(v), s.Name))
}
