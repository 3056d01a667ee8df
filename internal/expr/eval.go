// Package expr evaluates the restricted arithmetic, boolean and string
// expressions that appear on the right-hand side of simulated statements.
//
// Identifiers are resolved against a Scope and calls are limited to a closed
// set of pure builtins plus any functions injected by the caller, so no
// arbitrary code can ever be executed. Every failure collapses to "unknown":
// Eval returns ok == false and the caller leaves its state untouched.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"tracelens/internal/model"
)

// Scope resolves identifiers to their current values.
type Scope interface {
	Lookup(name string) (model.Value, bool)
}

// MapScope adapts a plain map to Scope.
type MapScope map[string]model.Value

// Lookup implements Scope.
func (m MapScope) Lookup(name string) (model.Value, bool) {
	v, ok := m[name]
	return v, ok
}

// Func is a pure function callable from expressions.
type Func func(args []model.Value) (model.Value, bool)

// Dialect captures the language-specific operator semantics.
type Dialect struct {
	Name         string
	IntDivision  bool // "/" truncates toward zero when both operands are integers
	FloorDivOp   bool // "//" is floor division rather than a syntax error
	FloorModulo  bool // "%" takes the sign of the divisor
	LooseConcat  bool // "+" with one string operand concatenates
	ValueLogic   bool // "and"/"or" yield an operand instead of a bool
	ChainCompare bool // a < b < c means a < b and b < c
	Overflow     Overflow
}

// Overflow selects what integer arithmetic does when a result leaves the
// int64 range.
type Overflow int

const (
	OverflowUnknown Overflow = iota // arbitrary-precision integers; result is unknown
	OverflowWrap                    // fixed-width two's complement
	OverflowFloat                   // a single double-precision number type
)

// The three supported dialects.
var (
	CFamily = Dialect{
		Name:        "cpp",
		IntDivision: true,
		Overflow:    OverflowWrap,
	}
	Python = Dialect{
		Name:         "python",
		FloorDivOp:   true,
		FloorModulo:  true,
		ValueLogic:   true,
		ChainCompare: true,
	}
	JavaScript = Dialect{
		Name:        "javascript",
		LooseConcat: true,
		ValueLogic:  true,
		Overflow:    OverflowFloat,
	}
)

// DialectFor returns the dialect for a language tag.
func DialectFor(lang model.Language) Dialect {
	switch lang {
	case model.LangPython:
		return Python
	case model.LangJavaScript:
		return JavaScript
	}
	return CFamily
}

var errUnknown = errors.New("unknown value")

// Evaluator evaluates expressions under one dialect. It holds no per-run
// state and is safe for concurrent use once constructed.
type Evaluator struct {
	dialect Dialect
	funcs   map[string]Func
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFuncs registers additional pure functions, keyed by call name.
func WithFuncs(funcs map[string]Func) Option {
	return func(e *Evaluator) {
		for name, fn := range funcs {
			e.funcs[name] = fn
		}
	}
}

// New creates an Evaluator for the given dialect.
func New(d Dialect, opts ...Option) *Evaluator {
	e := &Evaluator{dialect: d, funcs: make(map[string]Func)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dialect returns the evaluator's dialect.
func (e *Evaluator) Dialect() Dialect {
	return e.dialect
}

// Evaluate evaluates an expression with the C-family dialect and no extra
// functions.
func Evaluate(src string, scope Scope) (model.Value, bool) {
	return New(CFamily).Eval(src, scope)
}

// Eval evaluates src against scope. ok is false when the expression contains
// disallowed characters, unbound identifiers, unknown calls, or fails to
// evaluate (type errors, division by zero, index out of range).
func (e *Evaluator) Eval(src string, scope Scope) (val model.Value, ok bool) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, false
	}
	n, err := parse(src)
	if err != nil {
		return nil, false
	}
	v, err := e.eval(n, scope)
	if err != nil {
		return nil, false
	}
	return v, true
}

func (e *Evaluator) eval(n node, scope Scope) (model.Value, error) {
	switch x := n.(type) {
	case *literal:
		return x.val, nil
	case *identRef:
		if scope != nil {
			if v, ok := scope.Lookup(x.name); ok {
				return model.CloneValue(v), nil
			}
		}
		return nil, fmt.Errorf("%w: unbound %s", errUnknown, x.name)
	case *listLit:
		out := make([]model.Value, 0, len(x.items))
		for _, item := range x.items {
			v, err := e.eval(item, scope)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case *unary:
		v, err := e.eval(x.x, scope)
		if err != nil {
			return nil, err
		}
		return e.unaryOp(x.op, v)
	case *binary:
		l, err := e.eval(x.l, scope)
		if err != nil {
			return nil, err
		}
		r, err := e.eval(x.r, scope)
		if err != nil {
			return nil, err
		}
		return e.binaryOp(x.op, l, r)
	case *logical:
		l, err := e.eval(x.l, scope)
		if err != nil {
			return nil, err
		}
		lt := Truthy(l)
		if (x.op == "and" && !lt) || (x.op == "or" && lt) {
			if e.dialect.ValueLogic {
				return l, nil
			}
			return lt, nil
		}
		r, err := e.eval(x.r, scope)
		if err != nil {
			return nil, err
		}
		if e.dialect.ValueLogic {
			return r, nil
		}
		return Truthy(r), nil
	case *chain:
		return e.evalChain(x, scope)
	case *indexExpr:
		base, err := e.eval(x.x, scope)
		if err != nil {
			return nil, err
		}
		idx, err := e.eval(x.idx, scope)
		if err != nil {
			return nil, err
		}
		return index(base, idx)
	case *member:
		base, err := e.eval(x.x, scope)
		if err != nil {
			return nil, err
		}
		if x.name == "length" {
			return length(base)
		}
		return nil, fmt.Errorf("%w: member %s", errUnknown, x.name)
	case *methodCall:
		base, err := e.eval(x.x, scope)
		if err != nil {
			return nil, err
		}
		args, err := e.evalArgs(x.args, scope)
		if err != nil {
			return nil, err
		}
		return method(base, x.name, args)
	case *call:
		args, err := e.evalArgs(x.args, scope)
		if err != nil {
			return nil, err
		}
		if fn, ok := e.funcs[x.name]; ok {
			if v, ok := fn(args); ok {
				return v, nil
			}
			return nil, fmt.Errorf("%w: %s failed", errUnknown, x.name)
		}
		if fn, ok := builtins[x.name]; ok {
			return fn(e, args)
		}
		return nil, fmt.Errorf("%w: call %s", errUnknown, x.name)
	case *interp:
		var sb strings.Builder
		for _, part := range x.parts {
			if !part.isExpr {
				sb.WriteString(part.text)
				continue
			}
			v, ok := e.Eval(part.expr, scope)
			if !ok {
				return nil, fmt.Errorf("%w: interpolation %s", errUnknown, part.expr)
			}
			sb.WriteString(e.formatSpec(v, part.format))
		}
		return sb.String(), nil
	}
	return nil, errUnknown
}

func (e *Evaluator) evalArgs(nodes []node, scope Scope) ([]model.Value, error) {
	args := make([]model.Value, 0, len(nodes))
	for _, a := range nodes {
		v, err := e.eval(a, scope)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

func (e *Evaluator) evalChain(c *chain, scope Scope) (model.Value, error) {
	left, err := e.eval(c.operands[0], scope)
	if err != nil {
		return nil, err
	}
	if !e.dialect.ChainCompare {
		// left-to-right fold: (a < b) < c
		for i, op := range c.ops {
			right, err := e.eval(c.operands[i+1], scope)
			if err != nil {
				return nil, err
			}
			res, err := compare(op, left, right)
			if err != nil {
				return nil, err
			}
			left = res
		}
		return left, nil
	}
	for i, op := range c.ops {
		right, err := e.eval(c.operands[i+1], scope)
		if err != nil {
			return nil, err
		}
		res, err := compare(op, left, right)
		if err != nil {
			return nil, err
		}
		if !res {
			return false, nil
		}
		left = right
	}
	return true, nil
}

// Truthy reports the boolean interpretation of a value shared by all three
// languages: zero, empty and null are false.
func Truthy(v model.Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int64:
		return x != 0
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	case []model.Value:
		return len(x) > 0
	}
	return true
}

func (e *Evaluator) unaryOp(op string, v model.Value) (model.Value, error) {
	switch op {
	case "!":
		return !Truthy(v), nil
	case "+":
		if _, ok := v.(string); ok {
			return nil, errUnknown
		}
		return toNumber(v)
	case "-":
		n, err := toNumber(v)
		if err != nil {
			return nil, err
		}
		if i, ok := n.(int64); ok {
			return -i, nil
		}
		return -n.(float64), nil
	}
	return nil, errUnknown
}

// toNumber converts bools to integers and rejects non-numeric values.
func toNumber(v model.Value) (model.Value, error) {
	switch x := v.(type) {
	case int64, float64:
		return x, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	}
	return nil, fmt.Errorf("%w: not a number", errUnknown)
}

func asFloat(v model.Value) float64 {
	switch x := v.(type) {
	case int64:
		return float64(x)
	case float64:
		return x
	}
	return 0
}

func (e *Evaluator) binaryOp(op string, l, r model.Value) (model.Value, error) {
	if op == "+" {
		if v, ok := e.concat(l, r); ok {
			return v, nil
		}
	}
	if op == "*" {
		if v, ok := repeat(l, r); ok {
			return v, nil
		}
	}
	ln, err := toNumber(l)
	if err != nil {
		return nil, err
	}
	rn, err := toNumber(r)
	if err != nil {
		return nil, err
	}
	li, lInt := ln.(int64)
	ri, rInt := rn.(int64)
	bothInt := lInt && rInt
	lf, rf := asFloat(ln), asFloat(rn)

	switch op {
	case "+":
		if bothInt {
			return e.intResult(li+ri, addOK(li, ri, li+ri), lf+rf)
		}
		return lf + rf, nil
	case "-":
		if bothInt {
			return e.intResult(li-ri, subOK(li, ri, li-ri), lf-rf)
		}
		return lf - rf, nil
	case "*":
		if bothInt {
			p, ok := mulInt64(li, ri)
			return e.intResult(p, ok, lf*rf)
		}
		return lf * rf, nil
	case "/":
		if rf == 0 {
			return nil, fmt.Errorf("%w: division by zero", errUnknown)
		}
		if bothInt && e.dialect.IntDivision {
			return li / ri, nil
		}
		q := lf / rf
		if bothInt && !e.dialect.FloorDivOp && q == math.Trunc(q) {
			// ECMAScript has a single number type; keep whole results integral
			return int64(q), nil
		}
		return q, nil
	case "//":
		if !e.dialect.FloorDivOp {
			return nil, fmt.Errorf("%w: // not supported", errUnknown)
		}
		if rf == 0 {
			return nil, fmt.Errorf("%w: division by zero", errUnknown)
		}
		if bothInt {
			return floorDiv(li, ri), nil
		}
		return math.Floor(lf / rf), nil
	case "%":
		if rf == 0 {
			return nil, fmt.Errorf("%w: modulo by zero", errUnknown)
		}
		if bothInt {
			m := li % ri
			if e.dialect.FloorModulo && m != 0 && (m < 0) != (ri < 0) {
				m += ri
			}
			return m, nil
		}
		m := math.Mod(lf, rf)
		if e.dialect.FloorModulo && m != 0 && (m < 0) != (rf < 0) {
			m += rf
		}
		return m, nil
	case "**":
		if bothInt && ri >= 0 {
			p, ok := PowInt64(li, ri)
			return e.intResult(p, ok, math.Pow(lf, rf))
		}
		return math.Pow(lf, rf), nil
	}
	return nil, fmt.Errorf("%w: operator %s", errUnknown, op)
}

func (e *Evaluator) concat(l, r model.Value) (model.Value, bool) {
	ls, lStr := l.(string)
	rs, rStr := r.(string)
	switch {
	case lStr && rStr:
		return ls + rs, true
	case lStr && e.dialect.LooseConcat:
		return ls + e.Format(r), true
	case rStr && e.dialect.LooseConcat:
		return e.Format(l) + rs, true
	}
	ll, lList := l.([]model.Value)
	rl, rList := r.([]model.Value)
	if lList && rList && !e.dialect.LooseConcat {
		out := append(model.CloneValue(ll).([]model.Value), model.CloneValue(rl).([]model.Value)...)
		return out, true
	}
	return nil, false
}

func repeat(l, r model.Value) (model.Value, bool) {
	s, ok := l.(string)
	n, nok := r.(int64)
	if !ok || !nok {
		s, ok = r.(string)
		n, nok = l.(int64)
	}
	if !ok || !nok || n < 0 || n > 10000 {
		return nil, false
	}
	return strings.Repeat(s, int(n)), true
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// intResult applies the dialect's overflow rule to an integer operation.
// wrapped is the two's complement result, ok reports that it is exact and
// asFloat is the same operation carried out in float64.
func (e *Evaluator) intResult(wrapped int64, ok bool, asFloat float64) (model.Value, error) {
	if ok {
		return wrapped, nil
	}
	switch e.dialect.Overflow {
	case OverflowWrap:
		return wrapped, nil
	case OverflowFloat:
		return asFloat, nil
	}
	return nil, fmt.Errorf("%w: integer overflow", errUnknown)
}

func addOK(a, b, sum int64) bool {
	return (a >= 0) != (b >= 0) || (sum >= 0) == (a >= 0)
}

func subOK(a, b, diff int64) bool {
	return (a >= 0) == (b >= 0) || (diff >= 0) == (a >= 0)
}

// mulInt64 returns the wrapped product and whether it is exact.
func mulInt64(a, b int64) (int64, bool) {
	p := a * b
	if a == 0 || b == 0 {
		return p, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return p, false
	}
	return p, p/b == a
}

// PowInt64 raises base to a non-negative exponent by squaring. It returns
// the wrapped result and whether it is exact.
func PowInt64(base, exp int64) (int64, bool) {
	result, exact := int64(1), true
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			result, ok = mulInt64(result, base)
			exact = exact && ok
		}
		exp >>= 1
		if exp > 0 {
			base, ok = mulInt64(base, base)
			exact = exact && ok
		}
	}
	return result, exact
}

func compare(op string, l, r model.Value) (bool, error) {
	switch op {
	case "==", "===":
		return looseEqual(l, r), nil
	case "!=", "!==":
		return !looseEqual(l, r), nil
	case "in", "not in":
		found, err := contains(r, l)
		if err != nil {
			return false, err
		}
		if op == "in" {
			return found, nil
		}
		return !found, nil
	}
	var c int
	ls, lStr := l.(string)
	rs, rStr := r.(string)
	switch {
	case lStr && rStr:
		c = strings.Compare(ls, rs)
	case lStr || rStr:
		return false, fmt.Errorf("%w: mixed comparison", errUnknown)
	default:
		ln, err := toNumber(l)
		if err != nil {
			return false, err
		}
		rn, err := toNumber(r)
		if err != nil {
			return false, err
		}
		lf, rf := asFloat(ln), asFloat(rn)
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, fmt.Errorf("%w: operator %s", errUnknown, op)
}

// looseEqual treats numbers of different representations as equal (1 == 1.0)
// and compares everything else structurally.
func looseEqual(l, r model.Value) bool {
	ln, lerr := toNumber(l)
	rn, rerr := toNumber(r)
	_, lBool := l.(bool)
	_, rBool := r.(bool)
	if lerr == nil && rerr == nil && lBool == rBool {
		return asFloat(ln) == asFloat(rn)
	}
	return model.ValuesEqual(l, r)
}

func contains(container, item model.Value) (bool, error) {
	switch c := container.(type) {
	case []model.Value:
		for _, v := range c {
			if looseEqual(v, item) {
				return true, nil
			}
		}
		return false, nil
	case string:
		s, ok := item.(string)
		if !ok {
			return false, errUnknown
		}
		return strings.Contains(c, s), nil
	}
	return false, fmt.Errorf("%w: not a container", errUnknown)
}

func index(base, idx model.Value) (model.Value, error) {
	i, ok := idx.(int64)
	if !ok {
		return nil, fmt.Errorf("%w: non-integer index", errUnknown)
	}
	switch b := base.(type) {
	case []model.Value:
		if i < 0 {
			i += int64(len(b))
		}
		if i < 0 || i >= int64(len(b)) {
			return nil, fmt.Errorf("%w: index out of range", errUnknown)
		}
		return model.CloneValue(b[i]), nil
	case string:
		if i < 0 {
			i += int64(len(b))
		}
		if i < 0 || i >= int64(len(b)) {
			return nil, fmt.Errorf("%w: index out of range", errUnknown)
		}
		return string(b[i]), nil
	}
	return nil, fmt.Errorf("%w: not indexable", errUnknown)
}

func length(v model.Value) (model.Value, error) {
	switch x := v.(type) {
	case []model.Value:
		return int64(len(x)), nil
	case string:
		return int64(len(x)), nil
	}
	return nil, fmt.Errorf("%w: no length", errUnknown)
}

func method(base model.Value, name string, args []model.Value) (model.Value, error) {
	switch name {
	case "size", "length":
		if len(args) == 0 {
			return length(base)
		}
	case "upper", "toUpperCase":
		if s, ok := base.(string); ok && len(args) == 0 {
			return strings.ToUpper(s), nil
		}
	case "lower", "toLowerCase":
		if s, ok := base.(string); ok && len(args) == 0 {
			return strings.ToLower(s), nil
		}
	case "strip", "trim":
		if s, ok := base.(string); ok && len(args) == 0 {
			return strings.TrimSpace(s), nil
		}
	case "at":
		if len(args) == 1 {
			return index(base, args[0])
		}
	case "includes":
		if len(args) == 1 {
			return contains(base, args[0])
		}
	case "count":
		if list, ok := base.([]model.Value); ok && len(args) == 1 {
			n := int64(0)
			for _, v := range list {
				if looseEqual(v, args[0]) {
					n++
				}
			}
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: method %s", errUnknown, name)
}
