package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tracelens/internal/model"
)

// Format renders a value the way the dialect's print statement would.
func (e *Evaluator) Format(v model.Value) string {
	return e.format(v, false)
}

func (e *Evaluator) format(v model.Value, nested bool) string {
	switch x := v.(type) {
	case nil:
		switch e.dialect.Name {
		case "python":
			return "None"
		case "javascript":
			return "null"
		}
		return "0"
	case bool:
		switch e.dialect.Name {
		case "python":
			if x {
				return "True"
			}
			return "False"
		case "javascript":
			return strconv.FormatBool(x)
		}
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return e.formatFloat(x)
	case string:
		if nested {
			if e.dialect.Name == "cpp" {
				return strconv.Quote(x)
			}
			return "'" + strings.ReplaceAll(x, "'", "\\'") + "'"
		}
		return x
	case []model.Value:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = e.format(item, true)
		}
		if e.dialect.Name == "javascript" {
			if len(parts) == 0 {
				return "[]"
			}
			return "[ " + strings.Join(parts, ", ") + " ]"
		}
		if e.dialect.Name == "cpp" {
			return "{" + strings.Join(parts, ", ") + "}"
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprintf("%v", v)
}

func (e *Evaluator) formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	switch e.dialect.Name {
	case "python":
		abs := math.Abs(f)
		if f == math.Trunc(f) && abs < 1e16 {
			return strconv.FormatFloat(f, 'f', 1, 64)
		}
		if abs >= 1e-4 && abs < 1e16 {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	case "javascript":
		if f == math.Trunc(f) && math.Abs(f) < 1e21 {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	// iostream default: six significant digits
	return strconv.FormatFloat(f, 'g', 6, 64)
}

// formatSpec applies a Python format spec such as ".2f" or "d".
func (e *Evaluator) formatSpec(v model.Value, spec string) string {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return e.Format(v)
	}
	if strings.HasPrefix(spec, ".") && strings.HasSuffix(spec, "f") {
		prec, err := strconv.Atoi(spec[1 : len(spec)-1])
		if n, nerr := toNumber(v); err == nil && nerr == nil {
			return strconv.FormatFloat(asFloat(n), 'f', prec, 64)
		}
	}
	if spec == "d" {
		if n, err := toNumber(v); err == nil {
			return strconv.FormatInt(int64(asFloat(n)), 10)
		}
	}
	return e.Format(v)
}

// Printf renders a C printf format string. Supported verbs: %d %i %u %ld
// %lld %s %c %f %.Nf %lf %g %x %%. Missing arguments render as the raw verb.
func (e *Evaluator) Printf(format string, args []model.Value) string {
	var sb strings.Builder
	argi := 0
	for i := 0; i < len(format); i++ {
		ch := format[i]
		if ch != '%' {
			sb.WriteByte(ch)
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			sb.WriteByte('%')
			i++
			continue
		}
		// %[flags][width][.prec][length]verb
		j := i + 1
		for j < len(format) && strings.IndexByte("-+ 0#", format[j]) >= 0 {
			j++
		}
		for j < len(format) && isDigit(format[j]) {
			j++
		}
		prec := -1
		if j < len(format) && format[j] == '.' {
			j++
			start := j
			for j < len(format) && isDigit(format[j]) {
				j++
			}
			prec, _ = strconv.Atoi(format[start:j])
		}
		for j < len(format) && strings.IndexByte("hlLqjzt", format[j]) >= 0 {
			j++
		}
		if j >= len(format) {
			sb.WriteString(format[i:])
			break
		}
		verb := format[j]
		spec := format[i : j+1]
		i = j
		if argi >= len(args) {
			sb.WriteString(spec)
			continue
		}
		arg := args[argi]
		argi++
		switch verb {
		case 'd', 'i', 'u':
			if n, err := toNumber(arg); err == nil {
				sb.WriteString(strconv.FormatInt(int64(asFloat(n)), 10))
				continue
			}
		case 'f', 'F', 'e', 'g':
			if n, err := toNumber(arg); err == nil {
				if prec < 0 {
					prec = 6
				}
				if verb == 'g' {
					sb.WriteString(strconv.FormatFloat(asFloat(n), 'g', -1, 64))
				} else {
					sb.WriteString(strconv.FormatFloat(asFloat(n), byte(verb|0x20), prec, 64))
				}
				continue
			}
		case 'x', 'X':
			if n, err := toNumber(arg); err == nil {
				s := strconv.FormatInt(int64(asFloat(n)), 16)
				if verb == 'X' {
					s = strings.ToUpper(s)
				}
				sb.WriteString(s)
				continue
			}
		case 'c':
			if n, ok := arg.(int64); ok {
				sb.WriteRune(rune(n))
				continue
			}
		}
		sb.WriteString(e.Format(arg))
	}
	return sb.String()
}

// Render substitutes every bound identifier in src with its current value,
// leaving the rest of the text untouched. Substitution is done on whole
// tokens, so a binding for "i" never rewrites part of "idx". Text that does
// not lex is returned unchanged.
func (e *Evaluator) Render(src string, scope Scope) string {
	toks, err := lex(src)
	if err != nil || scope == nil {
		return src
	}
	var sb strings.Builder
	last := 0
	for i, t := range toks {
		if t.typ != tokIdent {
			continue
		}
		// member names after a dot are not variables
		if i > 0 && toks[i-1].typ == tokDot {
			continue
		}
		if i+1 < len(toks) && toks[i+1].typ == tokLParen {
			continue
		}
		v, ok := scope.Lookup(t.value)
		if !ok {
			continue
		}
		sb.WriteString(src[last:t.pos])
		sb.WriteString(e.format(v, true))
		last = t.end
	}
	sb.WriteString(src[last:])
	return sb.String()
}
