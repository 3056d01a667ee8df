package sim

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"tracelens/internal/model"
)

type typeClass int

const (
	typeOther typeClass = iota
	typeInt
	typeFloat
	typeBool
	typeChar
	typeString
	typeList
)

var reQualifiers = regexp.MustCompile(`\b(?:const|static|signed|std::)\s*|[*&]`)

// classify reduces a declared C-family type to the class that decides
// conversions.
func classify(typ string) typeClass {
	t := strings.TrimSpace(reQualifiers.ReplaceAllString(typ, ""))
	switch {
	case strings.Contains(t, "<") || strings.HasSuffix(t, "[]"):
		return typeList
	case t == "string":
		return typeString
	case t == "bool":
		return typeBool
	case t == "char":
		return typeChar
	case strings.Contains(t, "double") || strings.Contains(t, "float"):
		return typeFloat
	case strings.Contains(t, "int") || strings.Contains(t, "long") || strings.Contains(t, "short") ||
		strings.Contains(t, "unsigned") || t == "size_t":
		return typeInt
	}
	return typeOther
}

func isStringType(typ string) bool {
	return classify(typ) == typeString
}

// elementType returns the element type of a sequence type such as
// vector<int>; scalar array types are returned unchanged.
func elementType(typ string) string {
	if i := strings.IndexByte(typ, '<'); i >= 0 {
		if j := strings.LastIndexByte(typ, '>'); j > i {
			return typ[i+1 : j]
		}
	}
	return typ
}

func zeroOf(typ string) model.Value {
	switch classify(elementType(typ)) {
	case typeFloat:
		return 0.0
	case typeString:
		return ""
	case typeBool:
		return false
	case typeList:
		return []model.Value{}
	}
	return int64(0)
}

// coerce converts v to a declared type the way an assignment would.
func coerce(typ string, v model.Value) model.Value {
	switch classify(typ) {
	case typeInt:
		switch x := v.(type) {
		case float64:
			return int64(math.Trunc(x))
		case bool:
			if x {
				return int64(1)
			}
			return int64(0)
		}
	case typeFloat:
		if x, ok := v.(int64); ok {
			return float64(x)
		}
	case typeBool:
		switch x := v.(type) {
		case int64:
			return x != 0
		case float64:
			return x != 0
		}
	}
	return v
}

var reLeadingInt = regexp.MustCompile(`^\s*[-+]?\d+`)

// convert turns a stdin token into the value bound to target.
func (r *run) convert(target, tok, conv string) (model.Value, error) {
	switch conv {
	case "str":
		return tok, nil
	case "int":
		if r.lang == model.LangJavaScript {
			// parseInt reads a leading integer and yields NaN otherwise
			m := reLeadingInt.FindString(tok)
			if m == "" {
				return nil, nil
			}
			n, _ := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
			return n, nil
		}
		n, err := strconv.ParseInt(strings.TrimSpace(tok), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid literal for int(): %q", tok)
		}
		return n, nil
	case "float":
		f, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return nil, fmt.Errorf("could not convert string to float: %q", tok)
		}
		return f, nil
	case "number":
		f, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return nil, nil
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
		return f, nil
	}
	if typ, ok := r.types[target]; ok {
		return convertTyped(typ, tok), nil
	}
	return inferToken(tok), nil
}

// convertTyped mimics stream extraction into a declared variable: a token
// that does not parse yields the type's zero value.
func convertTyped(typ, tok string) model.Value {
	switch classify(typ) {
	case typeInt:
		if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return n
		}
		if m := reLeadingInt.FindString(tok); m != "" {
			n, _ := strconv.ParseInt(strings.TrimSpace(m), 10, 64)
			return n
		}
		return int64(0)
	case typeFloat:
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return f
		}
		return 0.0
	case typeBool:
		return tok == "1" || tok == "true"
	case typeChar:
		if tok == "" {
			return ""
		}
		return tok[:1]
	case typeString:
		return tok
	}
	return inferToken(tok)
}

func inferToken(tok string) model.Value {
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(tok, 64); err == nil {
		return f
	}
	return tok
}
