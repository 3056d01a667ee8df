package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"tracelens/internal/model"
)

type builtinFunc func(e *Evaluator, args []model.Value) (model.Value, error)

// builtins is the closed set of pure functions every dialect may call.
var builtins map[string]builtinFunc

func init() {
	builtins = map[string]builtinFunc{
		"len":        builtinLen,
		"abs":        builtinAbs,
		"min":        builtinMinMax(-1),
		"max":        builtinMinMax(1),
		"str":        builtinStr,
		"String":     builtinStr,
		"to_string":  builtinStr,
		"int":        builtinInt,
		"parseInt":   builtinInt,
		"stoi":       builtinInt,
		"float":      builtinFloat,
		"parseFloat": builtinFloat,
		"Number":     builtinFloat,
		"stod":       builtinFloat,
		"pow":        builtinPow,
		"sqrt":       builtinSqrt,
		"sum":        builtinSum,
		"std::max":   builtinMinMax(1),
		"std::min":   builtinMinMax(-1),
		"std::abs":   builtinAbs,
		"Math.max":   builtinMinMax(1),
		"Math.min":   builtinMinMax(-1),
		"Math.abs":   builtinAbs,
		"Math.pow":   builtinPow,
		"Math.sqrt":  builtinSqrt,
		"Math.floor": builtinRound(math.Floor),
		"Math.ceil":  builtinRound(math.Ceil),
		"Math.round": builtinRound(func(f float64) float64 { return math.Floor(f + 0.5) }),
		"Math.trunc": builtinRound(math.Trunc),
	}
}

func builtinLen(_ *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errUnknown
	}
	return length(args[0])
}

func builtinAbs(_ *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errUnknown
	}
	n, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	if i, ok := n.(int64); ok {
		if i < 0 {
			return -i, nil
		}
		return i, nil
	}
	return math.Abs(n.(float64)), nil
}

func builtinMinMax(sign int) builtinFunc {
	return func(_ *Evaluator, args []model.Value) (model.Value, error) {
		if len(args) == 1 {
			if list, ok := args[0].([]model.Value); ok {
				args = list
			}
		}
		if len(args) == 0 {
			return nil, errUnknown
		}
		best := args[0]
		for _, v := range args[1:] {
			less, err := compare("<", v, best)
			if err != nil {
				return nil, err
			}
			if (sign < 0 && less) || (sign > 0 && !less && !looseEqual(v, best)) {
				best = v
			}
		}
		return best, nil
	}
}

func builtinStr(e *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errUnknown
	}
	return e.Format(args[0]), nil
}

func builtinInt(_ *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, errUnknown
	}
	switch x := args[0].(type) {
	case int64:
		return x, nil
	case float64:
		return int64(math.Trunc(x)), nil
	case bool:
		return toNumber(x)
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUnknown, err)
		}
		return n, nil
	}
	return nil, errUnknown
}

func builtinFloat(_ *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errUnknown
	}
	switch x := args[0].(type) {
	case int64:
		return float64(x), nil
	case float64:
		return x, nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errUnknown, err)
		}
		return f, nil
	}
	return nil, errUnknown
}

func builtinPow(e *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 2 {
		return nil, errUnknown
	}
	return e.binaryOp("**", args[0], args[1])
}

func builtinSqrt(_ *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errUnknown
	}
	n, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	return math.Sqrt(asFloat(n)), nil
}

func builtinSum(e *Evaluator, args []model.Value) (model.Value, error) {
	if len(args) != 1 {
		return nil, errUnknown
	}
	list, ok := args[0].([]model.Value)
	if !ok {
		return nil, errUnknown
	}
	var total model.Value = int64(0)
	for _, v := range list {
		var err error
		total, err = e.binaryOp("+", total, v)
		if err != nil {
			return nil, err
		}
	}
	return total, nil
}

func builtinRound(fn func(float64) float64) builtinFunc {
	return func(_ *Evaluator, args []model.Value) (model.Value, error) {
		if len(args) != 1 {
			return nil, errUnknown
		}
		n, err := toNumber(args[0])
		if err != nil {
			return nil, err
		}
		return int64(fn(asFloat(n))), nil
	}
}
