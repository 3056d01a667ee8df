package sim

import (
	"tracelens/internal/expr"
	"tracelens/internal/model"
)

// Registry holds closed-form implementations of well-known functions,
// keyed by name and arity. When a program calls one of them with
// evaluable arguments the call is computed directly instead of traced.
type Registry struct {
	funcs map[string]map[int]expr.Func
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: map[string]map[int]expr.Func{}}
}

// Register adds fn under name and arity, replacing any previous entry.
func (r *Registry) Register(name string, arity int, fn expr.Func) {
	if r.funcs[name] == nil {
		r.funcs[name] = map[int]expr.Func{}
	}
	r.funcs[name][arity] = fn
}

// Lookup returns the function registered for name and arity.
func (r *Registry) Lookup(name string, arity int) (expr.Func, bool) {
	fn, ok := r.funcs[name][arity]
	return fn, ok
}

// Funcs exposes the registry to the expression evaluator. Each entry
// dispatches on the number of arguments.
func (r *Registry) Funcs() map[string]expr.Func {
	out := make(map[string]expr.Func, len(r.funcs))
	for name, byArity := range r.funcs {
		byArity := byArity
		out[name] = func(args []model.Value) (model.Value, bool) {
			fn, ok := byArity[len(args)]
			if !ok {
				return nil, false
			}
			return fn(args)
		}
	}
	return out
}

// DefaultRegistry holds factorial, Fibonacci, gcd, integer power and
// primality under their common spellings.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("factorial", 1, factorial)
	r.Register("fact", 1, factorial)
	r.Register("fib", 1, fibonacci)
	r.Register("fibonacci", 1, fibonacci)
	r.Register("gcd", 2, gcd)
	r.Register("power", 2, power)
	r.Register("isPrime", 1, isPrime)
	r.Register("is_prime", 1, isPrime)
	return r
}

func intArgs(args []model.Value) ([]int64, bool) {
	out := make([]int64, len(args))
	for i, a := range args {
		n, ok := a.(int64)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func factorial(args []model.Value) (model.Value, bool) {
	n, ok := intArgs(args)
	// 20! is the largest factorial that fits in 64 bits
	if !ok || n[0] < 0 || n[0] > 20 {
		return nil, false
	}
	result := int64(1)
	for i := int64(2); i <= n[0]; i++ {
		result *= i
	}
	return result, true
}

func fibonacci(args []model.Value) (model.Value, bool) {
	n, ok := intArgs(args)
	if !ok || n[0] < 0 || n[0] > 92 {
		return nil, false
	}
	a, b := int64(0), int64(1)
	for i := int64(0); i < n[0]; i++ {
		a, b = b, a+b
	}
	return a, true
}

func gcd(args []model.Value) (model.Value, bool) {
	n, ok := intArgs(args)
	if !ok {
		return nil, false
	}
	a, b := n[0], n[1]
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	return a, true
}

func power(args []model.Value) (model.Value, bool) {
	n, ok := intArgs(args)
	if !ok || n[1] < 0 {
		return nil, false
	}
	result, exact := expr.PowInt64(n[0], n[1])
	if !exact {
		return nil, false
	}
	return result, true
}

func isPrime(args []model.Value) (model.Value, bool) {
	n, ok := intArgs(args)
	if !ok {
		return nil, false
	}
	if n[0] < 2 {
		return false, true
	}
	for d := int64(2); d*d <= n[0]; d++ {
		if n[0]%d == 0 {
			return false, true
		}
	}
	return true, true
}
