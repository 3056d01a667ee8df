package sim

import (
	"tracelens/internal/model"
)

// Env is a scoped variable environment. Lookups walk parent scopes; a
// called procedure runs in a child scope that is discarded on return.
type Env struct {
	vars   map[string]model.Value
	parent *Env
}

// NewEnv creates an environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{vars: map[string]model.Value{}, parent: parent}
}

// Child creates a scope whose parent is e.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Parent returns the enclosing scope, or nil for the root.
func (e *Env) Parent() *Env {
	return e.parent
}

// Lookup finds name in this scope or any parent.
func (e *Env) Lookup(name string) (model.Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Has reports whether name is bound in any visible scope.
func (e *Env) Has(name string) bool {
	_, ok := e.Lookup(name)
	return ok
}

// Set updates the nearest existing binding of name, or binds it in this
// scope when none exists.
func (e *Env) Set(name string, v model.Value) {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			s.vars[name] = v
			return
		}
	}
	e.vars[name] = v
}

// Define binds name in this scope, shadowing any outer binding.
func (e *Env) Define(name string, v model.Value) {
	e.vars[name] = v
}

// Delete removes the nearest binding of name.
func (e *Env) Delete(name string) bool {
	for s := e; s != nil; s = s.parent {
		if _, ok := s.vars[name]; ok {
			delete(s.vars, name)
			return true
		}
	}
	return false
}

// Local returns a deep copy of the bindings held directly by this scope.
func (e *Env) Local() map[string]model.Value {
	return model.CloneVars(e.vars)
}

// Snapshot returns a deep copy of every visible binding, inner scopes
// shadowing outer ones.
func (e *Env) Snapshot() map[string]model.Value {
	var chain []*Env
	for s := e; s != nil; s = s.parent {
		chain = append(chain, s)
	}
	out := map[string]model.Value{}
	for i := len(chain) - 1; i >= 0; i-- {
		for k, v := range chain[i].vars {
			out[k] = model.CloneValue(v)
		}
	}
	return out
}
