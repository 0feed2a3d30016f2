package runtime

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/scorex"
)

// Environment binds variable names to values. The zero value and nil are
// valid empty environments.
//
// Environments are frames linked to a parent frame. The outermost frame holds
// a table of initial bindings, inner frames hold a single binding each.
// Frames are never modified after construction, thus environments may be
// shared between goroutines.
type Environment struct {
	Name   string // optional name for debugging
	table  map[string]Value
	bound  bool   // inner frame with a single binding
	name   string
	value  Value
	parent *Environment
}

// NewEnvironment creates an environment from a set of bindings. The map is copied.
func NewEnvironment(vars map[string]Value) *Environment {
	env := &Environment{table: make(map[string]Value, len(vars))}
	for k, v := range vars {
		env.table[k] = v
	}
	return env
}

// EnvironmentFrom creates an environment from Go values, see FromInterface.
func EnvironmentFrom(vars map[string]interface{}) (*Environment, error) {
	env := &Environment{table: make(map[string]Value, len(vars))}
	for k, x := range vars {
		v, err := FromInterface(x)
		if err != nil {
			tracer().Debugf("cannot bind variable %s: %v", k, err)
			return nil, scorex.WrapError(scorex.TypeMismatch, err, "variable %s", k)
		}
		env.table[k] = v
	}
	return env, nil
}

// WithVariable returns a new environment with an additional binding, which shadows
// any binding with the same name in env. env itself is not changed.
func (env *Environment) WithVariable(name string, v Value) *Environment {
	return &Environment{Name: env.frameName(), bound: true, name: name, value: v, parent: env}
}

// Lookup finds the value bound to a name.
func (env *Environment) Lookup(name string) (Value, bool) {
	for e := env; e != nil; e = e.parent {
		if e.table != nil {
			v, ok := e.table[name]
			return v, ok
		}
		if e.bound && e.name == name {
			return e.value, true
		}
	}
	return Value{}, false
}

// Names returns the sorted names of all bindings.
func (env *Environment) Names() []string {
	names := env.nameSet()
	r := make([]string, 0, names.Size())
	for _, n := range names.Values() {
		r = append(r, n.(string))
	}
	return r
}

// Len returns the number of distinct names bound.
func (env *Environment) Len() int {
	return env.nameSet().Size()
}

// Bindings returns all visible bindings as a map. The map is a copy.
func (env *Environment) Bindings() map[string]Value {
	m := make(map[string]Value)
	for _, n := range env.Names() {
		m[n], _ = env.Lookup(n)
	}
	return m
}

func (env *Environment) nameSet() *treeset.Set {
	names := treeset.NewWithStringComparator()
	for e := env; e != nil; e = e.parent {
		for k := range e.table {
			names.Add(k)
		}
		if e.bound {
			names.Add(e.name)
		}
	}
	return names
}

func (env *Environment) frameName() string {
	if env == nil {
		return ""
	}
	return env.Name
}

func (env *Environment) String() string {
	if env == nil {
		return "<env>"
	}
	return fmt.Sprintf("<env %s %v>", env.Name, env.Names())
}
