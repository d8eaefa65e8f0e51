// Package registry implements the name-to-function lookup table the
// dispatch engine resolves calls through.
//
// Grounded on compute/exec/functions/registry.go, adapted against
// kernel.Function instead of the teacher's compute.Function.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/coldispatch/coldispatch/kernel"
)

// FunctionRegistry maps function names (and aliases) to kernel.Function
// implementations. Safe for concurrent use.
type FunctionRegistry struct {
	nameToFunc sync.Map // string -> kernel.Function
}

func New() *FunctionRegistry {
	return &FunctionRegistry{}
}

// AddFunction registers fn under its own Name(). If allowOverwrite is
// false and a function is already registered under that name, an error
// is returned.
func (r *FunctionRegistry) AddFunction(fn kernel.Function, allowOverwrite bool) error {
	name := fn.Name()
	if !allowOverwrite {
		if _, exists := r.nameToFunc.Load(name); exists {
			return fmt.Errorf("registry: function %q already registered", name)
		}
	}
	r.nameToFunc.Store(name, fn)
	return nil
}

// AddAlias registers an additional name for an already-registered
// function.
func (r *FunctionRegistry) AddAlias(alias, target string) error {
	fn, err := r.GetFunction(target)
	if err != nil {
		return err
	}
	r.nameToFunc.Store(alias, fn)
	return nil
}

// GetFunction looks up a function by name.
func (r *FunctionRegistry) GetFunction(name string) (kernel.Function, error) {
	v, ok := r.nameToFunc.Load(name)
	if !ok {
		return nil, fmt.Errorf("registry: function %q not found", name)
	}
	return v.(kernel.Function), nil
}

// GetFunctionNames returns every registered name (including aliases),
// sorted.
func (r *FunctionRegistry) GetFunctionNames() []string {
	var names []string
	r.nameToFunc.Range(func(k, _ any) bool {
		names = append(names, k.(string))
		return true
	})
	sort.Strings(names)
	return names
}
