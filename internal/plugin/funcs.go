package plugin

import (
	"fmt"
	"reflect"
	"sort"
	"text/template"
)

// FuncRegistry is the set of template-callable functions the renderer exposes.
// Names are unique: two plugins cannot silently shadow each other.
type FuncRegistry struct {
	funcs  map[string]any
	owners map[string]string
}

// NewFuncRegistry creates an empty function registry.
func NewFuncRegistry() *FuncRegistry {
	return &FuncRegistry{funcs: map[string]any{}, owners: map[string]string{}}
}

// Register adds fn under name on behalf of owner.
func (f *FuncRegistry) Register(owner, name string, fn any) error {
	if name == "" {
		return fmt.Errorf("template function from %s has no name", owner)
	}
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("template function %s from %s is not a function", name, owner)
	}
	if prev, exists := f.owners[name]; exists {
		return fmt.Errorf("template function %s from %s already registered by %s", name, owner, prev)
	}
	f.funcs[name] = fn
	f.owners[name] = owner
	return nil
}

// RegisterAll adds every function in funcs on behalf of owner.
func (f *FuncRegistry) RegisterAll(owner string, funcs map[string]any) error {
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := f.Register(owner, name, funcs[name]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the function registered under name.
func (f *FuncRegistry) Lookup(name string) (any, bool) {
	fn, ok := f.funcs[name]
	return fn, ok
}

// Names returns the registered function names, sorted.
func (f *FuncRegistry) Names() []string {
	names := make([]string, 0, len(f.funcs))
	for name := range f.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FuncMap returns a copy suitable for template.Funcs.
func (f *FuncRegistry) FuncMap() template.FuncMap {
	out := make(template.FuncMap, len(f.funcs))
	for k, v := range f.funcs {
		out[k] = v
	}
	return out
}
