package component

import (
	"fmt"
	"reflect"
	"sync"
)

// TypeRegistry resolves between a component type's registered name and its
// Go reflect.Type, standing in for the reflection-over-module-path lookup
// a dynamic language would do at decode time. Component authors register
// their type once, typically from an init() function, via the public
// ochre.Register.
type TypeRegistry struct {
	mu          sync.RWMutex
	nameToType  map[string]reflect.Type
	typeToName  map[reflect.Type]string
	constructor map[string]func() any
}

// NewTypeRegistry constructs an empty registry.
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{
		nameToType:  map[string]reflect.Type{},
		typeToName:  map[reflect.Type]string{},
		constructor: map[string]func() any{},
	}
}

// Register associates name with the type of sample and, if ctor is
// non-nil, with a zero-value constructor used by decode.
func (r *TypeRegistry) Register(name string, sample any, ctor func() any) error {
	t := reflect.TypeOf(sample)
	if t == nil {
		return fmt.Errorf("ochre: cannot register nil sample for %q", name)
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.nameToType[name]; ok && existing != t {
		return fmt.Errorf("ochre: component name %q already registered to %s", name, existing)
	}
	r.nameToType[name] = t
	r.typeToName[t] = name
	if ctor != nil {
		r.constructor[name] = ctor
	}
	return nil
}

// NameForType returns the registered name for the type behind self, if any.
func (r *TypeRegistry) NameForType(self any) (string, bool) {
	t := reflect.TypeOf(self)
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.typeToName[t]
	return name, ok
}

// New constructs a zero-value instance of the named component type.
func (r *TypeRegistry) New(name string) (any, bool) {
	r.mu.RLock()
	ctor, ok := r.constructor[name]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return ctor(), true
}

// Global is the process-wide registry used by pkg/ochre.Register and by
// the codec's decode path. A single process-wide instance mirrors the
// single Python process importing one module graph; tests that need
// isolation construct their own TypeRegistry directly.
var Global = NewTypeRegistry()
