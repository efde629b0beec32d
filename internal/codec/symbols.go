package codec

import (
	"fmt"
	"reflect"
	"sync"
)

// SymbolTable is the Go substitute for dynamic module+attribute import: a
// process-wide name-to-value map that the codec consults to turn a
// registered function or class value into a `:import:name` reference and
// back. Component authors register callables they intend to store as
// field values (e.g. a retry policy, a parser function) from an init().
type SymbolTable struct {
	mu       sync.RWMutex
	byName   map[string]any
	byValue  map[reflect.Value]string
}

// NewSymbolTable constructs an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{byName: map[string]any{}, byValue: map[reflect.Value]string{}}
}

// Register associates name with value. Re-registering the same name to an
// equal value is a no-op; registering it to a different value is an error,
// mirroring the registry's duplicate-registration guard.
func (s *SymbolTable) Register(name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.byName[name]; ok {
		if reflect.ValueOf(existing).Pointer() == reflect.ValueOf(value).Pointer() {
			return nil
		}
		return fmt.Errorf("ochre: symbol %q already registered", name)
	}
	s.byName[name] = value
	s.byValue[reflect.ValueOf(value)] = name
	return nil
}

// Resolve returns the value registered under name.
func (s *SymbolTable) Resolve(name string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byName[name]
	return v, ok
}

// NameOf returns the registered name for value, if any symbol was
// registered with that exact function pointer.
func (s *SymbolTable) NameOf(value any) (string, bool) {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Func {
		return "", false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, name := range s.byValue {
		if k.Pointer() == rv.Pointer() {
			return name, true
		}
	}
	return "", false
}

// Global is the process-wide symbol table used when callers do not supply
// their own, mirroring component.Global.
var Global = NewSymbolTable()
