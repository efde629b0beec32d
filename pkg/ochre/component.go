// Package ochre is the public API of the component deployment engine:
// the Component/Lifecycle contract a component author implements, the
// type and symbol registries used in place of dynamic imports, and the
// orchestration entry points (Apply, Destroy) that drive the planner and
// executor.
package ochre

import (
	"fmt"
	"sync"

	"github.com/blythed/ochre/internal/component"
)

// FieldDescriptor describes one user-declared field: its engine-visible
// name, current value, whether it belongs to the breaks set, and its
// declared default.
type FieldDescriptor = component.FieldDescriptor

// Component is the contract every user-defined component type satisfies,
// normally by embedding Base and tagging its fields with `ochre:"..."`.
type Component interface {
	Identifier() string
	ComponentName() string
	Fields() []FieldDescriptor
}

// Lifecycle holds the four hooks the executor invokes. Any subset may be
// left as Base's no-op defaults.
type Lifecycle interface {
	Read() error
	Create() error
	Update() error
	Delete() error
}

// CronComponent is implemented by components that want a recurring
// scheduled re-apply; its absence means "not scheduled."
type CronComponent interface {
	Cron() string
}

// ExampleComponent is implemented by components that support the `test`
// CLI verb's smoke test.
type ExampleComponent interface {
	BuildExample() (Component, error)
}

// Base provides the bookkeeping every component needs: identifier storage,
// reflection-driven field enumeration, and lazily-computed identity/content
// hashes. Embed it by value and call Init from the type's constructor.
type Base struct {
	self       Component
	identifier string

	mu       sync.Mutex
	computed bool
	uuid     string
	hash     string
}

// Init must be called once, typically from a constructor function, with
// self set to the outer component value (so reflection walks the concrete
// type's fields, not Base's own empty struct).
func (b *Base) Init(self Component, identifier string) {
	b.self = self
	b.identifier = identifier
}

// Identifier returns the identifier passed to Init.
func (b *Base) Identifier() string { return b.identifier }

// SetIdentifier overwrites the identifier and invalidates the cached
// identity hashes. The decoder calls this after constructing a zero-value
// instance through the type registry, which has no way to pass the
// persisted identifier through the registered zero-arg constructor.
func (b *Base) SetIdentifier(identifier string) {
	b.mu.Lock()
	b.identifier = identifier
	b.computed = false
	b.mu.Unlock()
}

// ComponentName returns the name this component's Go type was registered
// under via Register. Calling it before registration returns "" and is a
// programmer error the registry surfaces when the component is saved.
func (b *Base) ComponentName() string {
	if b.self == nil {
		return ""
	}
	name, _ := component.Global.NameForType(b.self)
	return name
}

// Fields reflects over the concrete struct behind self (set by Init) and
// returns one descriptor per `ochre`-tagged field.
func (b *Base) Fields() []FieldDescriptor {
	if b.self == nil {
		return nil
	}
	fields, err := component.Introspect(b.self)
	if err != nil {
		return nil
	}
	return fields
}

// Read, Create, Update, Delete are no-op defaults; a component overrides
// only the hooks it needs.
func (b *Base) Read() error   { return nil }
func (b *Base) Create() error { return nil }
func (b *Base) Update() error { return nil }
func (b *Base) Delete() error { return nil }

// Uuid returns the component's identity hash, computed from its breaks-set
// fields. The result is cached after the first call; call InvalidateHash
// after mutating a field directly (bypassing a setter) to force recompute.
func (b *Base) Uuid() string {
	b.ensureComputed()
	return b.uuid
}

// Hash returns the component's full content hash.
func (b *Base) Hash() string {
	b.ensureComputed()
	return b.hash
}

// InvalidateHash forces the next Uuid/Hash call to recompute from the
// current field values, for callers that mutate a component outside of
// its own setter methods.
func (b *Base) InvalidateHash() {
	b.mu.Lock()
	b.computed = false
	b.mu.Unlock()
}

func (b *Base) ensureComputed() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.computed {
		return
	}
	fields := b.Fields()
	tree, breaksTree := component.Trees(fields)
	b.uuid, b.hash = component.Identity(b.ComponentName(), b.identifier, tree, breaksTree)
	b.computed = true
}

// Huuid returns the component identity string
// "{component}/{identifier}/{uuid}" (a job's Huuid appends ".{method}").
func (b *Base) Huuid() string {
	return fmt.Sprintf("%s/%s/%s", b.ComponentName(), b.Identifier(), b.Uuid())
}

// Register associates name with the Go type of sample, and with a zero
// value constructor for that type, so the codec can resolve "widget" back
// to a *Widget{} without a dynamic module import. Call it once per
// component type, typically from an init().
func Register[T Component](name string, zero func() T) error {
	var sample T = zero()
	return component.Global.Register(name, sample, func() any { return zero() })
}
