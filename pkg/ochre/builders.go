package ochre

import (
	"fmt"
	"sync"
)

// Builder constructs a fully-populated root component ready to apply: the
// Go substitute for the CLI resolving a module and calling its pipeline
// function (`getattr(mod, pipeline_name)()`). Register one per deployable
// pipeline, typically from an init(), and reference it from the CLI with
// --build <name>.
type Builder func() (Component, error)

var (
	buildersMu sync.RWMutex
	builders   = map[string]Builder{}
)

// RegisterBuilder associates name with fn.
func RegisterBuilder(name string, fn Builder) error {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	if _, exists := builders[name]; exists {
		return fmt.Errorf("ochre: builder %q already registered", name)
	}
	builders[name] = fn
	return nil
}

// ResolveBuilder returns the builder registered under name.
func ResolveBuilder(name string) (Builder, bool) {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	b, ok := builders[name]
	return b, ok
}

// BuilderNames lists every registered builder name, for CLI help text.
func BuilderNames() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	out := make([]string, 0, len(builders))
	for name := range builders {
		out = append(out, name)
	}
	return out
}
