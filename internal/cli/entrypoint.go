package cli

import (
	"fmt"
	"reflect"
)

// callEntrypoint invokes the zero-argument method named entrypoint on
// component, the Go substitute for Python's getattr(component, name)().
// A method returning a single error value has that error propagated; any
// other signature is called for side effects only.
func callEntrypoint(component any, entrypoint string) error {
	v := reflect.ValueOf(component)
	m := v.MethodByName(entrypoint)
	if !m.IsValid() {
		return fmt.Errorf("no method %q on %T", entrypoint, component)
	}
	if m.Type().NumIn() != 0 {
		return fmt.Errorf("method %q must take no arguments", entrypoint)
	}
	results := m.Call(nil)
	if len(results) == 1 {
		if err, ok := results[0].Interface().(error); ok {
			return err
		}
	}
	return nil
}
