package planner

import (
	"reflect"

	"github.com/blythed/ochre/internal/component"
)

// Component is the shape the planner needs from a node: identity,
// fields, and the two precomputed digests. Satisfied implicitly by any
// type embedding pkg/ochre.Base, so this package never imports pkg/ochre
// and stays free to be imported by it.
type Component interface {
	Identifier() string
	ComponentName() string
	Fields() []component.FieldDescriptor
	Uuid() string
	Hash() string
	Huuid() string
}

// ChildComponents walks fields depth-first (slices and maps included) and
// returns every nested value implementing Component, in field declaration
// order — the Go equivalent of the original's "get children with
// positions" traversal over dataclass containers.
func ChildComponents(fields []component.FieldDescriptor) []Component {
	var out []Component
	for _, f := range fields {
		collectChildren(f.Value, &out)
	}
	return out
}

func collectChildren(v any, out *[]Component) {
	if v == nil {
		return
	}
	if c, ok := v.(Component); ok {
		*out = append(*out, c)
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := v.([]byte); ok {
			return
		}
		for i := 0; i < rv.Len(); i++ {
			collectChildren(rv.Index(i).Interface(), out)
		}
	case reflect.Map:
		iter := rv.MapRange()
		for iter.Next() {
			collectChildren(iter.Value().Interface(), out)
		}
	case reflect.Ptr:
		if !rv.IsNil() {
			collectChildren(rv.Elem().Interface(), out)
		}
	}
}
