package ochre

import (
	"github.com/blythed/ochre/internal/codec"
)

// RegisterSymbol associates name with a callable value so that a component
// field holding fn can be encoded as ":import:name" and later resolved
// back to the same function value, the Go substitute for importing a
// function by its module path.
func RegisterSymbol(name string, fn any) error {
	return codec.Global.Register(name, fn)
}

// RegisterBlobType tells the codec's opaque-value form about a concrete
// type that will travel through a component field whose static type is
// `any`. Required once per such type, from an init(), because gob (unlike
// Python's dill) needs the concrete type registered ahead of decode time.
func RegisterBlobType(sample any) {
	codec.RegisterBlobType(sample)
}
