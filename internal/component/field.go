package component

// FieldDescriptor describes one user-declared field of a component: its
// engine-visible name, current value, whether it participates in the
// breaks tree, and its declared default.
type FieldDescriptor struct {
	Name       string
	Value      any
	Breaks     bool
	HasDefault bool
	Default    any
}
