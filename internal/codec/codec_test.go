package codec

import (
	"testing"

	"github.com/blythed/ochre/internal/component"
)

type fakeComponent struct {
	id     string
	name   string
	fields []component.FieldDescriptor
}

func (f *fakeComponent) Identifier() string                       { return f.id }
func (f *fakeComponent) ComponentName() string                    { return f.name }
func (f *fakeComponent) Fields() []component.FieldDescriptor       { return f.fields }

func TestEncodePrimitiveFields(t *testing.T) {
	c := &fakeComponent{
		id:   "a",
		name: "widget",
		fields: []component.FieldDescriptor{
			{Name: "count", Value: 3},
			{Name: "label", Value: "x"},
		},
	}
	out, err := Encode(c)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if out["component"] != "widget" || out["identifier"] != "a" {
		t.Fatalf("unexpected metadata: %+v", out)
	}
	if out["count"] != 3 || out["label"] != "x" {
		t.Fatalf("unexpected fields: %+v", out)
	}
}

func TestEncodeNestedComponentProducesReferenceAndBuild(t *testing.T) {
	child := &fakeComponent{id: "child-1", name: "leaf", fields: []component.FieldDescriptor{{Name: "v", Value: 1}}}
	parent := &fakeComponent{
		id:   "parent-1",
		name: "branch",
		fields: []component.FieldDescriptor{
			{Name: "child", Value: Component(child)},
		},
	}
	out, err := Encode(parent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	ref, ok := out["child"].(string)
	if !ok || ref != "?leaf:child-1" {
		t.Fatalf("expected reference ?leaf:child-1, got %#v", out["child"])
	}
	builds := out["_builds"].(map[string]any)
	if _, ok := builds["leaf:child-1"]; !ok {
		t.Fatalf("expected builds to contain leaf:child-1: %+v", builds)
	}
}

func TestEncodeNestedComponentsOfDifferentTypesSharingIdentifierDoNotCollide(t *testing.T) {
	leafA := &fakeComponent{id: "shared", name: "leaf-a", fields: []component.FieldDescriptor{{Name: "v", Value: 1}}}
	leafB := &fakeComponent{id: "shared", name: "leaf-b", fields: []component.FieldDescriptor{{Name: "v", Value: 2}}}
	parent := &fakeComponent{
		id:   "parent-1",
		name: "branch",
		fields: []component.FieldDescriptor{
			{Name: "a", Value: Component(leafA)},
			{Name: "b", Value: Component(leafB)},
		},
	}
	out, err := Encode(parent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	builds := out["_builds"].(map[string]any)
	a, ok := builds["leaf-a:shared"].(map[string]any)
	if !ok {
		t.Fatalf("expected builds to contain leaf-a:shared: %+v", builds)
	}
	b, ok := builds["leaf-b:shared"].(map[string]any)
	if !ok {
		t.Fatalf("expected builds to contain leaf-b:shared: %+v", builds)
	}
	if a["v"] != 1 || b["v"] != 2 {
		t.Fatalf("expected distinct build entries, got a=%+v b=%+v", a, b)
	}
}

func TestEncodeDecodeBlobRoundTrip(t *testing.T) {
	type opaque struct{ N int }
	RegisterBlobType(opaque{})
	s, err := encodeBlob(opaque{N: 7})
	if err != nil {
		t.Fatalf("encodeBlob: %v", err)
	}
	got, err := decodeBlob(s)
	if err != nil {
		t.Fatalf("decodeBlob: %v", err)
	}
	o, ok := got.(opaque)
	if !ok || o.N != 7 {
		t.Fatalf("unexpected round trip: %#v", got)
	}
}
