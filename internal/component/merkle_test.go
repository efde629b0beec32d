package component

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestIdentityStableUnderFieldReorder(t *testing.T) {
	fieldsA := []FieldDescriptor{
		{Name: "a", Value: 1, Breaks: true},
		{Name: "b", Value: "x"},
	}
	fieldsB := []FieldDescriptor{
		{Name: "b", Value: "x"},
		{Name: "a", Value: 1, Breaks: true},
	}
	treeA, breaksA := Trees(fieldsA)
	treeB, breaksB := Trees(fieldsB)
	if diff := cmp.Diff(treeA, treeB); diff != "" {
		t.Fatalf("full tree must not depend on field declaration order (-a +b):\n%s", diff)
	}
	if diff := cmp.Diff(breaksA, breaksB); diff != "" {
		t.Fatalf("breaks tree must not depend on field declaration order (-a +b):\n%s", diff)
	}
	uuidA, hashA := Identity("widget", "id-1", treeA, breaksA)
	uuidB, hashB := Identity("widget", "id-1", treeB, breaksB)
	if uuidA != uuidB {
		t.Fatal("uuid must not depend on field declaration order")
	}
	if hashA != hashB {
		t.Fatal("hash must not depend on field declaration order")
	}
}

func TestIdentityChangesOnlyOnBreakingField(t *testing.T) {
	base := []FieldDescriptor{
		{Name: "a", Value: 1, Breaks: true},
		{Name: "b", Value: "x"},
	}
	changedNonBreaking := []FieldDescriptor{
		{Name: "a", Value: 1, Breaks: true},
		{Name: "b", Value: "y"},
	}
	changedBreaking := []FieldDescriptor{
		{Name: "a", Value: 2, Breaks: true},
		{Name: "b", Value: "x"},
	}

	treeBase, breaksBase := Trees(base)
	uuidBase, hashBase := Identity("widget", "id-1", treeBase, breaksBase)

	treeNB, breaksNB := Trees(changedNonBreaking)
	uuidNB, hashNB := Identity("widget", "id-1", treeNB, breaksNB)
	if uuidBase != uuidNB {
		t.Fatal("non-breaking field change must not alter uuid")
	}
	if hashBase == hashNB {
		t.Fatal("non-breaking field change must alter hash")
	}

	treeB, breaksB := Trees(changedBreaking)
	uuidB, _ := Identity("widget", "id-1", treeB, breaksB)
	if uuidBase == uuidB {
		t.Fatal("breaking field change must alter uuid")
	}
}

type fakeHashed struct {
	id, name, uuid, hash string
}

func (f fakeHashed) Identifier() string    { return f.id }
func (f fakeHashed) ComponentName() string { return f.name }
func (f fakeHashed) Uuid() string          { return f.uuid }
func (f fakeHashed) Hash() string          { return f.hash }

func TestNestedComponentFoldsByReference(t *testing.T) {
	child := fakeHashed{id: "c1", name: "leaf", uuid: "u1", hash: "h1"}
	fields := []FieldDescriptor{{Name: "child", Value: child, Breaks: true}}
	tree, breaks := Trees(fields)
	if tree["child"] == "" || breaks["child"] == "" {
		t.Fatal("expected non-empty digests for nested component field")
	}

	childChangedContent := fakeHashed{id: "c1", name: "leaf", uuid: "u1", hash: "h2"}
	fields2 := []FieldDescriptor{{Name: "child", Value: childChangedContent, Breaks: true}}
	tree2, breaks2 := Trees(fields2)
	if tree["child"] == tree2["child"] {
		t.Fatal("full tree must change when child hash changes")
	}
	if breaks["child"] != breaks2["child"] {
		t.Fatal("breaks tree must be stable when only child's non-identity hash changes")
	}
}
