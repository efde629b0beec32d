package component

import (
	"reflect"
	"sort"

	"github.com/blythed/ochre/internal/ochrehash"
)

// HashedNode is a component that has already had its own identity and
// content digests computed, so that a parent can fold a child in by
// reference instead of re-deriving the child's whole subtree.
type HashedNode interface {
	Uuid() string
	Hash() string
}

// Trees computes the full-content merkle tree (one digest per field) and
// the breaks-only merkle tree (one digest per breaks-tagged field) for a
// component given its field descriptors. Nested components contribute
// their own Hash() to the full tree and their own Uuid() to the breaks
// tree, so a non-breaking change deep in a child subtree still changes its
// parent's full hash without perturbing the parent's identity.
func Trees(fields []FieldDescriptor) (tree map[string]string, breaksTree map[string]string) {
	tree = map[string]string{}
	breaksTree = map[string]string{}
	for _, f := range fields {
		tree[f.Name] = ochrehash.HashItem(valueForTree(f.Value, false))
		if f.Breaks {
			breaksTree[f.Name] = ochrehash.HashItem(valueForTree(f.Value, true))
		}
	}
	return tree, breaksTree
}

// Identity derives a component's uuid and full content hash from its
// component name, identifier, and the two trees computed by Trees.
func Identity(componentName, identifier string, tree, breaksTree map[string]string) (uuid string, hash string) {
	breakingValues := sortedValues(breaksTree)
	nonBreakingValues := sortedValues(tree)
	breakingDigest := ochrehash.HashItem(toAny(append([]string{componentName, identifier}, breakingValues...)))
	nonBreakingDigest := ochrehash.HashItem(toAny(nonBreakingValues))
	uuid = ochrehash.ShortUUID(breakingDigest)
	hash = ochrehash.CombineHash(breakingDigest, nonBreakingDigest)
	return uuid, hash
}

func sortedValues(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// valueForTree maps a raw field value into the shape ochrehash.HashItem
// expects, substituting any nested HashedNode with its precomputed uuid or
// hash so child subtrees are never re-walked from the parent.
func valueForTree(v any, useUUID bool) any {
	if v == nil {
		return nil
	}
	if hn, ok := v.(HashedNode); ok {
		if useUUID {
			return hn.Uuid()
		}
		return hn.Hash()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if _, ok := v.([]byte); ok {
			return v
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = valueForTree(rv.Index(i).Interface(), useUUID)
		}
		return out
	case reflect.Map:
		out := map[string]any{}
		iter := rv.MapRange()
		for iter.Next() {
			k := iter.Key().Interface()
			ks, _ := k.(string)
			out[ks] = valueForTree(iter.Value().Interface(), useUUID)
		}
		return out
	case reflect.Ptr:
		if rv.IsNil() {
			return nil
		}
		return valueForTree(rv.Elem().Interface(), useUUID)
	default:
		return v
	}
}
