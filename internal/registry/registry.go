// Package registry implements the filesystem-backed component store:
// <root>/<ComponentType>/<Identifier>/{component.json, files/, .status/,
// cron.log}. It is the sole source of truth the planner consults when
// classifying a live component against its previously persisted state.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/blythed/ochre/internal/codec"
	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/internal/ochreerr"
)

const componentFile = "component.json"

// Registry is a filesystem-backed component store rooted at Root.
type Registry struct {
	Root  string
	Types *component.TypeRegistry
}

// New constructs a registry rooted at root, resolving component types
// through types (component.Global if nil).
func New(root string, types *component.TypeRegistry) *Registry {
	if types == nil {
		types = component.Global
	}
	return &Registry{Root: root, Types: types}
}

// Dir returns the on-disk directory for a given component type/identifier.
func (r *Registry) Dir(componentName, identifier string) string {
	return filepath.Join(r.Root, componentName, identifier)
}

func (r *Registry) path(componentName, identifier string) string {
	return filepath.Join(r.Dir(componentName, identifier), componentFile)
}

// Exists reports whether a component.json is present for the given key.
func (r *Registry) Exists(componentName, identifier string) bool {
	_, err := os.Stat(r.path(componentName, identifier))
	return err == nil
}

// Load reads and decodes the persisted definition for componentName/identifier.
// It implements codec.ComponentLoader so the codec can resolve
// "?type:id" references that point at already-persisted components.
func (r *Registry) Load(componentName, identifier string) (codec.Component, error) {
	raw, err := os.ReadFile(r.path(componentName, identifier))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ochreerr.Wrap(ochreerr.ErrNotFound, fmt.Sprintf("ochre: %s/%s not in registry", componentName, identifier), err)
		}
		return nil, ochreerr.Wrap(ochreerr.ErrInternal, "ochre: read component.json", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ochreerr.Wrap(ochreerr.ErrDecode, "ochre: parse component.json", err)
	}
	decoded, err := codec.Decode(doc, r.Types, r)
	if err != nil {
		return nil, err
	}
	c, ok := decoded.(codec.Component)
	if !ok {
		return nil, ochreerr.Wrap(ochreerr.ErrInternal, "ochre: decoded value is not a component", nil)
	}
	return c, nil
}

// Component is the shape Save and LoadComponent need: identity, fields, and
// the two precomputed digests that Peek-based classification reads back
// without a full decode. Satisfied implicitly by anything embedding
// pkg/ochre.Base.
type Component interface {
	Identifier() string
	ComponentName() string
	Fields() []component.FieldDescriptor
	Uuid() string
	Hash() string
}

// LoadComponent is the public-facing equivalent of Load, returning the
// richer Component interface (identical method set codec.Component plus
// the two digests, so the conversion always succeeds for anything this
// registry itself ever saved).
func (r *Registry) LoadComponent(componentName, identifier string) (Component, error) {
	c, err := r.Load(componentName, identifier)
	if err != nil {
		return nil, err
	}
	cc, ok := c.(Component)
	if !ok {
		return nil, ochreerr.Wrap(ochreerr.ErrInternal, "ochre: decoded component lacks identity digests", nil)
	}
	return cc, nil
}

// Save persists c's encoded form as component.json, with deterministic key
// ordering so repeated saves of an unchanged component produce byte-
// identical files. The identity and content digests are stored alongside
// the encoded fields so the planner can classify a node against its
// persisted state with a cheap field peek instead of a full decode.
func (r *Registry) Save(c Component) error {
	if c.ComponentName() == "" {
		return ochreerr.Wrap(ochreerr.ErrInternal, fmt.Sprintf("ochre: component %q has no registered component name", c.Identifier()), nil)
	}
	encoded, err := codec.Encode(c)
	if err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: encode component", err)
	}
	encoded["uuid"] = c.Uuid()
	encoded["hash"] = c.Hash()
	dir := r.Dir(c.ComponentName(), c.Identifier())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: create registry directory", err)
	}
	raw, err := marshalStable(encoded)
	if err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: marshal component", err)
	}
	if err := os.WriteFile(r.path(c.ComponentName(), c.Identifier()), raw, 0o644); err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: write component.json", err)
	}
	return nil
}

// Remove deletes a single component's registry directory. It does not
// recurse into nested components: a destroy plan removes each node in the
// component tree via its own Remove call, in dependency order, rather than
// this method walking _builds itself.
func (r *Registry) Remove(componentName, identifier string) error {
	dir := r.Dir(componentName, identifier)
	if err := os.RemoveAll(dir); err != nil {
		return ochreerr.Wrap(ochreerr.ErrInternal, "ochre: remove registry directory", err)
	}
	parent := filepath.Dir(dir)
	if entries, err := os.ReadDir(parent); err == nil && len(entries) == 0 {
		_ = os.Remove(parent)
	}
	return nil
}

// Peek reads a single field out of a persisted component.json without a
// full decode, using a cheap path query. Returns ("", false) if the
// component or field is absent.
func (r *Registry) Peek(componentName, identifier, field string) (string, bool) {
	raw, err := os.ReadFile(r.path(componentName, identifier))
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(raw, field)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// List returns "componentType/identifier" for every persisted component
// under Root, in deterministic order.
func (r *Registry) List() ([]string, error) {
	var out []string
	entries, err := os.ReadDir(r.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, typeEntry := range entries {
		if !typeEntry.IsDir() || filepath.Ext(typeEntry.Name()) == ".db" {
			continue
		}
		idEntries, err := os.ReadDir(filepath.Join(r.Root, typeEntry.Name()))
		if err != nil {
			continue
		}
		for _, idEntry := range idEntries {
			if !idEntry.IsDir() {
				continue
			}
			if _, err := os.Stat(filepath.Join(r.Root, typeEntry.Name(), idEntry.Name(), componentFile)); err == nil {
				out = append(out, typeEntry.Name()+"/"+idEntry.Name())
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

const lockFileName = ".lock"

// Lock acquires an exclusive advisory lock on <Root>/.lock, blocking until
// available, for the duration of one apply/destroy invocation. The
// returned unlock releases it; callers are expected to defer it
// immediately. Locking is a no-op (but still creates the file) on
// platforms without flock(2).
func (r *Registry) Lock() (unlock func() error, err error) {
	if err := os.MkdirAll(r.Root, 0o755); err != nil {
		return nil, fmt.Errorf("ochre: create registry root: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(r.Root, lockFileName), os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("ochre: open lock file: %w", err)
	}
	if err := flockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("ochre: acquire lock: %w", err)
	}
	return func() error {
		defer f.Close()
		return flockRelease(f)
	}, nil
}

func marshalStable(v map[string]any) ([]byte, error) {
	raw, err := json.Marshal(sortedMap(v))
	if err != nil {
		return nil, err
	}
	return pretty.Pretty(raw), nil
}

// sortedMap re-encodes a map[string]any as a json.RawMessage-backed
// ordered structure is unnecessary in Go's encoding/json (maps are always
// sorted by key on marshal); this helper exists for symmetry with the
// on-disk format description and to recursively apply the same guarantee
// to nested maps produced by the codec.
func sortedMap(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, vv := range val {
			out[k] = sortedMap(vv)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, vv := range val {
			out[i] = sortedMap(vv)
		}
		return out
	default:
		return val
	}
}
