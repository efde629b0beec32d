// Package codec implements the value encoding used to persist and
// transmit component definitions: primitives and containers pass through
// unchanged, nested components become "?type:identifier" references
// collected into a deep _builds map, registered callables become
// ":import:name" references, and everything else becomes a self-describing
// ":blob:" payload.
package codec

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/mohae/deepcopy"

	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/internal/ochreerr"
)

const (
	importPrefix = ":import:"
	refPrefix    = "?"

	keyComponent  = "component"
	keyIdentifier = "identifier"
	keyBuilds     = "_builds"
)

// Component is the minimal shape the codec needs from a component value:
// its identity and the field set to encode. It is satisfied implicitly by
// pkg/ochre's public Component interface (same method set), so this
// package never imports pkg/ochre.
type Component interface {
	Identifier() string
	ComponentName() string
	Fields() []component.FieldDescriptor
}

// identifiable lets Decode stamp the persisted identifier onto a fresh
// zero-value instance, since the registered zero-arg constructor has no way
// to pass it through. Satisfied by pkg/ochre.Base.SetIdentifier.
type identifiable interface {
	SetIdentifier(string)
}

// ComponentLoader resolves a "?type:identifier" reference that is not
// already present in the current _builds map, i.e. a reference to a
// component already persisted in the registry rather than being declared
// inline. Satisfied by *registry.Registry.
type ComponentLoader interface {
	Load(componentName, identifier string) (Component, error)
}

// Encode turns c into its wire/disk dict form, following references for
// every nested component and collecting their deep encodings into the
// returned _builds map.
func Encode(c Component) (map[string]any, error) {
	out := map[string]any{
		keyComponent:  c.ComponentName(),
		keyIdentifier: c.Identifier(),
	}
	builds := map[string]any{}
	for _, f := range c.Fields() {
		v, err := encodeValue(f.Value, builds)
		if err != nil {
			return nil, fmt.Errorf("ochre: encode field %q: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	out[keyBuilds] = builds
	return out, nil
}

func encodeValue(value any, builds map[string]any) (any, error) {
	if value == nil {
		return nil, nil
	}
	switch v := value.(type) {
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v, nil
	case Component:
		return encodeComponentRef(v, builds)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Func:
		if name, ok := Global.NameOf(value); ok {
			return importPrefix + name, nil
		}
		return nil, fmt.Errorf("ochre: function value has no registered symbol name")
	case reflect.Slice, reflect.Array:
		if b, ok := value.([]byte); ok {
			return encodeBlob(b)
		}
		out := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := encodeValue(rv.Index(i).Interface(), builds)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case reflect.Map:
		out := map[string]any{}
		iter := rv.MapRange()
		for iter.Next() {
			k := fmt.Sprintf("%v", iter.Key().Interface())
			ev, err := encodeValue(iter.Value().Interface(), builds)
			if err != nil {
				return nil, err
			}
			out[k] = ev
		}
		return out, nil
	case reflect.Ptr:
		if rv.IsNil() {
			return nil, nil
		}
		if c, ok := value.(Component); ok {
			return encodeComponentRef(c, builds)
		}
		return encodeValue(rv.Elem().Interface(), builds)
	}
	return encodeBlob(value)
}

func buildKeyFor(componentName, identifier string) string {
	return componentName + ":" + identifier
}

func buildKey(c Component) string {
	return buildKeyFor(c.ComponentName(), c.Identifier())
}

func encodeComponentRef(c Component, builds map[string]any) (string, error) {
	ref := refPrefix + c.ComponentName() + ":" + c.Identifier()
	key := buildKey(c)
	if _, exists := builds[key]; exists {
		return ref, nil
	}
	childEncoded, err := Encode(c)
	if err != nil {
		return "", fmt.Errorf("ochre: encode nested component %s/%s: %w", c.ComponentName(), c.Identifier(), err)
	}
	childBuilds, _ := childEncoded[keyBuilds].(map[string]any)
	delete(childEncoded, keyBuilds)
	delete(childEncoded, keyIdentifier)
	if err := mergo.Merge(&builds, childBuilds); err != nil {
		return "", fmt.Errorf("ochre: merge nested builds: %w", err)
	}
	builds[key] = childEncoded
	return ref, nil
}

// Decode reverses Encode: raw is a top-level encoded dict (as produced by
// Encode, or loaded from a registry's component.json). reg resolves the
// component's registered Go type; loader resolves "?type:id" references
// not present in raw's own _builds map.
func Decode(raw map[string]any, reg *component.TypeRegistry, loader ComponentLoader) (any, error) {
	name, _ := raw[keyComponent].(string)
	identifier, _ := raw[keyIdentifier].(string)
	if name == "" || identifier == "" {
		return nil, ochreerr.Wrap(ochreerr.ErrIntegrity, "ochre: missing component/identifier keys", nil)
	}

	instance, ok := reg.New(name)
	if !ok {
		return nil, ochreerr.Wrap(ochreerr.ErrDecode, fmt.Sprintf("ochre: no component type registered as %q", name), nil)
	}
	if id, ok := instance.(identifiable); ok {
		id.SetIdentifier(identifier)
	}

	builds, _ := raw[keyBuilds].(map[string]any)
	builds = deepcopy.Copy(builds).(map[string]any)
	if builds == nil {
		builds = map[string]any{}
	}

	fields := map[string]any{}
	for k, v := range raw {
		if k == keyComponent || k == keyIdentifier || k == keyBuilds {
			continue
		}
		dv, err := decodeValue(v, builds, reg, loader)
		if err != nil {
			return nil, fmt.Errorf("ochre: decode field %q: %w", k, err)
		}
		fields[k] = dv
	}

	if err := assignFields(instance, fields); err != nil {
		return nil, ochreerr.Wrap(ochreerr.ErrIntegrity, "ochre: field assignment failed", err)
	}
	return instance, nil
}

func decodeValue(v any, builds map[string]any, reg *component.TypeRegistry, loader ComponentLoader) (any, error) {
	switch val := v.(type) {
	case string:
		switch {
		case strings.HasPrefix(val, importPrefix):
			name := strings.TrimPrefix(val, importPrefix)
			sym, ok := Global.Resolve(name)
			if !ok {
				return nil, ochreerr.Wrap(ochreerr.ErrDecode, fmt.Sprintf("ochre: no symbol registered as %q", name), nil)
			}
			return sym, nil
		case strings.HasPrefix(val, blobPrefix):
			return decodeBlob(val)
		case strings.HasPrefix(val, refPrefix):
			return decodeRef(val, builds, reg, loader)
		default:
			return val, nil
		}
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			dv, err := decodeValue(e, builds, reg, loader)
			if err != nil {
				return nil, err
			}
			out[i] = dv
		}
		return out, nil
	case map[string]any:
		out := map[string]any{}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			dv, err := decodeValue(val[k], builds, reg, loader)
			if err != nil {
				return nil, err
			}
			out[k] = dv
		}
		return out, nil
	default:
		return v, nil
	}
}

func decodeRef(ref string, builds map[string]any, reg *component.TypeRegistry, loader ComponentLoader) (any, error) {
	rest := strings.TrimPrefix(ref, refPrefix)
	parts := strings.SplitN(rest, ":", 2)
	if len(parts) != 2 {
		return nil, ochreerr.Wrap(ochreerr.ErrDecode, fmt.Sprintf("ochre: malformed reference %q", ref), nil)
	}
	compName, identifier := parts[0], parts[1]
	key := buildKeyFor(compName, identifier)

	if raw, ok := builds[key]; ok {
		rawBuild, ok := raw.(map[string]any)
		if !ok {
			return nil, ochreerr.Wrap(ochreerr.ErrDecode, fmt.Sprintf("ochre: build entry for %q is not a dict", key), nil)
		}
		rawMap := map[string]any{keyComponent: compName, keyIdentifier: identifier}
		for k, v := range rawBuild {
			rawMap[k] = v
		}
		return Decode(rawMap, reg, loader)
	}
	if loader == nil {
		return nil, ochreerr.Wrap(ochreerr.ErrNotFound, fmt.Sprintf("ochre: %s/%s not found in builds and no loader configured", compName, identifier), nil)
	}
	c, err := loader.Load(compName, identifier)
	if err != nil {
		return nil, fmt.Errorf("ochre: load referenced component %s/%s: %w", compName, identifier, err)
	}
	return c, nil
}

func assignFields(instance any, fields map[string]any) error {
	v := reflect.ValueOf(instance)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	plan, err := component.Introspect(instance)
	if err != nil {
		return err
	}
	// Introspect's FieldDescriptor order matches a walk of the struct's
	// exported, non-anonymous, ochre-tagged fields in declaration order, so
	// the descriptors can be zipped against that same walk here without
	// re-deriving the tag's name/default grammar a second time.
	byName := map[string]int{}
	t := v.Type()
	pi := 0
	for i := 0; i < t.NumField() && pi < len(plan); i++ {
		sf := t.Field(i)
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		if _, ok := sf.Tag.Lookup("ochre"); !ok {
			continue
		}
		byName[plan[pi].Name] = i
		pi++
	}
	for name, raw := range fields {
		idx, ok := byName[name]
		if !ok {
			continue
		}
		field := v.Field(idx)
		if !field.CanSet() {
			continue
		}
		if raw == nil {
			continue
		}
		setField(field, raw)
	}
	for _, p := range plan {
		if _, present := fields[p.Name]; present || !p.HasDefault {
			continue
		}
		if idx, ok := byName[p.Name]; ok && v.Field(idx).CanSet() {
			setField(v.Field(idx), p.Default)
		}
	}
	return nil
}

func setField(field reflect.Value, raw any) {
	rv := reflect.ValueOf(raw)
	if rv.Type().AssignableTo(field.Type()) {
		field.Set(rv)
		return
	}
	if rv.Type().ConvertibleTo(field.Type()) {
		field.Set(rv.Convert(field.Type()))
		return
	}
	if field.Kind() == reflect.Slice && rv.Kind() == reflect.Slice {
		out := reflect.MakeSlice(field.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			elem := rv.Index(i).Interface()
			if reflect.ValueOf(elem).IsValid() {
				setField(out.Index(i), elem)
			}
		}
		field.Set(out)
	}
}
