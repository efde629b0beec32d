package codec

import (
	"bytes"
	"encoding/base64"
	"encoding/gob"
	"fmt"
)

const blobPrefix = ":blob:"

// RegisterBlobType tells gob about a concrete type that will travel through
// an opaque (blob) field. Gob, unlike Python's dill, cannot serialize an
// interface{} value without the concrete type registered ahead of time;
// component authors call this once per opaque type from an init(), the
// same place they call codec.Global.Register for callables.
func RegisterBlobType(sample any) {
	gob.Register(sample)
}

// encodeBlob gob-encodes value and returns it as a ":blob:"-prefixed
// base64 string: a self-describing opaque form for field values that are
// neither primitives, containers, nested components, nor registered
// symbols. Gob, not JSON, is used because it round-trips the concrete Go
// type behind an interface value without a schema, at the cost of the
// cross-process portability the on-disk format already does not promise
// for this form. Gob encodes exported fields only; unexported state is not
// carried through a blob.
func encodeBlob(value any) (string, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(&value); err != nil {
		return "", fmt.Errorf("ochre: encode blob: %w", err)
	}
	return blobPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// decodeBlob reverses encodeBlob.
func decodeBlob(s string) (any, error) {
	raw, err := base64.StdEncoding.DecodeString(s[len(blobPrefix):])
	if err != nil {
		return nil, fmt.Errorf("ochre: decode blob: %w", err)
	}
	var value any
	dec := gob.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("ochre: decode blob: %w", err)
	}
	return value, nil
}
