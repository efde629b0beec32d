// Package ochrehash implements the type-tagged content hash used to derive
// component identity (uuid) and full-content (hash) digests from the
// generic value tree produced by the codec.
//
// The algorithm hashes a decoded value, not a Go struct: primitives are
// hashed with a type tag so that, e.g., the int 1 and the string "1" never
// collide; lists and dicts recurse; anything else falls back to hashing its
// string form.
package ochrehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// LengthUUID is the number of hex characters kept from a uuid digest.
const LengthUUID = 32

// HashItem computes the sha256 hex digest of item following the tagged
// scheme: nil, bool, numeric kinds, and strings are prefixed with a kind
// tag (<nil>, <bool>, <int> for every integer width, <float>, <str>) before
// hashing; []any hashes as concatenated recursive digests; []byte hashes
// as the sha256 of its raw bytes; map[string]any hashes over sorted keys
// as (hash(key), hash(value)) pairs; anything else is hashed via its
// fmt.Sprintf("%v") form.
func HashItem(item any) string {
	switch v := item.(type) {
	case nil:
		return sha256Hex("<nil>" + fmt.Sprintf("%v", item))
	case []byte:
		return sha256Bytes(v)
	case string:
		return sha256Hex("<str>" + v)
	case bool:
		return sha256Hex(fmt.Sprintf("<bool>%v", v))
	case int:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case int8:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case int16:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case int32:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case int64:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case uint:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case uint8:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case uint16:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case uint32:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case uint64:
		return sha256Hex(fmt.Sprintf("<int>%v", v))
	case float32:
		return sha256Hex(fmt.Sprintf("<float>%v", v))
	case float64:
		return sha256Hex(fmt.Sprintf("<float>%v", v))
	case []any:
		return hashSequence(v)
	case map[string]any:
		return hashMap(v)
	default:
		return sha256Hex(fmt.Sprintf("%v", v))
	}
}

func hashSequence(items []any) string {
	var buf []byte
	for _, it := range items {
		buf = append(buf, HashItem(it)...)
	}
	return sha256Hex(string(buf))
}

func hashMap(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf []byte
	for _, k := range keys {
		buf = append(buf, []byte(fmt.Sprintf("(%s, %s)", HashItem(k), HashItem(m[k])))...)
	}
	return sha256Hex(string(buf))
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func sha256Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// ShortUUID truncates a hex digest to LengthUUID characters.
func ShortUUID(digest string) string {
	if len(digest) <= LengthUUID {
		return digest
	}
	return digest[:LengthUUID]
}

// CombineUUID derives a component's identity hash from its component type
// name, identifier, and the hashes of fields that participate in the
// breaks tree, in field-name order.
func CombineUUID(componentName, identifier string, breaksTreeValues []string) string {
	items := make([]any, 0, 2+len(breaksTreeValues))
	items = append(items, componentName, identifier)
	for _, v := range breaksTreeValues {
		items = append(items, v)
	}
	return ShortUUID(hashSequence(toAnySlice(items)))
}

func toAnySlice(items []any) []any { return items }

// CombineHash derives a component's full content hash from the breaking and
// non-breaking halves, each already reduced to a single digest: the first
// 32 hex chars of the breaking digest concatenated with the first 32 hex
// chars of the non-breaking digest, exactly as the identity/content split
// in the component model requires.
func CombineHash(breakingDigest, nonBreakingDigest string) string {
	return ShortUUID(breakingDigest) + ShortUUID(nonBreakingDigest)
}
