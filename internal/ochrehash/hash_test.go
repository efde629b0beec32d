package ochrehash

import "testing"

func TestHashItemTypeTagging(t *testing.T) {
	if HashItem(1) == HashItem("1") {
		t.Fatal("int 1 and string \"1\" must not collide")
	}
	if HashItem(1) == HashItem(int64(1)) {
		// same tag, same textual form: expected to collide, both are <int>
	} else {
		t.Fatal("int and int64 carrying the same tag and value should hash equal")
	}
	if HashItem(true) == HashItem(1) {
		t.Fatal("bool and int must not collide even though both can render as 1")
	}
}

func TestHashItemNarrowIntWidthsTagged(t *testing.T) {
	cases := []any{int8(1), int16(1), uint8(1), uint16(1), uint32(1)}
	for _, c := range cases {
		if HashItem(c) == HashItem("1") {
			t.Fatalf("%T(1) and string \"1\" must not collide", c)
		}
		if HashItem(c) != HashItem(1) {
			t.Fatalf("%T(1) should carry the same <int> tag as int(1)", c)
		}
	}
}

func TestHashItemDeterministicMapOrdering(t *testing.T) {
	a := map[string]any{"a": 1, "b": 2}
	b := map[string]any{"b": 2, "a": 1}
	if HashItem(a) != HashItem(b) {
		t.Fatal("map hashing must be independent of Go map iteration order")
	}
}

func TestHashItemSequenceOrderSensitive(t *testing.T) {
	a := []any{1, 2}
	b := []any{2, 1}
	if HashItem(a) == HashItem(b) {
		t.Fatal("sequence hashing must be order sensitive")
	}
}

func TestHashItemNilStable(t *testing.T) {
	if HashItem(nil) != HashItem(nil) {
		t.Fatal("nil must hash deterministically")
	}
}

func TestCombineHashLength(t *testing.T) {
	h := CombineHash(HashItem("a"), HashItem("b"))
	if len(h) != 2*LengthUUID {
		t.Fatalf("expected combined hash of length %d, got %d", 2*LengthUUID, len(h))
	}
}

func TestCombineUUIDDeterministicAndOrderSensitive(t *testing.T) {
	u1 := CombineUUID("widget", "id-1", []string{HashItem("x"), HashItem("y")})
	u2 := CombineUUID("widget", "id-1", []string{HashItem("x"), HashItem("y")})
	if u1 != u2 {
		t.Fatal("identical inputs must produce identical identity hashes")
	}
	u3 := CombineUUID("widget", "id-1", []string{HashItem("y"), HashItem("x")})
	if u1 == u3 {
		t.Fatal("breaks-tree values are order sensitive by construction (caller sorts by field name)")
	}
}
