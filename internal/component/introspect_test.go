package component

import "testing"

type sample struct {
	Name   string `ochre:"name"`
	Count  int    `ochre:"count,breaks"`
	Rate   float64 `ochre:"rate,default=0.5"`
	hidden string
	Plain  string
}

func TestIntrospectSkipsUntaggedAndUnexported(t *testing.T) {
	s := &sample{Name: "a", Count: 3, Rate: 0}
	fields, err := Introspect(s)
	if err != nil {
		t.Fatalf("introspect: %v", err)
	}
	if len(fields) != 3 {
		t.Fatalf("expected 3 tagged fields, got %d: %+v", len(fields), fields)
	}
	byName := map[string]FieldDescriptor{}
	for _, f := range fields {
		byName[f.Name] = f
	}
	if !byName["count"].Breaks {
		t.Fatal("count must be marked breaks")
	}
	if byName["name"].Breaks {
		t.Fatal("name must not be marked breaks")
	}
	if !byName["rate"].HasDefault {
		t.Fatal("rate must carry a default")
	}
	if byName["rate"].Default.(float64) != 0.5 {
		t.Fatalf("expected default 0.5, got %v", byName["rate"].Default)
	}
}

func TestIntrospectCachesPlanPerType(t *testing.T) {
	s1 := &sample{Name: "a"}
	s2 := &sample{Name: "b"}
	f1, _ := Introspect(s1)
	f2, _ := Introspect(s2)
	if len(f1) != len(f2) {
		t.Fatal("plan should be identical across instances of the same type")
	}
}
