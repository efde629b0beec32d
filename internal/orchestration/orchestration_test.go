package orchestration_test

import (
	"context"
	"testing"

	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/internal/executor"
	"github.com/blythed/ochre/internal/orchestration"
	"github.com/blythed/ochre/internal/registry"
	"github.com/blythed/ochre/pkg/ochre"
)

type orchWidget struct {
	ochre.Base
	Count int `ochre:"count,breaks"`
}

func newOrchWidget(id string, count int) *orchWidget {
	w := &orchWidget{Count: count}
	w.Init(w, id)
	return w
}

func TestApplyExecutesAndPersists(t *testing.T) {
	if err := ochre.Register[*orchWidget]("orch_widget", func() *orchWidget { return newOrchWidget("", 0) }); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg := registry.New(t.TempDir(), component.Global)
	ex := executor.New(reg, component.Global, nil)

	w := newOrchWidget("w1", 1)
	result, err := orchestration.Apply(context.Background(), w, reg, ex, nil, nil, orchestration.Options{Force: true, Execute: true})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !result.Executed {
		t.Fatal("expected apply to execute")
	}
	if !reg.Exists("orch_widget", "w1") {
		t.Fatal("expected component persisted after apply")
	}
}

func TestApplyNoChangesProducesEmptyPlan(t *testing.T) {
	if err := ochre.Register[*orchWidget]("orch_widget_2", func() *orchWidget { return newOrchWidget("", 0) }); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg := registry.New(t.TempDir(), component.Global)
	ex := executor.New(reg, component.Global, nil)

	w1 := &orchWidget{Count: 1}
	w1.Init(w1, "w1")

	if _, err := orchestration.Apply(context.Background(), w1, reg, ex, nil, nil, orchestration.Options{Force: true, Execute: true}); err != nil {
		t.Fatalf("first apply: %v", err)
	}

	w2 := &orchWidget{Count: 1}
	w2.Init(w2, "w1")
	result, err := orchestration.Apply(context.Background(), w2, reg, ex, nil, nil, orchestration.Options{Force: true, Execute: true})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	if result.Plan.Len() != 0 {
		t.Fatalf("expected no jobs for an unchanged reapply, got %d", result.Plan.Len())
	}
}

func TestDestroyRemovesComponent(t *testing.T) {
	if err := ochre.Register[*orchWidget]("orch_widget_3", func() *orchWidget { return newOrchWidget("", 0) }); err != nil {
		t.Fatalf("register: %v", err)
	}
	reg := registry.New(t.TempDir(), component.Global)
	ex := executor.New(reg, component.Global, nil)

	w := &orchWidget{Count: 1}
	w.Init(w, "w1")
	if _, err := orchestration.Apply(context.Background(), w, reg, ex, nil, nil, orchestration.Options{Force: true, Execute: true}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if _, err := orchestration.Destroy(context.Background(), w, reg, ex, nil, nil, orchestration.Options{Force: true, Execute: true}); err != nil {
		t.Fatalf("destroy: %v", err)
	}
	if reg.Exists("orch_widget_3", "w1") {
		t.Fatal("expected component removed after destroy")
	}
}
