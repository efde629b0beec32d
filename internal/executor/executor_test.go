package executor_test

import (
	"context"
	"testing"

	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/internal/executor"
	"github.com/blythed/ochre/internal/planner"
	"github.com/blythed/ochre/internal/registry"
	"github.com/blythed/ochre/pkg/ochre"
)

type countingWidget struct {
	ochre.Base
	Count int `ochre:"count,breaks"`

	created int
	updated int
	deleted int
}

func newCountingWidget(id string, count int) *countingWidget {
	w := &countingWidget{Count: count}
	w.Init(w, id)
	return w
}

func (w *countingWidget) Create() error { w.created++; return nil }
func (w *countingWidget) Update() error { w.updated++; return nil }
func (w *countingWidget) Delete() error { w.deleted++; return nil }

func TestExecutorRunsCreateJobAndPersists(t *testing.T) {
	if err := ochre.Register[*countingWidget]("counting_widget", func() *countingWidget {
		return newCountingWidget("", 0)
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	types := component.Global

	reg := registry.New(t.TempDir(), types)
	w := newCountingWidget("w1", 1)

	plan, err := planner.BuildApplyPlan(w, reg, false)
	if err != nil {
		t.Fatalf("build plan: %v", err)
	}
	if plan.Len() != 1 {
		t.Fatalf("expected 1 job, got %d", plan.Len())
	}

	ex := executor.New(reg, types, nil)
	if err := ex.Execute(context.Background(), plan); err != nil {
		t.Fatalf("execute: %v", err)
	}

	if !reg.Exists("counting_widget", "w1") {
		t.Fatal("expected component to be persisted after create")
	}
	if reg.Status("counting_widget", "w1") != registry.StatusComplete {
		t.Fatal("expected status complete after successful create")
	}
}

func TestExecutorRestoresPreviousVersionOnDecodeFailure(t *testing.T) {
	if err := ochre.Register[*countingWidget]("counting_widget", func() *countingWidget {
		return newCountingWidget("", 0)
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	types := component.Global
	reg := registry.New(t.TempDir(), types)

	w := newCountingWidget("w2", 1)
	createPlan, err := planner.BuildApplyPlan(w, reg, false)
	if err != nil {
		t.Fatalf("build create plan: %v", err)
	}
	ex := executor.New(reg, types, nil)
	if err := ex.Execute(context.Background(), createPlan); err != nil {
		t.Fatalf("execute create: %v", err)
	}

	badData := map[string]any{
		"component":  "counting_widget",
		"identifier": "w2",
		"count":      ":import:does_not_exist",
	}
	job := planner.NewJob(planner.MethodUpdate, badData, nil, true)
	plan := planner.NewPlan()
	plan.Append("counting_widget/w2/u", job)

	if err := ex.Execute(context.Background(), plan); err == nil {
		t.Fatal("expected decode failure to propagate for a raising job")
	}

	loaded, err := reg.Load("counting_widget", "w2")
	if err != nil {
		t.Fatalf("expected previous version to still be loadable after rollback: %v", err)
	}
	cc, ok := loaded.(*countingWidget)
	if !ok {
		t.Fatalf("unexpected loaded type %T", loaded)
	}
	if cc.Count != 1 {
		t.Fatalf("expected rollback to preserve previous count 1, got %d", cc.Count)
	}
}

type notSaveable struct {
	id string
}

func (n *notSaveable) Identifier() string                   { return n.id }
func (n *notSaveable) ComponentName() string                { return "not_saveable" }
func (n *notSaveable) Fields() []component.FieldDescriptor  { return nil }
func (n *notSaveable) SetIdentifier(id string)              { n.id = id }
func (n *notSaveable) Read() error                          { return nil }
func (n *notSaveable) Create() error                        { return nil }
func (n *notSaveable) Update() error                        { return nil }
func (n *notSaveable) Delete() error                        { return nil }

func TestExecutorMarksErrorNotCompleteWhenPersistFails(t *testing.T) {
	if err := ochre.Register[*notSaveable]("not_saveable", func() *notSaveable {
		return &notSaveable{}
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	types := component.Global
	reg := registry.New(t.TempDir(), types)

	data := map[string]any{"component": "not_saveable", "identifier": "ns1"}
	job := planner.NewJob(planner.MethodCreate, data, nil, true)
	plan := planner.NewPlan()
	plan.Append("not_saveable/ns1/u", job)

	ex := executor.New(reg, types, nil)
	if err := ex.Execute(context.Background(), plan); err == nil {
		t.Fatal("expected an error when the decoded value cannot be saved")
	}

	if reg.Exists("not_saveable", "ns1") {
		t.Fatal("expected nothing to be persisted for an unsaveable component")
	}
	if reg.Status("not_saveable", "ns1") != registry.StatusError {
		t.Fatalf("expected status error after persist failure, got %s", reg.Status("not_saveable", "ns1"))
	}
}

func TestExecutorStopsOnRaisingFailure(t *testing.T) {
	types := component.NewTypeRegistry()
	reg := registry.New(t.TempDir(), types)

	badData := map[string]any{"component": "missing_type", "identifier": "x"}
	job := planner.NewJob(planner.MethodCreate, badData, nil, true)
	plan := planner.NewPlan()
	plan.Append("missing_type/x/u", job)

	ex := executor.New(reg, types, nil)
	if err := ex.Execute(context.Background(), plan); err == nil {
		t.Fatal("expected an error for an unregistered component type")
	}
}
