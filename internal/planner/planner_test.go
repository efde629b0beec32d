package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/internal/registry"
)

type fakeNode struct {
	id, name, uuid, hash string
	fields               []component.FieldDescriptor
}

func (f *fakeNode) Identifier() string    { return f.id }
func (f *fakeNode) ComponentName() string { return f.name }
func (f *fakeNode) Fields() []component.FieldDescriptor {
	return f.fields
}
func (f *fakeNode) Uuid() string { return f.uuid }
func (f *fakeNode) Hash() string { return f.hash }
func (f *fakeNode) Huuid() string {
	return fmt.Sprintf("%s/%s/%s", f.name, f.id, f.uuid)
}

func newReg(t *testing.T) *registry.Registry {
	t.Helper()
	return registry.New(t.TempDir(), component.NewTypeRegistry())
}

func saveRaw(t *testing.T, reg *registry.Registry, n *fakeNode) {
	t.Helper()
	require.NoError(t, reg.Save(n))
}

func TestBuildApplyPlanNewComponent(t *testing.T) {
	reg := newReg(t)
	n := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h1"}
	plan, err := BuildApplyPlan(n, reg, false)
	require.NoError(t, err)
	jobs := plan.All()
	require.Len(t, jobs, 1)
	require.Equal(t, MethodCreate, jobs[0].Method)
	require.True(t, jobs[0].Raises, "create job for a genuinely new component must raise on failure")
}

func TestBuildApplyPlanSameComponentProducesNoJobs(t *testing.T) {
	reg := newReg(t)
	n := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h1"}
	saveRaw(t, reg, n)
	plan, err := BuildApplyPlan(n, reg, false)
	require.NoError(t, err)
	require.Equal(t, 0, plan.Len(), "expected no jobs for an unchanged component")
}

func TestBuildApplyPlanUpdateSameUUIDDifferentHash(t *testing.T) {
	reg := newReg(t)
	prev := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h1"}
	saveRaw(t, reg, prev)
	next := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h2"}
	plan, err := BuildApplyPlan(next, reg, false)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	jobs := plan.All()
	if len(jobs) != 1 || jobs[0].Method != MethodUpdate {
		t.Fatalf("expected single update job, got %+v", jobs)
	}
}

func TestBuildApplyPlanBreakingChangesUUIDDeletesThenCreates(t *testing.T) {
	reg := newReg(t)
	prev := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h1"}
	saveRaw(t, reg, prev)
	next := &fakeNode{id: "w1", name: "widget", uuid: "u2", hash: "h2"}
	plan, err := BuildApplyPlan(next, reg, false)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	jobs := plan.All()
	if len(jobs) != 2 || jobs[0].Method != MethodDelete || jobs[1].Method != MethodCreate {
		t.Fatalf("expected delete then create, got %+v", jobs)
	}
	if len(jobs[1].Dependencies) != 1 || jobs[1].Dependencies[0] != jobs[0].JobID {
		t.Fatal("create job must depend on the delete job it follows")
	}
}

func TestBuildApplyPlanNewStatusCleanChainsCreateAfterDelete(t *testing.T) {
	reg := newReg(t)
	prev := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h1"}
	saveRaw(t, reg, prev)
	require.NoError(t, reg.MarkError("widget", "w1", "boom"))

	next := &fakeNode{id: "w1", name: "widget", uuid: "u1", hash: "h1"}
	require.Equal(t, StatusNew, Classify(next, reg), "a component whose last status was error must be treated as new")

	plan, err := BuildApplyPlan(next, reg, true)
	require.NoError(t, err)
	jobs := plan.All()
	if len(jobs) != 2 || jobs[0].Method != MethodDelete || jobs[1].Method != MethodCreate {
		t.Fatalf("expected delete then create in clean mode, got %+v", jobs)
	}
	if len(jobs[1].Dependencies) != 1 || jobs[1].Dependencies[0] != jobs[0].JobID {
		t.Fatal("clean-mode create job must depend on the delete job it follows")
	}
}

func TestBuildApplyPlanChildrenBeforeParents(t *testing.T) {
	reg := newReg(t)
	child := &fakeNode{id: "c1", name: "leaf", uuid: "cu1", hash: "ch1"}
	parent := &fakeNode{
		id: "p1", name: "branch", uuid: "pu1", hash: "ph1",
		fields: []component.FieldDescriptor{{Name: "child", Value: child}},
	}
	plan, err := BuildApplyPlan(parent, reg, false)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	keys := plan.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 node keys, got %v", keys)
	}
	if keys[0] != child.Huuid() {
		t.Fatalf("expected child to be planned before parent, got order %v", keys)
	}
	parentJobs := plan.JobsFor(parent.Huuid())
	childLastID, _ := plan.LastJobID(child.Huuid())
	if len(parentJobs[0].Dependencies) != 1 || parentJobs[0].Dependencies[0] != childLastID {
		t.Fatal("parent job must depend on child's last job id")
	}
}

func TestBuildDestroyPlanParentBeforeChildren(t *testing.T) {
	child := &fakeNode{id: "c1", name: "leaf", uuid: "cu1", hash: "ch1"}
	parent := &fakeNode{
		id: "p1", name: "branch", uuid: "pu1", hash: "ph1",
		fields: []component.FieldDescriptor{{Name: "child", Value: child}},
	}
	plan, err := BuildDestroyPlan(parent)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	keys := plan.Keys()
	if keys[0] != parent.Huuid() {
		t.Fatalf("expected parent deleted before child, got order %v", keys)
	}
	childJobs := plan.JobsFor(child.Huuid())
	parentJobID := plan.JobsFor(parent.Huuid())[0].JobID
	if len(childJobs[0].Dependencies) != 1 || childJobs[0].Dependencies[0] != parentJobID {
		t.Fatal("child delete job must depend on parent's delete job")
	}
}
