package planner

import (
	"fmt"

	"github.com/blythed/ochre/internal/codec"
	"github.com/blythed/ochre/internal/registry"
)

// Status classifies a live component node against the registry's
// persisted state for the same component/identifier key.
type Status string

const (
	StatusNew      Status = "new"
	StatusSame     Status = "same"
	StatusUpdate   Status = "update"
	StatusBreaking Status = "breaking"
)

// Classify determines obj's apply status by comparing its current
// identity/content digests against the persisted uuid/hash for the same
// component/identifier key. A component whose last recorded status is
// "error" is always treated as new, so a failed create is retried rather
// than diffed against a definition that was never actually applied.
func Classify(obj Component, reg *registry.Registry) Status {
	if !reg.Exists(obj.ComponentName(), obj.Identifier()) {
		return StatusNew
	}
	if reg.Status(obj.ComponentName(), obj.Identifier()) == registry.StatusError {
		return StatusNew
	}
	prevUUID, okU := reg.Peek(obj.ComponentName(), obj.Identifier(), "uuid")
	prevHash, okH := reg.Peek(obj.ComponentName(), obj.Identifier(), "hash")
	if !okU || !okH {
		return StatusNew
	}
	switch {
	case prevHash == obj.Hash():
		return StatusSame
	case prevUUID == obj.Uuid():
		return StatusUpdate
	default:
		return StatusBreaking
	}
}

// BuildApplyPlan diffs root (and every component reachable from it) against
// reg's persisted state and returns the dependency-ordered job graph
// needed to reconcile the registry with root. When clean is true, every
// "new" node gets a non-raising delete job ahead of its create job, whether
// or not anything occupies the registry under its key.
func BuildApplyPlan(root Component, reg *registry.Registry, clean bool) (*Plan, error) {
	plan := NewPlan()
	processed := map[string]bool{}
	if _, err := applyNode(root, plan, reg, processed, clean); err != nil {
		return nil, err
	}
	return plan, nil
}

func applyNode(obj Component, plan *Plan, reg *registry.Registry, processed map[string]bool, clean bool) (string, error) {
	huuid := obj.Huuid()
	if processed[huuid] {
		return huuid, nil
	}

	status := Classify(obj, reg)

	for _, child := range ChildComponents(obj.Fields()) {
		if _, err := applyNode(child, plan, reg, processed, clean); err != nil {
			return "", err
		}
	}
	processed[huuid] = true

	if status == StatusSame {
		return huuid, nil
	}

	var dependencies []string
	for _, child := range ChildComponents(obj.Fields()) {
		if id, ok := plan.LastJobID(child.Huuid()); ok {
			dependencies = append(dependencies, id)
		}
	}

	data, err := codec.Encode(obj)
	if err != nil {
		return "", fmt.Errorf("ochre: encode %s: %w", huuid, err)
	}
	data["uuid"] = obj.Uuid()
	data["hash"] = obj.Hash()

	switch status {
	case StatusNew:
		createDeps := dependencies
		if clean {
			del := NewJob(MethodDelete, data, dependencies, false)
			plan.Append(huuid, del)
			createDeps = []string{del.JobID}
		}
		create := NewJob(MethodCreate, data, createDeps, true)
		plan.Append(huuid, create)
	case StatusBreaking:
		del := NewJob(MethodDelete, data, dependencies, true)
		del.Diff = diffAgainstPersisted(obj, reg, data)
		plan.Append(huuid, del)
		create := NewJob(MethodCreate, data, []string{del.JobID}, true)
		plan.Append(huuid, create)
	case StatusUpdate:
		upd := NewJob(MethodUpdate, data, dependencies, true)
		upd.Diff = diffAgainstPersisted(obj, reg, data)
		plan.Append(huuid, upd)
	default:
		return "", fmt.Errorf("ochre: unknown apply status %q for %s", status, huuid)
	}
	return huuid, nil
}

// diffAgainstPersisted renders a merge-patch from the registry's currently
// persisted encoding of obj to next, for display under the job's line in
// the plan summary. A
// failure to load or encode the previous version yields an empty diff
// rather than aborting the plan.
func diffAgainstPersisted(obj Component, reg *registry.Registry, next map[string]any) string {
	prev, err := reg.Load(obj.ComponentName(), obj.Identifier())
	if err != nil {
		return ""
	}
	prevData, err := codec.Encode(prev)
	if err != nil {
		return ""
	}
	diff, err := RenderDiff(prevData, next)
	if err != nil {
		return ""
	}
	return diff
}
