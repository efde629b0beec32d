package planner

import (
	"fmt"

	"github.com/blythed/ochre/internal/codec"
)

// BuildDestroyPlan inverts the tree rooted at root into a parent-before-
// children deletion order: a node's delete job is emitted before its
// children are visited, and each child's delete job depends on its
// parent's, so nothing downstream is torn down before what depends on it.
func BuildDestroyPlan(root Component) (*Plan, error) {
	plan := NewPlan()
	processed := map[string]bool{}
	if err := destroyNode(root, plan, processed, ""); err != nil {
		return nil, err
	}
	return plan, nil
}

func destroyNode(obj Component, plan *Plan, processed map[string]bool, parentJobID string) error {
	huuid := obj.Huuid()
	if processed[huuid] {
		return nil
	}
	data, err := codec.Encode(obj)
	if err != nil {
		return fmt.Errorf("ochre: encode %s: %w", huuid, err)
	}
	data["uuid"] = obj.Uuid()
	data["hash"] = obj.Hash()

	var deps []string
	if parentJobID != "" {
		deps = []string{parentJobID}
	}
	del := NewJob(MethodDelete, data, deps, false)
	plan.Append(huuid, del)
	processed[huuid] = true

	for _, child := range ChildComponents(obj.Fields()) {
		if err := destroyNode(child, plan, processed, del.JobID); err != nil {
			return err
		}
	}
	return nil
}
