package planner

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tidwall/pretty"
)

// RenderDiff produces a human-readable merge-patch describing how to turn
// the persisted encoding of a component into its new, live encoding. It is
// shown indented under the job's line in the plan summary for any "update"
// or "breaking" node, standing in for the original's tree-rendered diff
// view.
func RenderDiff(previous, next map[string]any) (string, error) {
	prevJSON, err := json.Marshal(previous)
	if err != nil {
		return "", fmt.Errorf("ochre: marshal previous definition: %w", err)
	}
	nextJSON, err := json.Marshal(next)
	if err != nil {
		return "", fmt.Errorf("ochre: marshal next definition: %w", err)
	}
	patch, err := jsonpatch.CreateMergePatch(prevJSON, nextJSON)
	if err != nil {
		return "", fmt.Errorf("ochre: compute diff: %w", err)
	}
	return string(pretty.Pretty(patch)), nil
}
