package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"

	"github.com/blythed/ochre/internal/codec"
	"github.com/blythed/ochre/internal/component"
	"github.com/blythed/ochre/pkg/ochre"
)

func newApplyCommand(flags *rootFlags) *cobra.Command {
	var (
		build string
		force bool
		clean bool
		sets  []string
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Build a registered component and reconcile the registry to match it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if build == "" {
				return fmt.Errorf("--build is required (registered names: %v)", ochre.BuilderNames())
			}
			builder, ok := ochre.ResolveBuilder(build)
			if !ok {
				return fmt.Errorf("no builder registered as %q (known: %v)", build, ochre.BuilderNames())
			}
			root, err := builder()
			if err != nil {
				return fmt.Errorf("build %q: %w", build, err)
			}
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()

			if len(sets) > 0 {
				root, err = applyOverrides(root, sets, eng.Registry)
				if err != nil {
					return fmt.Errorf("apply --set overrides: %w", err)
				}
			}

			result, err := eng.Apply(cmd.Context(), root, force, clean, confirmPrompt)
			if err != nil {
				return err
			}
			if result.Plan.Len() == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes needed.")
				return nil
			}
			if !result.Executed {
				fmt.Fprintln(cmd.OutOrStdout(), "Plan not executed.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d job(s).\n", result.Plan.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&build, "build", "", "registered builder name to construct the root component")
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	cmd.Flags().BoolVar(&clean, "clean", false, "emit a non-raising delete job ahead of every create job for a new component")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "override a field path before applying, e.g. --set replicas=3 (repeatable)")
	return cmd
}

// applyOverrides re-encodes root, applies each "path=value" override with
// sjson against the encoded JSON document, and decodes the result back into
// a component — the same generic JSON-path patching occ's overrides.go
// applies to component manifests, adapted here to an in-memory build
// instead of a file on disk.
func applyOverrides(root ochre.Component, sets []string, loader codec.ComponentLoader) (ochre.Component, error) {
	encoded, err := codec.Encode(root)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(encoded)
	if err != nil {
		return nil, err
	}
	doc := string(raw)
	for _, set := range sets {
		parts := strings.SplitN(set, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed --set %q, want path=value", set)
		}
		doc, err = setOverride(doc, parts[0], parts[1])
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", parts[0], err)
		}
	}
	var patched map[string]any
	if err := json.Unmarshal([]byte(doc), &patched); err != nil {
		return nil, err
	}
	decoded, err := codec.Decode(patched, component.Global, loader)
	if err != nil {
		return nil, err
	}
	out, ok := decoded.(ochre.Component)
	if !ok {
		return nil, fmt.Errorf("decoded override result is not a component")
	}
	return out, nil
}

// setOverride writes value into doc at path, as a JSON number/bool/null
// when value parses as one (so "--set replicas=3" lands on an int field
// instead of the string "3"), and as a quoted string otherwise.
func setOverride(doc, path, value string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(value), &v); err == nil {
		switch v.(type) {
		case float64, bool, nil:
			return sjson.SetRaw(doc, path, value)
		}
	}
	return sjson.Set(doc, path, value)
}
