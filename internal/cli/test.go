package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blythed/ochre/pkg/ochre"
)

func newTestCommand(flags *rootFlags) *cobra.Command {
	var (
		build      string
		entrypoint string
		destroy    bool
	)
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Build a component's built-in example, apply it, optionally run an entrypoint, then destroy it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if build == "" {
				return fmt.Errorf("--build is required (registered names: %v)", ochre.BuilderNames())
			}
			builder, ok := ochre.ResolveBuilder(build)
			if !ok {
				return fmt.Errorf("no builder registered as %q", build)
			}
			seed, err := builder()
			if err != nil {
				return fmt.Errorf("build %q: %w", build, err)
			}
			example, ok := seed.(ochre.ExampleComponent)
			if !ok {
				return fmt.Errorf("%T does not implement BuildExample", seed)
			}
			root, err := example.BuildExample()
			if err != nil {
				return fmt.Errorf("build example: %w", err)
			}

			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()

			if destroy {
				defer func() {
					_, _ = eng.Destroy(cmd.Context(), root, true, nil)
				}()
			}

			if _, err := eng.Apply(cmd.Context(), root, true, false, nil); err != nil {
				return err
			}
			if entrypoint != "" {
				if err := callEntrypoint(root, entrypoint); err != nil {
					return fmt.Errorf("run entrypoint %q: %w", entrypoint, err)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test run complete.")
			return nil
		},
	}
	cmd.Flags().StringVar(&build, "build", "", "registered builder name to construct the example component's owner")
	cmd.Flags().StringVar(&entrypoint, "entrypoint", "", "method to invoke on the example after applying")
	cmd.Flags().BoolVar(&destroy, "destroy", true, "destroy the example component after the run")
	return cmd
}
