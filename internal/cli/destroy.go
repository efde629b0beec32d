package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blythed/ochre/pkg/ochre"
)

func newDestroyCommand(flags *rootFlags) *cobra.Command {
	var (
		build string
		force bool
	)
	cmd := &cobra.Command{
		Use:   "destroy [component] [identifier]",
		Short: "Tear down a component, parent before children",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()

			var root ochre.Component
			switch {
			case len(args) == 2:
				root, err = eng.Registry.LoadComponent(args[0], args[1])
				if err != nil {
					return err
				}
			case build != "":
				builder, ok := ochre.ResolveBuilder(build)
				if !ok {
					return fmt.Errorf("no builder registered as %q", build)
				}
				root, err = builder()
				if err != nil {
					return fmt.Errorf("build %q: %w", build, err)
				}
			default:
				return fmt.Errorf("either <component> <identifier> or --build is required")
			}

			result, err := eng.Destroy(cmd.Context(), root, force, confirmPrompt)
			if err != nil {
				return err
			}
			if !result.Executed {
				fmt.Fprintln(cmd.OutOrStdout(), "Plan not executed.")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Destroyed %d job(s).\n", result.Plan.Len())
			return nil
		},
	}
	cmd.Flags().StringVar(&build, "build", "", "registered builder name to construct the root component")
	cmd.Flags().BoolVar(&force, "force", false, "skip the confirmation prompt")
	return cmd
}
