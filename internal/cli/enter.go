package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEnterCommand(flags *rootFlags) *cobra.Command {
	var entrypoint string
	cmd := &cobra.Command{
		Use:   "enter <component> <identifier>",
		Short: "Load a persisted component and invoke an arbitrary method on it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if entrypoint == "" {
				return fmt.Errorf("--entrypoint is required")
			}
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()

			loaded, err := eng.Registry.LoadComponent(args[0], args[1])
			if err != nil {
				return err
			}
			if err := callEntrypoint(loaded, entrypoint); err != nil {
				return fmt.Errorf("run entrypoint %q on %s/%s: %w", entrypoint, args[0], args[1], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ran %s on %s/%s.\n", entrypoint, args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&entrypoint, "entrypoint", "", "method to invoke on the loaded component")
	return cmd
}
