package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReapplyCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reapply <component> <identifier>",
		Short: "Reload a persisted component and re-apply it without scheduling",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()
			result, err := eng.Reapply(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reapplied %s/%s: %d job(s).\n", args[0], args[1], result.Plan.Len())
			return nil
		},
	}
}
