package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCommand(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every component persisted in the registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()

			keys, err := eng.Registry.List()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "COMPONENT\tIDENTIFIER\tSTATUS\tHASH")
			for _, key := range keys {
				parts := strings.SplitN(key, "/", 2)
				if len(parts) != 2 {
					continue
				}
				componentName, identifier := parts[0], parts[1]
				status := eng.Registry.Status(componentName, identifier)
				hash, _ := eng.Registry.Peek(componentName, identifier, "hash")
				if len(hash) > 12 {
					hash = hash[:12]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", componentName, identifier, status, hash)
			}
			return w.Flush()
		},
	}
	return cmd
}
