package cli

import (
	"fmt"
	"text/tabwriter"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newHistoryCommand(flags *rootFlags) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent apply/reapply/destroy runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := newEngine(flags)
			if err != nil {
				return err
			}
			defer eng.Close()

			runs, err := eng.History.Recent(limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tVERB\tCOMPONENT\tJOBS\tOUTCOME\tWHEN\tAGO")
			for _, run := range runs {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
					run.ID, run.Verb, run.RootHuuid, run.JobCount, run.Outcome,
					run.CreatedAt.Format("2006-01-02 15:04:05"), humanize.Time(run.CreatedAt))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to show")
	return cmd
}
