package cli

import (
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	var (
		report   string
		workers  int
		strategy string
	)
	cmd := &cobra.Command{
		Use:   "run DIR",
		Short: "Parse and rename every PDF under DIR without a review step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.scan(cmd, args[0], strategy, workers)
			if err != nil {
				return err
			}
			a.execute(cmd, plan.Files)
			return writeReport(report, plan.Files)
		},
	}
	cmd.Flags().StringVar(&report, "report", "", "write a CSV report of every decision to this file")
	addParseFlags(cmd, &workers, &strategy)
	return cmd
}
