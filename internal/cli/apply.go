package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/statement-renamer/backend/internal/batch"
	"github.com/statement-renamer/backend/internal/models"
	"github.com/statement-renamer/backend/internal/rename"
)

func newApplyCommand(a *app) *cobra.Command {
	var report string
	cmd := &cobra.Command{
		Use:   "apply PLAN",
		Short: "Rename files as described by a reviewed plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := batch.LoadPlan(args[0])
			if err != nil {
				return err
			}
			if err := plan.Validate(); err != nil {
				return err
			}

			summary := a.execute(cmd, plan.Files)
			plan.MarkApplied(summary)
			// record outcomes so the same plan cannot be applied twice
			if err := batch.SavePlan(args[0], plan); err != nil {
				return err
			}
			return writeReport(report, plan.Files)
		},
	}
	cmd.Flags().StringVar(&report, "report", "", "write a CSV report of every decision to this file")
	return cmd
}

func (a *app) execute(cmd *cobra.Command, decisions []*models.RenameDecision) models.RenameSummary {
	summary := rename.NewExecutor(a.store, a.logger).Execute(decisions)
	printDecisions(cmd.OutOrStdout(), decisions)
	printSummary(cmd.OutOrStdout(), summary)
	return summary
}

func writeReport(path string, decisions []*models.RenameDecision) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()
	return batch.WriteReport(f, decisions)
}
