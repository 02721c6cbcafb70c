package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/statement-renamer/backend/internal/batch"
	"github.com/statement-renamer/backend/internal/parser"
)

type scanFlags struct {
	plan     string
	workers  int
	strategy string
}

func newScanCommand(a *app) *cobra.Command {
	var f scanFlags
	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Parse every PDF under DIR and write a reviewable rename plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := a.scan(cmd, args[0], f.strategy, f.workers)
			if err != nil {
				return err
			}
			if err := batch.SavePlan(f.plan, plan); err != nil {
				return err
			}
			printDecisions(cmd.OutOrStdout(), plan.Files)
			fmt.Fprintf(cmd.OutOrStdout(), "plan written to %s (%d files)\n", f.plan, len(plan.Files))
			return nil
		},
	}
	cmd.Flags().StringVar(&f.plan, "plan", "rename-plan.yaml", "where to write the plan")
	addParseFlags(cmd, &f.workers, &f.strategy)
	return cmd
}

func addParseFlags(cmd *cobra.Command, workers *int, strategy *string) {
	cmd.Flags().IntVar(workers, "workers", batch.DefaultWorkers, "files parsed in parallel")
	cmd.Flags().StringVar(strategy, "strategy", parser.StatementStrategyName, "field extraction strategy")
}

func (a *app) scan(cmd *cobra.Command, dir, strategyName string, workers int) (*batch.Plan, error) {
	strategy, err := a.strategy(strategyName)
	if err != nil {
		return nil, err
	}
	paths, err := a.store.ListPDFs(dir)
	if err != nil {
		return nil, err
	}

	processor := batch.NewProcessor(a.store, a.extractor, strategy, workers, a.logger)
	decisions, err := processor.Process(cmd.Context(), paths, nil)
	if err != nil {
		return nil, err
	}
	return batch.NewPlan(strategy.Name(), dir, decisions), nil
}

