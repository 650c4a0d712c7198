package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aquachem/internal/batch"
)

var batchNoSave bool

// batchCmd runs many scenarios concurrently
var batchCmd = &cobra.Command{
	Use:   "batch <scenario.yaml>...",
	Short: "Run scenarios concurrently and archive the results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		runner := batch.NewRunner(cfg.Batch.Concurrency, logger)
		runner.SetSolverOptions(cfg.SolverOptions())
		start := time.Now()
		items, err := runner.RunFiles(ctx, args)
		if err != nil {
			return err
		}

		var saved []savedRun
		for _, item := range items {
			if item.Err != nil {
				fmt.Printf("FAIL %-40s %v\n", item.Path, item.Err)
				continue
			}
			fmt.Printf("ok   %-40s %s (%s)\n", item.Path, item.Name, item.Elapsed.Round(time.Millisecond))
			saved = append(saved, savedRun{source: item.Path, report: item.Report, elapsed: item.Elapsed})
		}
		fmt.Printf("%d scenarios, %d failed, %s total\n",
			len(items), len(batch.Failed(items)), time.Since(start).Round(time.Millisecond))

		if !batchNoSave && len(saved) > 0 {
			if err := saveReports(saved); err != nil {
				return err
			}
		}
		if failed := batch.Failed(items); len(failed) > 0 {
			return fmt.Errorf("%d of %d scenarios failed", len(failed), len(items))
		}
		return nil
	},
}

func init() {
	batchCmd.Flags().BoolVar(&batchNoSave, "no-save", false, "do not archive the runs")
	rootCmd.AddCommand(batchCmd)
}
