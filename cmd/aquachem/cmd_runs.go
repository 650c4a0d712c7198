package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"aquachem/internal/store"
)

var runsLimit int

// runsCmd inspects the run archive
var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect archived runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		runs, err := st.List(runsLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("no archived runs")
			return nil
		}
		fmt.Printf("%-36s %-24s %-10s %6s %10s %s\n",
			"ID", "SCENARIO", "CONVERGED", "ITERS", "ELAPSED", "WHEN")
		for _, run := range runs {
			fmt.Printf("%-36s %-24s %-10v %6d %10s %s\n",
				run.ID, run.Scenario, run.Converged, run.Iterations,
				run.Elapsed.Round(time.Millisecond),
				run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the full report of one run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Run %s (%s, archived %s)\n\n",
			run.ID, run.Scenario, run.CreatedAt.Local().Format(time.RFC3339))
		fmt.Print(run.Report)
		return nil
	},
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one archived run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer st.Close()
		return st.Delete(args[0])
	},
}

func init() {
	runsListCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum runs to list")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}
