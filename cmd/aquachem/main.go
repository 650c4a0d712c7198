package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aquachem/internal/config"
	"aquachem/internal/logging"
	"aquachem/internal/scenario"
	"aquachem/internal/store"
)

var (
	// Global flags
	verbose    bool
	configPath string
	noSave     bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "aquachem",
	Short: "aquachem - aqueous geochemistry from the command line",
	Long: `aquachem equilibrates multiphase aqueous systems: solution
speciation, ion exchange, mineral saturation and dissolution kinetics.

Scenarios are YAML documents naming a thermodynamic database, the
phases of the system and the recipe amounts. Run results are archived
in a local SQLite store for later inspection.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Logging.Verbose = true
		}
		logger, err = logging.New(cfg.Logging.Verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// runCmd executes a single scenario
var runCmd = &cobra.Command{
	Use:   "run <scenario.yaml>",
	Short: "Run one scenario and print its report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		s, err := scenario.Load(args[0])
		if err != nil {
			return err
		}
		opts := cfg.SolverOptions()
		s.Solver = &opts
		start := time.Now()
		report, err := s.Run(ctx, logger)
		if err != nil {
			return err
		}
		fmt.Print(report.String())

		if noSave {
			return nil
		}
		return saveReports([]savedRun{{source: args[0], report: report, elapsed: time.Since(start)}})
	},
}

type savedRun struct {
	source  string
	report  *scenario.Report
	elapsed time.Duration
}

func saveReports(runs []savedRun) error {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	for _, r := range runs {
		saved, err := st.Save(store.Run{
			Scenario:   r.report.Name,
			Source:     r.source,
			Report:     r.report.String(),
			Converged:  r.report.Result.Converged || len(r.report.Samples) > 0,
			Iterations: r.report.Result.Iterations,
			Residual:   r.report.Result.Residual,
			Elapsed:    r.elapsed,
		})
		if err != nil {
			return err
		}
		logger.Info("run archived",
			zap.String("id", saved.ID),
			zap.String("scenario", saved.Scenario))
	}
	return nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "configuration file")

	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not archive the run")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
