package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"aquachem/internal/scenario"
)

var watchNoSave bool

// watchCmd re-runs scenario files when they change
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and run scenarios as they change",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		if err := watcher.Add(args[0]); err != nil {
			return fmt.Errorf("failed to watch %s: %w", args[0], err)
		}
		logger.Info("watching for scenario changes", zap.String("dir", args[0]))

		// Editors fire bursts of write events; the timer coalesces
		// them per file.
		pending := map[string]*time.Timer{}
		runs := make(chan string)

		for {
			select {
			case <-ctx.Done():
				return nil
			case path := <-runs:
				runWatched(ctx, path)
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				ext := strings.ToLower(filepath.Ext(event.Name))
				if ext != ".yaml" && ext != ".yml" {
					continue
				}
				path := event.Name
				if timer, ok := pending[path]; ok {
					timer.Stop()
				}
				pending[path] = time.AfterFunc(200*time.Millisecond, func() {
					select {
					case runs <- path:
					case <-ctx.Done():
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Warn("watcher error", zap.Error(err))
			}
		}
	},
}

func runWatched(ctx context.Context, path string) {
	s, err := scenario.Load(path)
	if err != nil {
		logger.Warn("scenario not loadable", zap.String("path", path), zap.Error(err))
		return
	}
	opts := cfg.SolverOptions()
	s.Solver = &opts
	start := time.Now()
	report, err := s.Run(ctx, logger)
	if err != nil {
		logger.Warn("scenario failed", zap.String("path", path), zap.Error(err))
		return
	}
	fmt.Printf("--- %s (%s)\n%s\n", path, time.Since(start).Round(time.Millisecond), report.String())

	if watchNoSave {
		return
	}
	if err := saveReports([]savedRun{{source: path, report: report, elapsed: time.Since(start)}}); err != nil {
		logger.Warn("failed to archive run", zap.Error(err))
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoSave, "no-save", false, "do not archive runs")
	rootCmd.AddCommand(watchCmd)
}
