package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labcheck/internal/suite"
	"labcheck/internal/watch"
)

func newWatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run the checks whenever a lab file changes",
		Long: `Run every check, then watch the inventory, group_vars, Molecule scenario,
workflow and Makefile directories and run them again once changes settle
for watch.debounce. Stops on Ctrl+C.

Roles added while watching are picked up on the next start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWatch(cmd.Context())
		},
	}
	cmd.Flags().Bool("strict", false, "reject inventory groups declared more than once")
	return cmd
}

func (a *app) runWatch(ctx context.Context) error {
	runner := suite.NewRunner(a.cfg, a.log)
	runOnce := func() {
		if err := a.printReport(runner.Run()); err != nil && err != errViolations {
			a.log.Error("cannot print report", zap.Error(err))
		}
	}

	w, err := watch.New(watch.Options{
		Dirs:     runner.WatchDirs(),
		Relevant: runner.Relevant,
		Debounce: a.cfg.Watch.Debounce,
		Logger:   a.log,
	})
	if err != nil {
		return failure("%w", err)
	}

	runOnce()
	fmt.Fprintf(a.stderr, "Watching %d directories for changes. Press Ctrl+C to stop.\n", len(w.Dirs()))

	err = w.Run(ctx, func(changed []string) {
		a.log.Info("files changed", zap.Strings("files", changed))
		fmt.Fprintf(a.stdout, "\n↻ %d file(s) changed, re-running checks\n\n", len(changed))
		runOnce()
	})
	if err != nil {
		return failure("%w", err)
	}
	return nil
}
