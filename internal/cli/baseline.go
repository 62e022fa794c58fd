package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"labcheck/internal/baseline"
	"labcheck/internal/suite"
)

func newBaselineCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Manage group variable baselines for drift detection",
		Long: `A baseline is a named snapshot of every group variable. 'labcheck check
--detect-drift NAME' reports what changed since it was saved. Secrets are
stored as keyed digests only; the key is secret.key in the same directory.

Baselines live in baseline.dir, by default ~/.labcheck/baselines.`,
	}
	cmd.PersistentFlags().Bool("json", false, "print as JSON")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "save NAME",
			Short: "Snapshot the current group variables",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runBaselineSave(args[0])
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List saved baselines",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				asJSON, _ := cmd.Flags().GetBool("json")
				return a.runBaselineList(asJSON)
			},
		},
		&cobra.Command{
			Use:   "show NAME",
			Short: "Print a saved baseline",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				asJSON, _ := cmd.Flags().GetBool("json")
				return a.runBaselineShow(args[0], asJSON)
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a saved baseline",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.runBaselineDelete(args[0])
			},
		},
	)
	return cmd
}

func (a *app) runBaselineSave(name string) error {
	store := a.store()
	key, err := store.SecretKey()
	if err != nil {
		return failure("cannot load secret key: %w", err)
	}
	snap, _, err := suite.NewRunner(a.cfg, a.log).Snapshot(key)
	if err != nil {
		return failure("cannot snapshot group variables: %w", err)
	}

	root, err := filepath.Abs(a.cfg.Root)
	if err != nil {
		root = a.cfg.Root
	}

	b := baseline.Baseline{
		Name:         name,
		Root:         root,
		ConfigHash:   snap.ConfigVersion,
		ConfigValues: snap.Values,
		Timestamp:    time.Now().UTC(),
	}
	if err := store.Save(b); err != nil {
		if errors.Is(err, baseline.ErrInvalidName) {
			return usageError("%w: %q", err, name)
		}
		return failure("cannot save baseline: %w", err)
	}

	fmt.Fprintf(a.stdout, "✓ Saved baseline '%s' (%d variables, %s)\n", name, len(b.ConfigValues), shortHash(b.ConfigHash))
	return nil
}

func (a *app) runBaselineList(asJSON bool) error {
	summaries, err := a.store().List()
	if err != nil {
		return failure("cannot list baselines: %w", err)
	}

	if asJSON {
		if summaries == nil {
			summaries = []baseline.BaselineSummary{}
		}
		return a.printJSON(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(a.stdout, "No baselines found")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(a.stdout, "%s  %s  %d keys  %s  %s\n", s.Name, shortHash(s.ConfigHash), s.Keys, s.Timestamp.Format(time.RFC3339), s.Root)
	}
	return nil
}

func (a *app) runBaselineShow(name string, asJSON bool) error {
	b, err := a.loadBaseline(name)
	if err != nil {
		return err
	}
	if asJSON {
		return a.printJSON(b)
	}

	fmt.Fprintf(a.stdout, "Name:        %s\n", b.Name)
	fmt.Fprintf(a.stdout, "Root:        %s\n", b.Root)
	fmt.Fprintf(a.stdout, "ConfigHash:  %s\n", b.ConfigHash)
	fmt.Fprintf(a.stdout, "Timestamp:   %s\n", b.Timestamp.Format(time.RFC3339))
	fmt.Fprintln(a.stdout, "Variables:")
	keys := make([]string, 0, len(b.ConfigValues))
	for k := range b.ConfigValues {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.stdout, "  %s: %s\n", k, b.ConfigValues[k])
	}
	return nil
}

func (a *app) runBaselineDelete(name string) error {
	if err := a.store().Delete(name); err != nil {
		switch {
		case errors.Is(err, baseline.ErrBaselineNotFound):
			return &exitError{code: ExitNotFound, err: fmt.Errorf("baseline not found: %s", name)}
		case errors.Is(err, baseline.ErrInvalidName):
			return usageError("%w: %q", err, name)
		}
		return failure("cannot delete baseline: %w", err)
	}
	fmt.Fprintf(a.stdout, "Deleted baseline: %s\n", name)
	return nil
}

func (a *app) printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return failure("cannot serialize output: %w", err)
	}
	fmt.Fprintln(a.stdout, string(data))
	return nil
}

// shortHash abbreviates a "sha256:" digest for listings.
func shortHash(h string) string {
	if len(h) <= 19 {
		return h
	}
	return h[:19] + "…"
}
