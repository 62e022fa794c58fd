package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labcheck/internal/baseline"
	"labcheck/internal/drift"
	"labcheck/internal/report"
	"labcheck/internal/suite"
)

func newCheckCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run every lab check against the project",
		Long: `Run every check against the project and print one report. Each file is
checked on its own; a missing or broken file fails its check only.

Examples:
  labcheck check
  labcheck check --ci
  labcheck check --artifact-file build/config-artifact.json
  labcheck check --detect-drift release-2026-10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			artifactFile, _ := cmd.Flags().GetString("artifact-file")
			driftName, _ := cmd.Flags().GetString("detect-drift")
			return a.runCheck(artifactFile, driftName)
		},
	}

	cmd.Flags().Bool("strict", false, "reject inventory groups declared more than once")
	cmd.Flags().String("artifact-file", "", "write the config artifact to this file when every check passes")
	cmd.Flags().String("detect-drift", "", "compare group variables against the named baseline")
	return cmd
}

// checkOutput is the JSON document of a check run with drift detection.
type checkOutput struct {
	*report.Report
	Drift *drift.DriftReport `json:"drift,omitempty"`
}

func (a *app) runCheck(artifactFile, driftName string) error {
	var base *baseline.Baseline
	if driftName != "" {
		b, err := a.loadBaseline(driftName)
		if err != nil {
			return err
		}
		base = &b
	}

	runner := suite.NewRunner(a.cfg, a.log)
	rep := runner.Run()

	var driftReport *drift.DriftReport
	var groupFiles map[string]string
	if artifactFile != "" || base != nil {
		key, err := a.store().SecretKey()
		if err != nil {
			return failure("cannot load secret key: %w", err)
		}
		snap, files, err := runner.Snapshot(key)
		if err != nil {
			a.log.Warn("group variables could not be snapshotted", zap.Error(err))
		} else {
			groupFiles = files
			if artifactFile != "" {
				if rep.Passed {
					if err := snap.WriteToFile(artifactFile); err != nil {
						return failure("cannot write artifact: %s: %w", artifactFile, err)
					}
					a.log.Info("artifact written", zap.String("file", artifactFile), zap.String("configVersion", snap.ConfigVersion))
				} else {
					a.log.Warn("checks failed, artifact not written", zap.String("file", artifactFile))
				}
			}
			if base != nil {
				d := drift.Detect(*base, snap)
				driftReport = &d
			}
		}
	}

	if driftReport == nil {
		return a.printReport(rep)
	}

	switch a.cfg.Report.Format {
	case "json":
		data, err := json.MarshalIndent(checkOutput{Report: rep, Drift: driftReport}, "", "  ")
		if err != nil {
			return failure("cannot serialize report: %w", err)
		}
		fmt.Fprintln(a.stdout, string(data))
		if !rep.Passed {
			return errViolations
		}
		return nil
	case "ci":
		err := a.printReport(rep)
		fmt.Fprint(a.stdout, drift.FormatCI(*driftReport, groupFiles, a.cfg.Path(a.cfg.Layout.GroupVars)))
		return err
	default:
		err := a.printReport(rep)
		if driftReport.HasDrift {
			fmt.Fprint(a.stdout, "\n"+drift.FormatCLI(*driftReport))
		} else {
			fmt.Fprintf(a.stdout, "\nNo variable drift since baseline '%s'\n", driftReport.BaselineName)
		}
		return err
	}
}

func (a *app) store() *baseline.Store {
	return baseline.NewStore(baseline.ResolveDir(a.cfg.Baseline.Dir), a.log)
}

func (a *app) loadBaseline(name string) (baseline.Baseline, error) {
	b, err := a.store().Load(name)
	switch {
	case errors.Is(err, baseline.ErrBaselineNotFound):
		return b, &exitError{code: ExitNotFound, err: fmt.Errorf("baseline not found: %s", name)}
	case errors.Is(err, baseline.ErrInvalidName):
		return b, usageError("%w: %q", err, name)
	case err != nil:
		return b, failure("cannot load baseline: %w", err)
	}
	return b, nil
}
