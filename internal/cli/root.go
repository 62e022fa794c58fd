// Package cli implements the labcheck command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"labcheck/internal/config"
	"labcheck/internal/logger"
	"labcheck/internal/report"
)

// Exit codes.
const (
	ExitOK         = 0
	ExitViolations = 1
	ExitUsage      = 2
	ExitFailure    = 3 // configuration, I/O or rule file problems of the tool itself
	ExitNotFound   = 4 // named baseline does not exist
)

// exitError carries an exit code out of a command. A nil err prints nothing.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

var errViolations = &exitError{code: ExitViolations}

func usageError(format string, args ...any) error {
	return &exitError{code: ExitUsage, err: fmt.Errorf(format, args...)}
}

func failure(format string, args ...any) error {
	return &exitError{code: ExitFailure, err: fmt.Errorf(format, args...)}
}

// flagKeys maps persistent flags onto configuration keys.
var flagKeys = map[string]string{
	"format":     "report.format",
	"log-level":  "log.level",
	"log-format": "log.format",
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	cfg    *config.Config
	log    *zap.Logger
}

// NewRootCommand builds the command tree writing to stdout and stderr.
func NewRootCommand(stdout, stderr io.Writer) *cobra.Command {
	return newRoot(&app{stdout: stdout, stderr: stderr, log: zap.NewNop()})
}

func newRoot(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "labcheck",
		Short: "Validate the configuration of a home-lab Ansible repository",
		Long: `labcheck checks a home-lab infrastructure repository before anything is
deployed: the inventory groups and hosts, the group_vars of every group, the
Molecule scenarios of each role, the CI lint workflow and the Makefile targets.

Settings come from .labcheck.yaml in the project root, LABCHECK_* environment
variables and flags, in increasing order of precedence.

Exit codes:
  0  all checks passed
  1  violations found
  2  usage error
  3  configuration or I/O failure
  4  baseline not found`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: ExitUsage, err: err}
	})

	pf := root.PersistentFlags()
	pf.StringP("root", "C", "", "project root (default \".\")")
	pf.String("config", "", "config file (default <root>/"+config.FileName+")")
	pf.StringP("format", "f", "", "report format: text, ci or json")
	pf.Bool("ci", false, "emit GitHub Actions annotations, same as --format ci")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: console or json")

	root.AddCommand(
		newCheckCommand(a),
		newValidateCommand(a),
		newSchemaCommand(a),
		newInventoryCommand(a),
		newBaselineCommand(a),
		newWatchCommand(a),
	)
	return root
}

// setup loads configuration and the logger before any subcommand runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "help" {
		return nil
	}
	flags := cmd.Flags()

	opts := config.Options{Overrides: map[string]any{}}
	opts.Root, _ = flags.GetString("root")
	opts.File, _ = flags.GetString("config")
	for flag, key := range flagKeys {
		if flags.Changed(flag) {
			v, _ := flags.GetString(flag)
			opts.Overrides[key] = v
		}
	}
	if ci, _ := flags.GetBool("ci"); ci {
		opts.Overrides["report.format"] = "ci"
	}
	if flags.Lookup("strict") != nil && flags.Changed("strict") {
		strict, _ := flags.GetBool("strict")
		opts.Overrides["inventory.strict"] = strict
	}

	cfg, err := config.Load(opts)
	if err != nil {
		return &exitError{code: ExitFailure, err: err}
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	if err != nil {
		return &exitError{code: ExitFailure, err: err}
	}

	a.cfg, a.log = cfg, log
	log.Debug("configuration loaded",
		zap.String("command", cmd.CommandPath()),
		zap.String("root", cfg.Root),
		zap.String("format", cfg.Report.Format),
	)
	return nil
}

// printReport writes a report in the configured format and converts a
// failed report into errViolations.
func (a *app) printReport(rep *report.Report) error {
	out, err := report.Format(*rep, a.cfg.Report.Format, a.styles())
	if err != nil {
		return failure("%w", err)
	}
	fmt.Fprint(a.stdout, out)
	if !rep.Passed {
		return errViolations
	}
	return nil
}

// styles colors text output when stdout is a terminal that accepts color.
func (a *app) styles() report.Styles {
	return report.NewStyles(lipgloss.NewRenderer(a.stdout))
}

// Execute runs labcheck with args and returns the process exit code.
// SIGINT and SIGTERM cancel long-running commands.
func Execute(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return ExecuteContext(ctx, args, stdout, stderr)
}

// ExecuteContext is Execute with a caller-supplied context.
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, log: zap.NewNop()}
	root := newRoot(a)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	_ = a.log.Sync()
	if err == nil {
		return ExitOK
	}

	var ee *exitError
	if !errors.As(err, &ee) {
		ee = &exitError{code: ExitUsage, err: err}
	}
	if ee.err != nil {
		fmt.Fprintln(stderr, "Error:", ee.err)
	}
	if ee.code == ExitUsage {
		fmt.Fprintln(stderr, "Run 'labcheck --help' for usage.")
	}
	return ee.code
}
