// Package suite runs every lab check over a repository layout and collects
// the outcome in one report.
package suite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"labcheck/internal/config"
	"labcheck/internal/document"
	"labcheck/internal/inventory"
	"labcheck/internal/logger"
	"labcheck/internal/report"
	"labcheck/internal/schema"
	"labcheck/internal/validator"
)

const groupVarsPattern = "*.{yml,yaml}"

// MissingFileError reports a lab file that does not exist.
type MissingFileError struct {
	File string
}

func (e *MissingFileError) Error() string    { return fmt.Sprintf("%s: file not found", e.File) }
func (e *MissingFileError) Kind() string     { return "missing_file" }
func (e *MissingFileError) Filename() string { return e.File }

// NoMatchError reports a discovery pattern that matched nothing.
type NoMatchError struct {
	Pattern string
}

func (e *NoMatchError) Error() string    { return fmt.Sprintf("%s: no files match", e.Pattern) }
func (e *NoMatchError) Kind() string     { return "no_match" }
func (e *NoMatchError) Filename() string { return e.Pattern }

// Runner executes the checks for one project root.
type Runner struct {
	cfg *config.Config
	log *zap.Logger
}

// NewRunner returns a runner for cfg. A nil logger discards output.
func NewRunner(cfg *config.Config, log *zap.Logger) *Runner {
	return &Runner{cfg: cfg, log: logger.OrNop(log)}
}

// Run executes every check in a fixed order. A failing or missing file
// fails its own check only.
func (r *Runner) Run() *report.Report {
	rep := report.New(r.cfg.Root)

	r.checkInventory(rep)
	r.checkGroupVars(rep)
	r.checkMolecule(rep)
	r.checkWorkflow(rep)
	r.checkMakefile(rep)

	r.log.Info("suite finished",
		zap.String("root", r.cfg.Root),
		zap.Int("checks", len(rep.Checks)),
		zap.Int("failed", len(rep.Failed())),
		zap.Int("violations", rep.FindingCount()),
	)
	return rep
}

func (r *Runner) record(rep *report.Report, name, file string, errs []error) {
	r.log.Debug("check finished", zap.String("check", name), zap.String("file", file), zap.Int("violations", len(errs)))
	rep.Add(name, file, errs)
}

func loadError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return &MissingFileError{File: path}
	}
	return err
}

func (r *Runner) checkInventory(rep *report.Report) {
	path := r.cfg.Path(r.cfg.Layout.Inventory)

	doc, err := document.LoadINI(path, r.iniOptions())
	if err != nil {
		err = loadError(path, err)
		r.record(rep, "inventory groups", path, []error{err})
		r.record(rep, "inventory hosts", path, []error{err})
		return
	}

	rules, _ := schema.Rules(schema.DomainInventory)
	r.record(rep, "inventory groups", path, validator.Validate(doc, rules).Errors)
	r.record(rep, "inventory hosts", path, inventory.FromDocument(doc).Validate())
}

// GroupVarsFile is a group_vars file found on disk or required by the
// schema. Domain is empty for files no schema covers.
type GroupVarsFile struct {
	Group  string
	Path   string
	Domain schema.Domain
}

// GroupVarsFiles lists the required group_vars files followed by any other
// YAML files in the group_vars directory.
func (r *Runner) GroupVarsFiles() ([]GroupVarsFile, error) {
	dir := r.cfg.Path(r.cfg.Layout.GroupVars)

	var files []GroupVarsFile
	known := map[string]bool{}
	for _, gv := range schema.GroupVars() {
		known[gv.File] = true
		files = append(files, GroupVarsFile{Group: gv.Group, Path: filepath.Join(dir, gv.File), Domain: gv.Domain})
	}

	matches, err := doublestar.Glob(os.DirFS(dir), groupVarsPattern, doublestar.WithFilesOnly())
	if err != nil {
		return files, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(matches)
	for _, m := range matches {
		if known[m] {
			continue
		}
		files = append(files, GroupVarsFile{
			Group: strings.TrimSuffix(m, filepath.Ext(m)),
			Path:  filepath.Join(dir, m),
		})
	}
	return files, nil
}

func (r *Runner) checkGroupVars(rep *report.Report) {
	files, err := r.GroupVarsFiles()
	if err != nil {
		r.log.Warn("group_vars discovery failed", zap.Error(err))
	}

	for _, f := range files {
		name := "group_vars " + f.Group
		if f.Domain != "" {
			r.record(rep, name, f.Path, CheckFile(f.Path, f.Domain, r.iniOptions()))
			continue
		}
		if _, err := document.LoadYAML(f.Path); err != nil {
			r.record(rep, name, f.Path, []error{loadError(f.Path, err)})
			continue
		}
		r.record(rep, name, f.Path, nil)
	}
}

// MoleculeScenarios returns the scenario files matching the configured
// glob, sorted.
func (r *Runner) MoleculeScenarios() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(r.cfg.Root), r.cfg.Layout.MoleculeGlob, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", r.cfg.Layout.MoleculeGlob, err)
	}
	sort.Strings(matches)

	paths := make([]string, len(matches))
	for i, m := range matches {
		paths[i] = r.cfg.Path(filepath.FromSlash(m))
	}
	return paths, nil
}

// ScenarioName names a scenario by role and scenario directory when the
// path follows roles/<role>/molecule/<scenario>/.
func ScenarioName(path string) string {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	n := len(parts)
	if n >= 4 && parts[n-2] == "molecule" && parts[n-4] == "roles" {
		return parts[n-3] + "/" + parts[n-1]
	}
	return filepath.ToSlash(filepath.Dir(path))
}

func (r *Runner) checkMolecule(rep *report.Report) {
	scenarios, err := r.MoleculeScenarios()
	if err != nil {
		r.record(rep, "molecule scenarios", r.cfg.Layout.MoleculeGlob, []error{err})
		return
	}
	if len(scenarios) == 0 {
		r.record(rep, "molecule scenarios", r.cfg.Layout.MoleculeGlob, []error{&NoMatchError{Pattern: r.cfg.Layout.MoleculeGlob}})
		return
	}

	for _, path := range scenarios {
		r.record(rep, "molecule "+ScenarioName(path), path, checkScenario(path))
	}
}

func (r *Runner) checkWorkflow(rep *report.Report) {
	path := r.cfg.Path(r.cfg.Layout.Workflow)
	r.record(rep, "ci workflow", path, CheckFile(path, schema.DomainWorkflow, r.iniOptions()))
}

func (r *Runner) checkMakefile(rep *report.Report) {
	path := r.cfg.Path(r.cfg.Layout.Makefile)
	r.record(rep, "makefile targets", path, CheckFile(path, schema.DomainMakefile, r.iniOptions()))
}

func (r *Runner) iniOptions() document.INIOptions {
	return document.INIOptions{Strict: r.cfg.Inventory.Strict}
}
