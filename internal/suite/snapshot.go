package suite

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"labcheck/internal/artifact"
	"labcheck/internal/document"
	"labcheck/internal/schema"
)

// Snapshot flattens every group_vars file into a config artifact, digesting
// secrets with key. It also returns the file of each group, for annotating
// drift. Missing files are left out; a file that does not parse is an error.
func (r *Runner) Snapshot(key artifact.SecretKey) (artifact.ConfigArtifact, map[string]string, error) {
	files, err := r.GroupVarsFiles()
	if err != nil {
		return artifact.ConfigArtifact{}, nil, err
	}

	var groups []artifact.Group
	paths := make(map[string]string)
	for _, f := range files {
		doc, err := document.LoadYAML(f.Path)
		if errors.Is(err, fs.ErrNotExist) {
			r.log.Debug("group_vars file absent from snapshot", zap.String("file", f.Path))
			continue
		}
		if err != nil {
			return artifact.ConfigArtifact{}, nil, err
		}

		g := artifact.Group{Name: f.Group, Doc: doc}
		if f.Domain != "" {
			rules, err := schema.Rules(f.Domain)
			if err != nil {
				return artifact.ConfigArtifact{}, nil, err
			}
			g.Secrets = artifact.SecretKeys(rules)
		}
		groups = append(groups, g)
		paths[f.Group] = f.Path
	}

	a := artifact.Build(groups, key)
	r.log.Debug("snapshot built", zap.Int("groups", len(groups)), zap.String("configVersion", a.ConfigVersion))
	return a, paths, nil
}

// WatchDirs lists the directories holding the suite's inputs. Only
// directories that exist are returned.
func (r *Runner) WatchDirs() []string {
	seen := map[string]bool{}
	var dirs []string
	add := func(dir string) {
		if !seen[dir] && isDir(dir) {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}

	add(filepath.Dir(r.cfg.Path(r.cfg.Layout.Inventory)))
	add(r.cfg.Path(r.cfg.Layout.GroupVars))
	add(filepath.Dir(r.cfg.Path(r.cfg.Layout.Workflow)))
	add(filepath.Dir(r.cfg.Path(r.cfg.Layout.Makefile)))
	if scenarios, err := r.MoleculeScenarios(); err == nil {
		for _, s := range scenarios {
			add(filepath.Dir(s))
		}
	}
	return dirs
}

// Relevant reports whether a change to file can affect the suite.
func (r *Runner) Relevant(file string) bool {
	rel, err := filepath.Rel(r.cfg.Root, file)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)

	patterns := []string{
		filepath.ToSlash(r.cfg.Layout.Inventory),
		filepath.ToSlash(r.cfg.Layout.GroupVars) + "/" + groupVarsPattern,
		r.cfg.Layout.MoleculeGlob,
		filepath.ToSlash(r.cfg.Layout.Workflow),
		filepath.ToSlash(r.cfg.Layout.Makefile),
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(path.Clean(p), rel); ok {
			return true
		}
	}
	return false
}

func isDir(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}
