// Package watch re-runs work when lab files change.
package watch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"labcheck/internal/logger"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// Options configure a Watcher.
type Options struct {
	Dirs     []string          // directories to watch, not recursive
	Relevant func(string) bool // filters changed paths; nil accepts all
	Debounce time.Duration     // quiet period before onChange fires
	Logger   *zap.Logger
}

// Watcher collects file changes in a set of directories and reports them in
// batches once the changes settle.
type Watcher struct {
	fsw      *fsnotify.Watcher
	dirs     []string
	relevant func(string) bool
	debounce time.Duration
	log      *zap.Logger
}

// New starts watching opts.Dirs. Directories that cannot be watched are
// logged and skipped; it is an error if none can be.
func New(opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		relevant: opts.Relevant,
		debounce: opts.Debounce,
		log:      logger.OrNop(opts.Logger),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.relevant == nil {
		w.relevant = func(string) bool { return true }
	}

	for _, dir := range opts.Dirs {
		if err := fsw.Add(dir); err != nil {
			w.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
			continue
		}
		w.dirs = append(w.dirs, dir)
	}
	if len(w.dirs) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("no watchable directories among %v", opts.Dirs)
	}

	w.log.Debug("watching", zap.Strings("dirs", w.dirs), zap.Duration("debounce", w.debounce))
	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Run delivers batches of changed paths to onChange until ctx is cancelled.
// onChange runs on the Run goroutine, so batches never overlap. Run closes
// the watcher before returning.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	defer w.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}
			w.log.Debug("change", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			pending[event.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			onChange(changed)
		}
	}
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
