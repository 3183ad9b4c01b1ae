// Package watch rebuilds documentation when input files change.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc runs one build. Its errors are logged and do not stop watching.
type RebuildFunc func(ctx context.Context) error

// Watcher runs a build once and again after every settled burst of changes
// below its roots.
type Watcher struct {
	roots    []string
	ignored  []string
	debounce time.Duration
	rebuild  RebuildFunc
	logger   *slog.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnoredDirs skips events below dirs, typically the output directory.
func WithIgnoredDirs(dirs ...string) Option {
	return func(w *Watcher) {
		for _, d := range dirs {
			if d == "" {
				continue
			}
			if abs, err := filepath.Abs(d); err == nil {
				w.ignored = append(w.ignored, abs)
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Watcher for roots.
func New(roots []string, rebuild RebuildFunc, opts ...Option) *Watcher {
	w := &Watcher{
		roots:    roots,
		debounce: DefaultDebounce,
		rebuild:  rebuild,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run builds once, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.WrapError(err, errors.CategoryRuntime, "failed to create file watcher").Build()
	}
	defer func() { _ = fsw.Close() }()

	watched := 0
	for _, root := range w.roots {
		watched += w.addDirsRecursive(fsw, root)
	}
	if watched == 0 {
		return errors.ConfigError("nothing to watch").
			WithContext("roots", w.roots).
			Build()
	}
	w.logger.Info("Watching for changes", logfields.Count(watched))

	rebuildReq := make(chan struct{}, 1)
	rebuildReq <- struct{}{}
	trigger, stop := w.debouncer(rebuildReq)
	defer stop()

	workerCtx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.rebuildWorker(workerCtx, rebuildReq)
	}()
	defer func() {
		cancel()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping watcher")
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev, trigger)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// debouncer returns a trigger that requests a rebuild once no trigger has
// fired for the debounce delay. The request channel holds at most one
// pending rebuild.
func (w *Watcher) debouncer(rebuildReq chan<- struct{}) (trigger, stop func()) {
	var mu sync.Mutex
	var timer *time.Timer
	trigger = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case rebuildReq <- struct{}{}:
			default:
			}
		})
	}
	stop = func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return trigger, stop
}

func (w *Watcher) rebuildWorker(ctx context.Context, rebuildReq <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuildReq:
			start := time.Now()
			if err := w.rebuild(ctx); err != nil {
				w.logger.Warn("Rebuild failed", logfields.Error(err))
				continue
			}
			w.logger.Info("Rebuilt documentation", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if shouldIgnoreEvent(ev.Name) || w.inIgnoredDir(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fsw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), "op", ev.Op.String())
	trigger()
}

func (w *Watcher) inIgnoredDir(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	return slices.ContainsFunc(w.ignored, func(dir string) bool {
		return abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator))
	})
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) int {
	added := 0
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && (strings.HasPrefix(d.Name(), ".") || w.inIgnoredDir(path)) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			return nil
		}
		added++
		return nil
	})
	return added
}

// shouldIgnoreEvent reports editor temporaries and hidden files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	}
	return false
}

// Roots returns the existing directories to watch for a list of glob
// patterns: the longest leading part of each pattern without glob
// metacharacters, or its parent when that is a file.
func Roots(patterns []string) []string {
	var roots []string
	for _, p := range patterns {
		dir := literalPrefix(p)
		fi, err := os.Stat(dir)
		if err != nil {
			continue
		}
		if !fi.IsDir() {
			dir = filepath.Dir(dir)
		}
		roots = append(roots, filepath.Clean(dir))
	}
	slices.Sort(roots)
	roots = slices.Compact(roots)
	// Nested roots are covered by their ancestor.
	var out []string
	for _, r := range roots {
		nested := slices.ContainsFunc(roots, func(other string) bool {
			return other != r && strings.HasPrefix(r, other+string(filepath.Separator))
		})
		if !nested {
			out = append(out, r)
		}
	}
	return out
}

func literalPrefix(pattern string) string {
	if !strings.ContainsAny(pattern, "*?[") {
		return pattern
	}
	dir := pattern
	for strings.ContainsAny(dir, "*?[") {
		dir = filepath.Dir(dir)
	}
	return dir
}
