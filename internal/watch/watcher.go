// Package watch re-runs a build when template files change.
//
// Events are filtered with the same doublestar patterns the scanner uses and
// coalesced over a debounce window; a callback that is still running when the
// next window closes is never started twice.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"overrider/internal/scan"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

var defaultIgnores = []string{
	"**/.git/**",
	"**/.overrider/**",
	"**/*.swp",
	"**/*~",
	"**/.#*",
}

// Config configures a Watcher.
type Config struct {
	BaseDir string
	// Patterns select files whose changes trigger a run, relative to BaseDir.
	Patterns []string
	// Ignore is merged with the built-in ignores; generated outputs belong here.
	Ignore   []string
	Debounce time.Duration
	// OnChange receives the sorted changed paths, relative to BaseDir.
	OnChange func(ctx context.Context, changed []string) error
	Logger   *log.Logger
}

// Watcher monitors BaseDir recursively. Run may be called once.
type Watcher struct {
	cfg      Config
	fsw      *fsnotify.Watcher
	base     string
	ignores  []string
	debounce time.Duration
	logger   *log.Logger
	started  atomic.Bool

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	closed  bool
	running atomic.Bool
	fires   sync.WaitGroup
}

// New validates the patterns and registers every non-ignored directory.
func New(cfg Config) (*Watcher, error) {
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %q: %w", base, err)
	}
	for _, pat := range slices.Concat(cfg.Patterns, cfg.Ignore) {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid pattern %q: %w", pat, doublestar.ErrBadPattern)
		}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		base:     abs,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
	if err := w.addTree(abs); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is cancelled. It waits for an in-flight
// callback before returning.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}
	defer w.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// события потеряны, пересобираем всё
				w.schedule(ctx, ".")
				continue
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	rel := w.rel(ev.Name)
	if w.ignored(rel) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addTree(ev.Name); err != nil {
				w.logger.Warn("cannot watch new directory", "dir", rel, "err", err)
			}
			return
		}
	}
	if ev.Op == fsnotify.Chmod || !w.selected(rel) {
		return
	}
	w.schedule(ctx, rel)
}

func (w *Watcher) schedule(ctx context.Context, rel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.pending[rel] = struct{}{}
	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, func() { w.fire(ctx) })
		return
	}
	w.timer.Reset(w.debounce)
}

func (w *Watcher) fire(ctx context.Context) {
	w.mu.Lock()
	if w.closed || ctx.Err() != nil {
		w.mu.Unlock()
		return
	}
	if !w.running.CompareAndSwap(false, true) {
		// предыдущая сборка ещё идёт, изменения не теряем
		w.logger.Debug("build still running, postponing")
		w.timer.Reset(w.debounce)
		w.mu.Unlock()
		return
	}
	w.fires.Add(1)
	changed := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()

	defer w.fires.Done()
	defer w.running.Store(false)
	if len(changed) == 0 || w.cfg.OnChange == nil {
		return
	}
	if err := w.cfg.OnChange(ctx, changed); err != nil {
		w.logger.Error("rebuild failed", "err", err)
	}
}

func (w *Watcher) shutdown() {
	w.mu.Lock()
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	w.fires.Wait()
	if err := w.fsw.Close(); err != nil {
		w.logger.Warn("close watcher", "err", err)
	}
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.rel(path); rel != "." && (w.ignored(rel) || w.ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %q: %w", path, err)
		}
		return nil
	})
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.base, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) ignored(rel string) bool {
	return scan.Match(rel, w.ignores)
}

func (w *Watcher) selected(rel string) bool {
	if len(w.cfg.Patterns) == 0 {
		return true
	}
	return scan.Match(rel, w.cfg.Patterns)
}
