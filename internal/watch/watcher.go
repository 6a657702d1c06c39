// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds a package when its inputs change.
//
// A Watcher monitors a set of files and folders and invokes a callback after
// a debounce period. Events within the debounce window are coalesced so the
// callback fires once with the full set of changed paths.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is the delay before firing the onChange callback after the
// last filesystem event. Editors that write then rename a temp file produce
// several events for one save.
const defaultDebounce = 500 * time.Millisecond

// defaultIgnores lists path patterns that never trigger a rebuild.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.DS_Store",
	"**/Thumbs.db",
}

// ErrNoPaths is returned by New when there is nothing to watch.
var ErrNoPaths = errors.New("watch: no paths to watch")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Paths are the files and folders to watch. Folders are watched
		// recursively; files are watched individually.
		Paths []string

		// Ignore are additional doublestar-compatible glob patterns, matched
		// against the slash-separated path relative to the watched folder.
		// These are merged with the built-in default ignores.
		Ignore []string

		// Exclude lists files and directories that never trigger callbacks,
		// typically the build outputs.
		Exclude []string

		// Debounce is the quiet period after the last event before the callback
		// fires. Zero or negative values fall back to defaultDebounce.
		Debounce time.Duration

		// OnChange is called after the debounce window closes with the
		// deduplicated, sorted list of changed paths. A nil callback is a
		// no-op.
		OnChange func(ctx context.Context, changed []string) error

		// Logger receives informational and error messages. nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors filesystem paths and fires a debounced callback when
	// they change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		ignores  []string
		logger   *log.Logger
		debounce time.Duration
		folders  []string
		files    map[string]bool
		exclude  []string
		started  atomic.Bool
	}
)

// New creates a Watcher from the given Config. It resolves every path, and
// registers folders recursively and the parent directory of every file.
// Paths that do not exist yet are watched through their parent directory.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPaths
	}

	if err := validatePatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	ignores := make([]string, 0, len(defaultIgnores)+len(cfg.Ignore))
	ignores = append(ignores, defaultIgnores...)
	ignores = append(ignores, cfg.Ignore...)

	w := &Watcher{
		cfg:      cfg,
		ignores:  ignores,
		logger:   logger,
		debounce: debounce,
		files:    map[string]bool{},
	}

	for _, dir := range cfg.Exclude {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return nil, fmt.Errorf("watch: resolve %q: %w", dir, err)
		}
		w.exclude = append(w.exclude, abs)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}
	w.fsw = fsw

	if err := w.addPaths(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Warn("watch: close after init failure", "err", closeErr)
		}
		return nil, err
	}

	return w, nil
}

// Run blocks until ctx is cancelled, processing filesystem events and
// dispatching debounced callbacks. It returns nil on clean context
// cancellation and propagates fatal watcher errors.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation because it is scheduled by
	// time.AfterFunc. A busy previous callback defers the batch to the next
	// debounce tick instead of running concurrently.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Info("rebuild still in progress, deferring changes")
			mu.Lock()
			if timer != nil {
				timer.Reset(w.debounce)
			}
			mu.Unlock()
			return
		}
		defer running.Store(false)

		mu.Lock()
		if len(pending) == 0 {
			mu.Unlock()
			return
		}
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		localTimer := timer
		mu.Unlock()
		if localTimer != nil {
			localTimer.Stop()
		}
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("watch: close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watch: fsnotify event channel closed unexpectedly")
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}

			path := filepath.Clean(evt.Name)
			if !w.relevant(path) {
				continue
			}

			// Directories created after startup extend the recursive watch.
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(path)
			}

			w.logger.Debug("change detected", "path", path, "op", evt.Op.String())

			mu.Lock()
			pending[path] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("watch: fsnotify error", "err", err)
		}
	}
}

// Folders returns the resolved folders being watched recursively.
func (w *Watcher) Folders() []string { return slices.Clone(w.folders) }

// Files returns the resolved individual files being watched, sorted.
func (w *Watcher) Files() []string { return slices.Sorted(maps.Keys(w.files)) }

func (w *Watcher) addPaths() error {
	parents := map[string]bool{}
	for _, p := range w.cfg.Paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("watch: resolve %q: %w", p, err)
		}

		info, statErr := os.Stat(abs)
		if statErr == nil && info.IsDir() {
			w.folders = append(w.folders, abs)
			if err := w.addTree(abs); err != nil {
				return err
			}
			continue
		}

		w.files[abs] = true
		parents[filepath.Dir(abs)] = true
	}

	for dir := range parents {
		if err := w.fsw.Add(dir); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", dir, err)
		}
	}
	return nil
}

// addTree registers root and every non-ignored directory below it.
func (w *Watcher) addTree(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("watch: skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // inaccessible subtrees are skipped
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (w.excluded(path) || w.ignoredUnder(root, path) || w.ignoredUnder(root, path+string(filepath.Separator))) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, addErr)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir adds path to the fsnotify watcher if it is a directory below
// a watched folder.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if _, ok := w.folderOf(path); !ok {
		return
	}
	if err := w.addTree(path); err != nil {
		w.logger.Warn("watch: add new directory", "path", path, "err", err)
	}
}

// relevant reports whether an event on path should schedule a callback.
func (w *Watcher) relevant(path string) bool {
	if w.excluded(path) {
		return false
	}
	if w.files[path] {
		return !w.ignoredName(filepath.Base(path))
	}
	root, ok := w.folderOf(path)
	if !ok {
		return false
	}
	return !w.ignoredUnder(root, path)
}

func (w *Watcher) folderOf(path string) (string, bool) {
	for _, folder := range w.folders {
		if path == folder || strings.HasPrefix(path, folder+string(filepath.Separator)) {
			return folder, true
		}
	}
	return "", false
}

func (w *Watcher) excluded(path string) bool {
	for _, dir := range w.exclude {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// ignoredUnder matches path, relative to the watched folder root, against
// the ignore patterns. The folder's own name is the first path segment.
func (w *Watcher) ignoredUnder(root, path string) bool {
	rel, err := filepath.Rel(filepath.Dir(root), path)
	if err != nil {
		return false
	}
	return w.ignoredName(rel)
}

func (w *Watcher) ignoredName(rel string) bool {
	normalized := filepath.ToSlash(rel)
	for _, pat := range w.ignores {
		if matched, matchErr := doublestar.Match(pat, normalized); matchErr == nil && matched {
			return true
		}
	}
	return false
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []string {
	return slices.Clone(defaultIgnores)
}

// validatePatterns checks that every pattern in the slice is a valid doublestar
// glob.
func validatePatterns(patterns []string) error {
	for _, pat := range patterns {
		if !doublestar.ValidatePattern(pat) {
			return fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}
	return nil
}
