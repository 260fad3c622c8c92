// SPDX-License-Identifier: MPL-2.0

// Package watch rebuilds on source changes.
//
// A Watcher monitors a project tree for files matching glob patterns (by
// default every CakeML source file) and invokes a callback once the tree has
// been quiet for the debounce period. Events inside the window are coalesced
// so the callback fires once with the full set of changed paths.
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

	"github.com/cakedeps/cakedeps/pkg/types"
)

const (
	// SourcePattern selects CakeML source files anywhere below the root.
	SourcePattern GlobPattern = "**/*.cml"

	defaultDebounce = 300 * time.Millisecond

	clearScreenSeq = "\033[2J\033[H"
)

// defaultIgnores are excluded regardless of Config.Ignore.
var defaultIgnores = []GlobPattern{
	"**/.git/**",
	"**/*.swp",
	"**/*.swo",
	"**/*~",
	"**/.#*",
	"**/.DS_Store",
	"**/.cakedeps-*.tmp",
}

// ErrInvalidWatchConfig is the sentinel error wrapped by InvalidWatchConfigError.
var ErrInvalidWatchConfig = errors.New("invalid watch config")

type (
	// GlobPattern is a doublestar pattern matched against slash-separated
	// paths relative to the watched root.
	GlobPattern string

	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the directory tree to watch. Empty means the current
		// directory.
		Root types.FilesystemPath

		// Patterns select the files that trigger a rebuild. Empty means
		// SourcePattern.
		Patterns []GlobPattern

		// Ignore lists extra patterns that never trigger a rebuild, such as
		// the build directory or a concatenation output inside Root.
		Ignore []GlobPattern

		// Debounce is the quiet period before OnChange fires. Zero or
		// negative values fall back to 300ms.
		Debounce time.Duration

		// ClearScreen writes an ANSI clear sequence to Stdout before each
		// rebuild. Callers decide whether Stdout is a terminal.
		ClearScreen bool

		// OnChange receives the sorted, deduplicated changed paths relative
		// to Root. Errors are logged and the watcher keeps running.
		OnChange func(ctx context.Context, changed []string) error

		Stdout io.Writer
		Logger *log.Logger
	}

	// InvalidWatchConfigError is returned when Config has invalid fields.
	InvalidWatchConfigError struct {
		FieldErrors []error
	}

	// Watcher monitors a tree and fires a debounced callback when matching
	// files change. Run must be called exactly once.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		patterns []GlobPattern
		ignores  []GlobPattern
		stdout   io.Writer
		logger   *log.Logger
		debounce time.Duration
		root     string
		started  atomic.Bool
	}
)

// Validate reports an empty or malformed glob pattern.
func (g GlobPattern) Validate() error {
	if strings.TrimSpace(string(g)) == "" {
		return errors.New("glob pattern must not be empty")
	}
	if !doublestar.ValidatePattern(string(g)) {
		return fmt.Errorf("invalid glob pattern %q", g)
	}
	return nil
}

// Match reports whether the slash-separated relative path matches.
func (g GlobPattern) Match(rel string) bool {
	ok, err := doublestar.Match(string(g), rel)
	return err == nil && ok
}

// Validate collects every invalid field.
func (c Config) Validate() error {
	var errs []error
	for _, p := range c.Patterns {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("patterns: %w", err))
		}
	}
	for _, p := range c.Ignore {
		if err := p.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("ignore: %w", err))
		}
	}
	if c.Root != "" {
		if err := c.Root.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("root: %w", err))
		}
	}
	if len(errs) > 0 {
		return &InvalidWatchConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidWatchConfigError) Error() string {
	return fmt.Sprintf("invalid watch config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidWatchConfig for errors.Is() compatibility.
func (e *InvalidWatchConfigError) Unwrap() error { return ErrInvalidWatchConfig }

// New validates cfg and registers every non-ignored directory below Root.
func New(cfg Config) (*Watcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root := string(cfg.Root)
	if root == "" {
		root = "."
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch: %s is not a directory", absRoot)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		patterns: cfg.Patterns,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		stdout:   cfg.Stdout,
		logger:   cfg.Logger,
		debounce: cfg.Debounce,
		root:     absRoot,
	}
	if len(w.patterns) == 0 {
		w.patterns = []GlobPattern{SourcePattern}
	}
	if w.debounce <= 0 {
		w.debounce = defaultDebounce
	}
	if w.stdout == nil {
		w.stdout = os.Stdout
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	if err := w.addDirectories(); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("close watcher after init failure", "err", closeErr)
		}
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory.
func (w *Watcher) Root() string { return w.root }

// Run blocks until ctx is canceled, dispatching debounced callbacks. It
// returns nil on cancellation and an error when the watcher breaks.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		running atomic.Bool
	)

	// fire may run after cancellation because it is scheduled by AfterFunc.
	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !running.CompareAndSwap(false, true) {
			w.logger.Debug("rebuild still running, retrying after debounce")
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

		if w.cfg.ClearScreen {
			fmt.Fprint(w.stdout, clearScreenSeq)
		}
		w.logger.Info("change detected", "files", strings.Join(changed, " "))

		if w.cfg.OnChange != nil {
			if err := w.cfg.OnChange(ctx, changed); err != nil {
				w.logger.Error("rebuild failed", "err", err)
			}
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if closeErr := w.fsw.Close(); closeErr != nil {
			w.logger.Warn("close fsnotify", "err", closeErr)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			rel := w.relative(evt.Name)
			if w.isIgnored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.maybeAddDir(evt.Name)
			}
			if evt.Has(fsnotify.Chmod) && !evt.Has(fsnotify.Write) {
				continue
			}
			if !w.matches(rel) {
				continue
			}
			w.logger.Debug("event", "op", evt.Op.String(), "path", rel)

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if isFatalFsnotifyError(err) {
				return fmt.Errorf("watch: fatal fsnotify error: %w", err)
			}
			w.logger.Warn("fsnotify error", "err", err)
		}
	}
}

// addDirectories registers every non-ignored directory below the root.
// Pattern filtering happens when events arrive.
func (w *Watcher) addDirectories() error {
	walkErr := filepath.WalkDir(w.root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", "path", path, "err", walkDirErr)
			return nil //nolint:nilerr // unreadable subtrees are not watched
		}
		if !d.IsDir() {
			return nil
		}
		if rel := w.relative(path); rel != "." && w.isIgnoredDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// maybeAddDir extends the watch to directories created after startup.
func (w *Watcher) maybeAddDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if w.isIgnoredDir(w.relative(path)) {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.Warn("add new directory", "path", path, "err", err)
	}
}

// relative returns path relative to the root in slash form.
func (w *Watcher) relative(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	return filepath.ToSlash(rel)
}

func (w *Watcher) isIgnored(rel string) bool {
	return slices.ContainsFunc(w.ignores, func(p GlobPattern) bool { return p.Match(rel) })
}

// isIgnoredDir also matches directory-only patterns such as "build/**".
func (w *Watcher) isIgnoredDir(rel string) bool {
	return w.isIgnored(rel) || w.isIgnored(rel+"/")
}

func (w *Watcher) matches(rel string) bool {
	return slices.ContainsFunc(w.patterns, func(p GlobPattern) bool { return p.Match(rel) })
}

// DefaultIgnores returns a copy of the built-in ignore patterns.
func DefaultIgnores() []GlobPattern {
	return slices.Clone(defaultIgnores)
}
