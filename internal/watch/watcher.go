// Package watch turns filesystem activity in a repository into raw
// change signals for the query engine. It does no coalescing of its
// own; the engine's debouncer owns that policy.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is the fallback polling cadence when fsnotify
// cannot be used.
const DefaultPollInterval = 2 * time.Second

// defaultIgnores are event sources that never indicate a repository
// state change worth a rescan: pack/object churn, lock files, editor
// droppings.
var defaultIgnores = []string{
	".git/objects/**",
	".git/**/*.lock",
	".git/*.lock",
	"**/*.swp",
	"**/*.swx",
	"**/*~",
	"**/4913", // vim write test file
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithPollInterval sets the polling cadence for fallback mode.
func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) { w.pollInterval = d }
}

// WithIgnores appends doublestar patterns (relative to the repo root)
// whose events are discarded.
func WithIgnores(patterns ...string) Option {
	return func(w *Watcher) { w.ignores = append(w.ignores, patterns...) }
}

// WithForcePoll forces polling even when fsnotify is available.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) { w.forcePoll = force }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// Watcher monitors a repository worktree plus the volatile parts of
// its .git directory (HEAD, index, refs) and invokes sink once per raw
// change signal.
type Watcher struct {
	root         string
	gitDir       string
	sink         func()
	ignores      []string
	pollInterval time.Duration
	forcePoll    bool
	log          *slog.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	started bool
	polling bool
}

// New creates a watcher for the repository rooted at root with git
// directory gitDir. sink is invoked from the watcher goroutine for
// every non-ignored raw signal.
func New(root, gitDir string, sink func(), opts ...Option) *Watcher {
	w := &Watcher{
		root:         root,
		gitDir:       gitDir,
		sink:         sink,
		ignores:      append([]string(nil), defaultIgnores...),
		pollInterval: DefaultPollInterval,
		log:          slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Start begins watching. It prefers fsnotify and falls back to a
// polling tick over HEAD and the index when fsnotify cannot start.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel

	if !w.forcePoll {
		if fsw, err := fsnotify.NewWatcher(); err == nil {
			if err := w.addWatches(fsw); err != nil {
				fsw.Close()
				w.log.Debug("fsnotify setup failed, polling instead", "err", err)
			} else {
				w.fsw = fsw
				w.started = true
				go w.eventLoop(ctx, fsw)
				return nil
			}
		} else {
			w.log.Debug("fsnotify unavailable, polling instead", "err", err)
		}
	}

	w.polling = true
	w.started = true
	go w.pollLoop(ctx)
	return nil
}

// Stop ends watching. Safe to call more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.cancel()
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	w.started = false
}

// Polling reports whether the watcher is in fallback mode.
func (w *Watcher) Polling() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.polling
}

// addWatches registers the worktree directories (skipping .git) plus
// the git dir itself and its refs hierarchy.
func (w *Watcher) addWatches(fsw *fsnotify.Watcher) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() {
			return nil
		}
		if path == w.gitDir || (d.Name() == ".git" && path != w.root) {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
	if err != nil {
		return err
	}
	// HEAD, index and packed-refs live at the top of the git dir.
	if err := fsw.Add(w.gitDir); err != nil {
		return err
	}
	refs := filepath.Join(w.gitDir, "refs")
	return filepath.WalkDir(refs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) eventLoop(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if w.ignored(ev.Name) {
				continue
			}
			// New directories need their own watch before anything
			// inside them can be seen.
			if ev.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = fsw.Add(ev.Name)
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.sink()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.Debug("watch error", "err", err)
		}
	}
}

// pollLoop stats the files whose mtimes move on every interesting
// repository transition. Coarser than fsnotify but dependable on
// network filesystems.
func (w *Watcher) pollLoop(ctx context.Context) {
	targets := []string{
		filepath.Join(w.gitDir, "HEAD"),
		filepath.Join(w.gitDir, "index"),
		filepath.Join(w.gitDir, "packed-refs"),
		w.root,
	}
	stamps := make(map[string]time.Time, len(targets))
	for _, t := range targets {
		if fi, err := os.Stat(t); err == nil {
			stamps[t] = fi.ModTime()
		}
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed := false
			for _, t := range targets {
				fi, err := os.Stat(t)
				if err != nil {
					continue
				}
				if prev, ok := stamps[t]; !ok || fi.ModTime().After(prev) {
					stamps[t] = fi.ModTime()
					changed = true
				}
			}
			if changed {
				w.sink()
			}
		}
	}
}

func (w *Watcher) ignored(name string) bool {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") {
		// Event under a git dir outside the worktree; match against
		// a .git/-rooted path so the same patterns apply.
		if sub, err2 := filepath.Rel(w.gitDir, name); err2 == nil && !strings.HasPrefix(sub, "..") {
			rel = ".git/" + filepath.ToSlash(sub)
		}
	}
	for _, pat := range w.ignores {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}
