// Package watcher reports debounced changes to source and config files.
// Directories are watched recursively and filtered by glob patterns; a
// file path is watched through its parent directory so that editors which
// replace files on save are still observed.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 150 * time.Millisecond

const eventBuffer = 64

var (
	ErrNoPathsConfigured = errors.New("no paths configured for watching")
	ErrPathNotExist      = errors.New("watch path does not exist")
	ErrInvalidPattern    = errors.New("invalid glob pattern")
)

type Config struct {
	// Paths are files or directories. Directories are watched recursively.
	Paths []string

	// Include restricts directory events to matching files. Empty matches
	// everything. Explicit file paths are always reported.
	Include []string

	// Exclude drops matching paths.
	Exclude []string

	Debounce time.Duration
}

type pendingEvent struct {
	event Event
	timer *time.Timer
}

type Watcher struct {
	config   Config
	fs       *fsnotify.Watcher
	include  []glob.Glob
	exclude  []glob.Glob
	files    map[string]bool
	dirs     []string
	mu       sync.Mutex
	pending  map[string]*pendingEvent
	events   chan Event
	stopOnce sync.Once
	stopped  bool
}

// New validates cfg and prepares a watcher. Nothing is observed until
// Start is called.
func New(cfg Config) (*Watcher, error) {
	if len(cfg.Paths) == 0 {
		return nil, ErrNoPathsConfigured
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	include, err := compilePatterns(cfg.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := compilePatterns(cfg.Exclude)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		config:  cfg,
		include: include,
		exclude: exclude,
		files:   make(map[string]bool),
		pending: make(map[string]*pendingEvent),
	}
	if err := w.classify(); err != nil {
		return nil, err
	}

	w.fs, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return w, nil
}

// classify splits configured paths into recursive directories and single
// files. A missing file is allowed as long as its directory exists, so a
// config file can be created after the watch starts.
func (w *Watcher) classify() error {
	for _, path := range w.config.Paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		info, err := os.Stat(abs)
		if err == nil && info.IsDir() {
			w.dirs = append(w.dirs, abs)
			continue
		}
		if err != nil && !os.IsNotExist(err) {
			return err
		}

		parent, perr := os.Stat(filepath.Dir(abs))
		if perr != nil || !parent.IsDir() {
			return errors.Join(ErrPathNotExist, errors.New(path))
		}
		w.files[abs] = true
	}
	return nil
}

func compilePatterns(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// Start begins watching. The returned channel closes when ctx is done or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) (<-chan Event, error) {
	w.events = make(chan Event, eventBuffer)

	if err := w.addWatches(); err != nil {
		close(w.events)
		return nil, err
	}

	go w.loop(ctx)
	return w.events, nil
}

func (w *Watcher) addWatches() error {
	seen := make(map[string]bool)
	for file := range w.files {
		dir := filepath.Dir(file)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := w.fs.Add(dir); err != nil {
			return err
		}
	}
	for _, dir := range w.dirs {
		if err := w.addRecursive(dir); err != nil {
			return err
		}
	}
	return nil
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && w.excluded(path) {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.cleanup()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case _, ok := <-w.fs.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) && w.underDirs(path) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.addRecursive(path)
			return
		}
	}

	if !w.wanted(path) {
		return
	}
	w.schedule(path, mapOperation(event.Op))
}

// wanted reports whether a change at path should be emitted.
func (w *Watcher) wanted(path string) bool {
	if w.files[path] {
		return true
	}
	if !w.underDirs(path) || w.excluded(path) {
		return false
	}
	if len(w.include) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, g := range w.include {
		if g.Match(base) || g.Match(filepath.ToSlash(path)) {
			return true
		}
	}
	return false
}

func (w *Watcher) underDirs(path string) bool {
	for _, dir := range w.dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !startsWithParent(rel) {
			return true
		}
	}
	return false
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}

func (w *Watcher) excluded(path string) bool {
	base := filepath.Base(path)
	slashed := filepath.ToSlash(path)
	for _, g := range w.exclude {
		if g.Match(base) || g.Match(slashed) {
			return true
		}
	}
	return false
}

var opMappings = []struct {
	fsOp fsnotify.Op
	op   Operation
}{
	{fsnotify.Create, OpCreate},
	{fsnotify.Write, OpModify},
	{fsnotify.Remove, OpDelete},
	{fsnotify.Rename, OpRename},
	{fsnotify.Chmod, OpModify},
}

func mapOperation(op fsnotify.Op) Operation {
	for _, m := range opMappings {
		if op.Has(m.fsOp) {
			return m.op
		}
	}
	return OpModify
}

// schedule restarts the debounce timer for path with the latest operation.
func (w *Watcher) schedule(path string, op Operation) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}

	event := Event{Path: path, Operation: op, Time: time.Now()}
	if existing, ok := w.pending[path]; ok {
		existing.timer.Stop()
		existing.event = event
		existing.timer = w.debounce(path)
		return
	}
	w.pending[path] = &pendingEvent{event: event, timer: w.debounce(path)}
}

func (w *Watcher) debounce(path string) *time.Timer {
	return time.AfterFunc(w.config.Debounce, func() { w.emit(path) })
}

func (w *Watcher) emit(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if w.stopped || !ok {
		return
	}
	delete(w.pending, path)

	select {
	case w.events <- p.event:
	default:
		// consumer is behind; drop
	}
}

// Stop releases the underlying watcher. Safe to call more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopped = true
		for _, p := range w.pending {
			p.timer.Stop()
		}
		w.pending = make(map[string]*pendingEvent)
		w.mu.Unlock()

		err = w.fs.Close()
	})
	return err
}

func (w *Watcher) cleanup() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.stopped {
		w.stopped = true
		for _, p := range w.pending {
			p.timer.Stop()
		}
		w.pending = make(map[string]*pendingEvent)
	}
	_ = w.fs.Close()
	close(w.events)
}
