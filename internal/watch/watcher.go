// Package watch turns raw fsnotify traffic into debounced, classified
// note-change events for the whole tree under a single root.
package watch

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("watch")

// Kind classifies what happened to a path.
type Kind int

const (
	// Added means the path was not known before and now exists.
	Added Kind = iota
	// Modified means a known path changed.
	Modified
	// Deleted means a known path no longer exists.
	Deleted
)

func (k Kind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is one settled change to a watched file. Path is root-relative
// with forward slashes; Directory is its first segment, empty at the root.
type Change struct {
	Kind       Kind
	Path       string
	FileName   string
	Directory  string
	ObservedAt time.Time
}

func newChange(kind Kind, rel string) Change {
	dir := ""
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		dir = rel[:i]
	}
	return Change{
		Kind:       kind,
		Path:       rel,
		FileName:   path.Base(rel),
		Directory:  dir,
		ObservedAt: time.Now(),
	}
}

// debKey coalesces bursts per (operation hint, path) pair, so a rapid
// write+write run collapses to one event while a remove followed by a
// create of the same path still yields both.
type debKey struct {
	hint string
	path string
}

// Watcher watches a directory tree recursively and emits classified,
// debounced Change events. Classification is based on a known-paths set
// seeded by an initial scan, not on what fsnotify claims: the filesystem
// state at settle time wins.
type Watcher struct {
	root     string
	debounce time.Duration
	filter   func(rel string) bool

	fw     *fsnotify.Watcher
	events chan Change
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup
	emitWG sync.WaitGroup

	mu      sync.Mutex
	known   map[string]bool
	timers  map[debKey]*time.Timer
	running bool
}

// New creates a watcher for the tree rooted at root. filter decides which
// root-relative paths are interesting; nil means all files. The watcher
// does not emit anything until Start is called.
func New(root string, debounce time.Duration, filter func(rel string) bool) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	if filter == nil {
		filter = func(string) bool { return true }
	}
	return &Watcher{
		root:     abs,
		debounce: debounce,
		filter:   filter,
		fw:       fw,
		events:   make(chan Change, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
		known:    make(map[string]bool),
		timers:   make(map[debKey]*time.Timer),
	}, nil
}

// Start scans the tree, seeds the known set, registers every directory
// with fsnotify and launches the event loop.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	if err := w.addTreeLocked(w.root); err != nil {
		return err
	}

	w.running = true
	w.wg.Add(1)
	go w.loop()

	log.Infof("watching %s (%d known files)", w.root, len(w.known))
	return nil
}

// Stop tears the watcher down and waits for the loop to exit. Pending
// debounce timers are cancelled; their events are dropped.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	for k, t := range w.timers {
		t.Stop()
		delete(w.timers, k)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.fw.Close()
	w.wg.Wait()
	w.emitWG.Wait()

	close(w.events)
	close(w.errors)
	return err
}

// Events emits settled changes. Closed on Stop.
func (w *Watcher) Events() <-chan Change { return w.events }

// Errors emits watcher-level failures (fsnotify overflow and the like).
// Closed on Stop.
func (w *Watcher) Errors() <-chan error { return w.errors }

// addTreeLocked walks dir, registers every directory and records every
// interesting file as known. Caller holds w.mu.
func (w *Watcher) addTreeLocked(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			// Entries can vanish mid-walk; skip rather than abort.
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if err := w.fw.Add(p); err != nil {
				return fmt.Errorf("watch %s: %w", p, err)
			}
			return nil
		}
		if rel, ok := w.relPath(p); ok && w.filter(rel) {
			w.known[rel] = true
		}
		return nil
	})
}

func (w *Watcher) relPath(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handleRaw(ev)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			log.Errorw("fsnotify error", "err", err)
			select {
			case w.errors <- err:
			case <-w.done:
				return
			}
		}
	}
}

// handleRaw schedules one fsnotify event into the debounce window. New
// directories are registered immediately so files created inside them are
// not missed; everything else waits out the window and is classified from
// the filesystem state when it fires.
func (w *Watcher) handleRaw(ev fsnotify.Event) {
	if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
		return
	}

	base := filepath.Base(ev.Name)
	if strings.HasPrefix(base, ".") {
		return
	}

	if ev.Has(fsnotify.Create) {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			w.mu.Lock()
			var snapshot []string
			if w.running {
				if err := w.addDirsLocked(ev.Name); err != nil {
					log.Warnw("watch new directory", "path", ev.Name, "err", err)
				}
				// Files moved in together with the directory never get
				// their own events; schedule them from a snapshot so they
				// settle as additions.
				snapshot = w.snapshotUnder(ev.Name)
			}
			w.mu.Unlock()
			for _, rel := range snapshot {
				w.schedule("write", rel)
			}
			return
		}
	}

	rel, ok := w.relPath(ev.Name)
	if !ok || !w.filter(rel) {
		return
	}

	hint := "write"
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		hint = "remove"
	}
	w.schedule(hint, rel)
}

// addDirsLocked registers dir and its subdirectories with fsnotify without
// touching the known set. Caller holds w.mu.
func (w *Watcher) addDirsLocked(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			return filepath.SkipDir
		}
		if err := w.fw.Add(p); err != nil {
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// snapshotUnder lists known-set candidates beneath absDir. Caller holds w.mu.
func (w *Watcher) snapshotUnder(absDir string) []string {
	var out []string
	_ = filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := w.relPath(p); ok && w.filter(rel) {
			out = append(out, rel)
		}
		return nil
	})
	return out
}

// schedule arms (or re-arms) the debounce timer for one (hint, path) key.
func (w *Watcher) schedule(hint, rel string) {
	key := debKey{hint: hint, path: rel}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if t, ok := w.timers[key]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[key] = time.AfterFunc(w.debounce, func() {
		w.settle(key)
	})
}

// settle fires after the debounce window: it drops the timer, checks the
// filesystem, and classifies against the known set.
func (w *Watcher) settle(key debKey) {
	w.mu.Lock()
	delete(w.timers, key)
	if !w.running {
		w.mu.Unlock()
		return
	}
	// Registered under the lock so Stop can wait out an in-flight emit
	// before closing the events channel.
	w.emitWG.Add(1)
	defer w.emitWG.Done()

	abs := filepath.Join(w.root, filepath.FromSlash(key.path))
	st, err := os.Stat(abs)

	var ch Change
	emit := false
	switch {
	case err == nil && st.IsDir():
		// A directory took the place of a watched file name; nothing to say.
	case err == nil:
		if w.known[key.path] {
			ch = newChange(Modified, key.path)
		} else {
			ch = newChange(Added, key.path)
			w.known[key.path] = true
		}
		emit = true
	default:
		if w.known[key.path] {
			delete(w.known, key.path)
			ch = newChange(Deleted, key.path)
			emit = true
		}
	}
	w.mu.Unlock()

	if !emit {
		return
	}

	log.Debugw("change", "kind", ch.Kind.String(), "path", ch.Path)
	select {
	case w.events <- ch:
	case <-w.done:
	}
}

// Known reports whether rel is currently in the known set. Mostly for tests.
func (w *Watcher) Known(rel string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.known[rel]
}
