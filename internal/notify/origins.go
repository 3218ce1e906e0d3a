package notify

import (
	"sync"
	"time"
)

// Origins remembers which editor last wrote each path, for a short window.
// The save handler records here, and the watcher bridge claims the identity
// when the corresponding filesystem event settles, so the resulting
// notification carries originEditorId without the save handler publishing
// anything itself (one change, one notification).
type Origins struct {
	mu  sync.Mutex
	m   map[string]originEntry
	ttl time.Duration
}

type originEntry struct {
	editorID string
	at       time.Time
}

// NewOrigins builds a tracker whose entries expire after ttl (<=0 picks 5s,
// comfortably wider than the watcher debounce).
func NewOrigins(ttl time.Duration) *Origins {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &Origins{m: make(map[string]originEntry), ttl: ttl}
}

// Record notes that editorID just wrote path. Empty ids are ignored.
func (o *Origins) Record(path, editorID string) {
	if editorID == "" {
		return
	}
	o.mu.Lock()
	o.m[path] = originEntry{editorID: editorID, at: time.Now()}
	o.mu.Unlock()
}

// Claim returns the recorded editor id for path if it is still fresh, and
// removes it. A path written outside any editor session claims as "".
func (o *Origins) Claim(path string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.m[path]
	if !ok {
		return ""
	}
	delete(o.m, path)
	if time.Since(e.at) > o.ttl {
		return ""
	}
	return e.editorID
}
