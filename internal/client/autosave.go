package client

import (
	"context"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("client")

// State is the auto-save lifecycle of one open note.
type State int

const (
	// StateIdle means the buffer matches what was last saved or loaded.
	StateIdle State = iota
	// StateDirty means there are unsaved edits (a save may be scheduled).
	StateDirty
	// StateSaving means exactly one save is in flight.
	StateSaving
	// StateError means the last save failed; nothing is retried until the
	// next edit or a manual save.
	StateError
	// StateConflict means the server rejected the last save or the file
	// changed underneath a dirty buffer. The local draft is kept and
	// auto-saving pauses until the conflict is resolved.
	StateConflict
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDirty:
		return "dirty"
	case StateSaving:
		return "saving"
	case StateError:
		return "error"
	case StateConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// SaveFunc performs the actual save of content under token. On success it
// returns the fresh version token. A rejected save comes back as a
// *ConflictError; anything else is a plain failure.
type SaveFunc func(ctx context.Context, content, token string) (string, error)

// AutoSave debounces edits into saves. Each edit restarts the delay timer;
// when it fires and the buffer is still dirty, one save runs. At most one
// save is ever in flight, and edits made during a flight re-mark the
// buffer dirty and reschedule after the flight resolves.
type AutoSave struct {
	save  SaveFunc
	delay time.Duration

	// OnState, if set, is called (without the lock held) after every state
	// transition. Set it before the first edit.
	OnState func(State)

	mu      sync.Mutex
	state   State
	content string
	token   string
	gen     uint64 // bumped on every edit; detects edits during a flight
	saved   uint64 // gen the last successful save captured
	timer   *time.Timer
	saving  bool
	closed  bool
}

// NewAutoSave builds a coordinator around save with the given debounce
// delay (3s is the conventional default; <=0 picks it).
func NewAutoSave(save SaveFunc, delay time.Duration) *AutoSave {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &AutoSave{save: save, delay: delay}
}

// Load adopts freshly loaded content and its token, clearing any dirt.
func (a *AutoSave) Load(content, token string) {
	a.mu.Lock()
	a.stopTimerLocked()
	a.content = content
	a.token = token
	a.gen++
	a.saved = a.gen
	a.setStateLocked(StateIdle)
	a.mu.Unlock()
	a.notify()
}

// Edited records a new buffer state and restarts the debounce timer.
// While in conflict the draft keeps updating but no save is scheduled.
func (a *AutoSave) Edited(content string) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.content = content
	a.gen++
	if a.state == StateConflict {
		a.mu.Unlock()
		return
	}
	if a.saving {
		// The flight's resolution will see the newer gen and reschedule.
		a.mu.Unlock()
		return
	}
	a.setStateLocked(StateDirty)
	a.armTimerLocked()
	a.mu.Unlock()
	a.notify()
}

// SaveNow cancels any pending timer and saves immediately, if dirty.
func (a *AutoSave) SaveNow(ctx context.Context) {
	a.mu.Lock()
	a.stopTimerLocked()
	a.mu.Unlock()
	a.trySave(ctx)
}

// ExternalConflict marks the session conflicted because the file changed
// on the server while the buffer was dirty. The server's token is adopted
// so a later "keep mine" resolution overwrites exactly the version the
// operator was warned about; the draft stays.
func (a *AutoSave) ExternalConflict(serverToken string) {
	a.mu.Lock()
	a.stopTimerLocked()
	a.token = serverToken
	a.setStateLocked(StateConflict)
	a.mu.Unlock()
	a.notify()
}

// ResolveKeepMine leaves the draft in place and schedules a save against
// the adopted server token.
func (a *AutoSave) ResolveKeepMine() {
	a.mu.Lock()
	if a.state != StateConflict {
		a.mu.Unlock()
		return
	}
	a.setStateLocked(StateDirty)
	a.armTimerLocked()
	a.mu.Unlock()
	a.notify()
}

// ResolveTakeTheirs discards the draft in favor of the server's content.
func (a *AutoSave) ResolveTakeTheirs(serverContent, serverToken string) {
	a.Load(serverContent, serverToken)
}

// State returns the current lifecycle state.
func (a *AutoSave) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Dirty reports whether the buffer has edits the server has not seen.
func (a *AutoSave) Dirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen != a.saved
}

// Token returns the version token the next save will be made against.
func (a *AutoSave) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// Content returns the current draft.
func (a *AutoSave) Content() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.content
}

// Close cancels the pending timer. An in-flight save is left to finish;
// its outcome is still recorded.
func (a *AutoSave) Close() {
	a.mu.Lock()
	a.closed = true
	a.stopTimerLocked()
	a.mu.Unlock()
}

func (a *AutoSave) armTimerLocked() {
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Reset(a.delay)
		return
	}
	a.timer = time.AfterFunc(a.delay, func() {
		a.trySave(context.Background())
	})
}

func (a *AutoSave) stopTimerLocked() {
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// trySave runs at most one save. The dirty re-check happens here, right
// before the send: a timer that fires after a manual save already cleaned
// the buffer must not produce a second write.
func (a *AutoSave) trySave(ctx context.Context) {
	a.mu.Lock()
	if a.closed || a.saving || a.state == StateConflict {
		a.mu.Unlock()
		return
	}
	if a.gen == a.saved {
		// No-op guard: nothing changed since the last save.
		a.setStateLocked(StateIdle)
		a.mu.Unlock()
		a.notify()
		return
	}
	content, token, gen := a.content, a.token, a.gen
	a.saving = true
	a.setStateLocked(StateSaving)
	a.mu.Unlock()
	a.notify()

	newToken, err := a.save(ctx, content, token)

	a.mu.Lock()
	a.saving = false
	switch {
	case err == nil:
		a.token = newToken
		a.saved = gen
		if a.gen != gen {
			// Edited during the flight: reschedule.
			a.setStateLocked(StateDirty)
			a.armTimerLocked()
		} else {
			a.setStateLocked(StateIdle)
		}
	default:
		if ce, ok := AsConflict(err); ok {
			log.Warnw("save conflict", "server_token", ce.ServerToken)
			a.token = ce.ServerToken
			a.setStateLocked(StateConflict)
		} else {
			log.Errorw("save failed", "err", err)
			a.setStateLocked(StateError)
		}
	}
	a.mu.Unlock()
	a.notify()
}

func (a *AutoSave) setStateLocked(s State) {
	a.state = s
}

func (a *AutoSave) notify() {
	if a.OnState == nil {
		return
	}
	a.mu.Lock()
	s := a.state
	cb := a.OnState
	a.mu.Unlock()
	cb(s)
}
