// Package notify fans file-change notifications out to websocket
// connections. Delivery is deliberately unfiltered: every subscribed
// connection gets every notification, including the one whose editor
// caused it. Suppressing self-echo is the receiver's job, keyed on the
// originEditorId it finds in the payload.
package notify

import (
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("notify")

// Notification types.
const (
	TypeFileUpdated  = "file_updated"
	TypeFileAdded    = "file_added"
	TypeFileDeleted  = "file_deleted"
	TypeWatcherError = "watcher_error"
)

// Notification is the payload pushed to subscribed connections.
type Notification struct {
	Type           string `json:"type"`
	Path           string `json:"path,omitempty"`
	FileName       string `json:"fileName,omitempty"`
	Directory      string `json:"directory,omitempty"`
	Message        string `json:"message,omitempty"`
	OriginEditorID string `json:"originEditorId,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// ForPath builds a notification of the given type for a root-relative path.
// originEditorID is empty for changes made outside any editor session.
func ForPath(typ, rel, originEditorID string) Notification {
	dir := ""
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		dir = rel[:i]
	}
	return Notification{
		Type:           typ,
		Path:           rel,
		FileName:       path.Base(rel),
		Directory:      dir,
		OriginEditorID: originEditorID,
		Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
	}
}

// Conn is one registered websocket connection. A connection receives
// nothing until it subscribes; subscribe and unsubscribe are idempotent.
type Conn struct {
	id string
	ch chan Notification

	mu         sync.Mutex
	subscribed bool
}

// ID returns the connection's identity, assigned at registration.
func (c *Conn) ID() string { return c.id }

// C is the delivery channel. Closed when the connection is unregistered.
func (c *Conn) C() <-chan Notification { return c.ch }

// Subscribe opts the connection in to notifications.
func (c *Conn) Subscribe() {
	c.mu.Lock()
	c.subscribed = true
	c.mu.Unlock()
}

// Unsubscribe opts the connection out. Already-queued notifications stay
// in the channel buffer.
func (c *Conn) Unsubscribe() {
	c.mu.Lock()
	c.subscribed = false
	c.mu.Unlock()
}

// Subscribed reports the current opt-in state.
func (c *Conn) Subscribed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.subscribed
}

// Broadcaster tracks registered connections and publishes notifications
// to the subscribed ones.
type Broadcaster struct {
	mu    sync.RWMutex
	conns map[*Conn]struct{}
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{conns: make(map[*Conn]struct{})}
}

// Register adds a connection and returns it, unsubscribed.
func (b *Broadcaster) Register() *Conn {
	c := &Conn{
		id: uuid.NewString(),
		ch: make(chan Notification, 64),
	}
	b.mu.Lock()
	b.conns[c] = struct{}{}
	b.mu.Unlock()
	log.Debugw("connection registered", "id", c.id)
	return c
}

// Unregister removes the connection and closes its channel. Safe to call
// more than once.
func (b *Broadcaster) Unregister(c *Conn) {
	b.mu.Lock()
	_, ok := b.conns[c]
	if ok {
		delete(b.conns, c)
	}
	b.mu.Unlock()
	if ok {
		close(c.ch)
		log.Debugw("connection unregistered", "id", c.id)
	}
}

// Publish delivers n to every subscribed connection. Sends never block: a
// connection whose buffer is full misses the notification rather than
// stalling the publisher.
func (b *Broadcaster) Publish(n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for c := range b.conns {
		if !c.Subscribed() {
			continue
		}
		select {
		case c.ch <- n:
		default:
			log.Warnw("dropping notification, slow consumer", "id", c.id, "type", n.Type)
		}
	}
}

// Count returns the number of registered connections.
func (b *Broadcaster) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.conns)
}

// Close unregisters every connection.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	conns := b.conns
	b.conns = make(map[*Conn]struct{})
	b.mu.Unlock()

	for c := range conns {
		close(c.ch)
	}
}
