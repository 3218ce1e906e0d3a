package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/petervdpas/notewatch/internal/notify"
)

const reconnectDelay = 3 * time.Second

// Listener maintains a websocket subscription to the server's
// notification stream. This is where self-suppression lives: the server
// broadcasts to everyone, and payloads whose originEditorId matches this
// session's identity are dropped before any handling.
type Listener struct {
	url      string // ws:// endpoint
	editorID EditorID
	handle   func(notify.Notification)
}

// NewListener builds a listener for the /ws endpoint at wsURL. handle is
// called for every notification that survives the self-filter.
func NewListener(wsURL string, editorID EditorID, handle func(notify.Notification)) *Listener {
	return &Listener{url: wsURL, editorID: editorID, handle: handle}
}

type wsAction struct {
	Action string `json:"action"`
}

type wsPush struct {
	Type    string              `json:"type"`
	Payload notify.Notification `json:"payload"`
}

// Run connects, subscribes and reads until ctx is cancelled, reconnecting
// after a fixed delay whenever the connection drops.
func (l *Listener) Run(ctx context.Context) {
	for {
		if err := l.session(ctx); err != nil {
			log.Debugw("notification stream closed", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (l *Listener) session(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Delivery starts only after an explicit opt-in.
	if err := conn.WriteJSON(wsAction{Action: "subscribe"}); err != nil {
		return err
	}

	// Unblock ReadMessage on cancellation.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var push wsPush
		if err := json.Unmarshal(data, &push); err != nil {
			log.Warnw("bad notification frame", "err", err)
			continue
		}
		if push.Type != "notification" {
			continue
		}
		if push.Payload.OriginEditorID != "" && push.Payload.OriginEditorID == string(l.editorID) {
			// Own echo; drop before any handling.
			continue
		}
		if l.handle != nil {
			l.handle(push.Payload)
		}
	}
}
