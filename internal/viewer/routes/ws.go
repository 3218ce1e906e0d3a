package routes

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/petervdpas/notewatch/internal/notify"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Single-operator local server; same-origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsAction struct {
	Action string `json:"action"`
}

type wsPush struct {
	Type    string              `json:"type"`
	Payload notify.Notification `json:"payload"`
}

// registerWSRoute mounts the notification stream. A connection starts
// registered but mute; it opts in with {"action":"subscribe"}. Write
// failures tear the connection down quietly.
func registerWSRoute(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debugw("websocket upgrade", "err", err)
			return
		}

		conn := d.Broadcast.Register()
		log.Debugw("websocket open", "id", conn.ID())

		// Writer: one goroutine owns all writes to the socket.
		go func() {
			for n := range conn.C() {
				if err := ws.WriteJSON(wsPush{Type: "notification", Payload: n}); err != nil {
					d.Broadcast.Unregister(conn)
					ws.Close()
					return
				}
			}
			// Channel closed by Unregister.
			ws.Close()
		}()

		// Reader: control actions until the peer goes away.
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				break
			}
			var act wsAction
			if err := json.Unmarshal(data, &act); err != nil {
				continue
			}
			switch act.Action {
			case "subscribe":
				conn.Subscribe()
			case "unsubscribe":
				conn.Unsubscribe()
			}
		}

		log.Debugw("websocket closed", "id", conn.ID())
		d.Broadcast.Unregister(conn)
	})
}
