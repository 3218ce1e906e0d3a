package routes

import (
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/petervdpas/notewatch/internal/notify"
)

func dialWS(t *testing.T, e *testEnv) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readPush(t *testing.T, conn *websocket.Conn) (wsPush, bool) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var push wsPush
	if err := conn.ReadJSON(&push); err != nil {
		return wsPush{}, false
	}
	return push, true
}

func TestWSDeliveryAfterSubscribe(t *testing.T) {
	e := newTestEnv(t)
	conn := dialWS(t, e)

	if err := conn.WriteJSON(wsAction{Action: "subscribe"}); err != nil {
		t.Fatal(err)
	}
	// Give the reader loop a beat to process the action.
	time.Sleep(50 * time.Millisecond)

	e.bcast.Publish(notify.ForPath(notify.TypeFileUpdated, "work/n.md", "ed-1"))

	push, ok := readPush(t, conn)
	if !ok {
		t.Fatal("no push received")
	}
	if push.Type != "notification" || push.Payload.Path != "work/n.md" {
		t.Fatalf("push %+v", push)
	}
	if push.Payload.OriginEditorID != "ed-1" {
		t.Error("origin identity must reach every subscriber")
	}
}

func TestWSSilentUntilSubscribed(t *testing.T) {
	e := newTestEnv(t)
	conn := dialWS(t, e)
	time.Sleep(50 * time.Millisecond)

	e.bcast.Publish(notify.ForPath(notify.TypeFileAdded, "quiet.md", ""))

	if push, ok := readPush(t, conn); ok {
		t.Fatalf("unsubscribed connection received %+v", push)
	}
}

func TestWSUnsubscribeStopsDelivery(t *testing.T) {
	e := newTestEnv(t)
	conn := dialWS(t, e)

	if err := conn.WriteJSON(wsAction{Action: "subscribe"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := conn.WriteJSON(wsAction{Action: "unsubscribe"}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	e.bcast.Publish(notify.ForPath(notify.TypeFileUpdated, "late.md", ""))

	if push, ok := readPush(t, conn); ok {
		t.Fatalf("unsubscribed connection received %+v", push)
	}
}

func TestWSDisconnectUnregisters(t *testing.T) {
	e := newTestEnv(t)
	conn := dialWS(t, e)
	_ = conn.WriteJSON(wsAction{Action: "subscribe"})
	time.Sleep(50 * time.Millisecond)

	if e.bcast.Count() != 1 {
		t.Fatalf("count %d", e.bcast.Count())
	}
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for e.bcast.Count() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("connection never unregistered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Publishing into an empty hub is fine.
	e.bcast.Publish(notify.ForPath(notify.TypeFileDeleted, "x.md", ""))
}
