package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

const testDelay = 30 * time.Millisecond

// saveRecorder is a SaveFunc that records every invocation.
type saveRecorder struct {
	mu    sync.Mutex
	calls []struct{ content, token string }
	reply func(content, token string) (string, error)
}

func (r *saveRecorder) fn(ctx context.Context, content, token string) (string, error) {
	r.mu.Lock()
	r.calls = append(r.calls, struct{ content, token string }{content, token})
	reply := r.reply
	r.mu.Unlock()
	if reply != nil {
		return reply(content, token)
	}
	return "tok-" + content, nil
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *saveRecorder) last() (string, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.calls[len(r.calls)-1]
	return c.content, c.token
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never reached")
}

func TestEditThenDebouncedSave(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("original", "tok-0")

	a.Edited("draft one")
	if a.State() != StateDirty {
		t.Fatalf("state %v, want dirty", a.State())
	}

	waitFor(t, func() bool { return a.State() == StateIdle && rec.count() == 1 })

	content, token := rec.last()
	if content != "draft one" || token != "tok-0" {
		t.Errorf("saved (%q,%q)", content, token)
	}
	if a.Token() != "tok-draft one" {
		t.Errorf("token not adopted: %q", a.Token())
	}
	if a.Dirty() {
		t.Error("buffer should be clean after save")
	}
}

func TestRapidEditsCollapseToOneSave(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("", "t0")

	for _, s := range []string{"a", "ab", "abc", "abcd"} {
		a.Edited(s)
		time.Sleep(2 * time.Millisecond)
	}

	waitFor(t, func() bool { return a.State() == StateIdle })
	if rec.count() != 1 {
		t.Fatalf("saves = %d, want 1", rec.count())
	}
	if content, _ := rec.last(); content != "abcd" {
		t.Errorf("saved %q, want final draft", content)
	}
}

func TestNoOpGuardAfterManualSave(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("", "t0")

	a.Edited("draft")
	a.SaveNow(context.Background())
	if rec.count() != 1 {
		t.Fatalf("manual save did not run")
	}

	// The debounce window passes with nothing new to say.
	time.Sleep(3 * testDelay)
	if rec.count() != 1 {
		t.Fatalf("saves = %d; timer fired for a clean buffer", rec.count())
	}
}

func TestEditDuringFlightReschedules(t *testing.T) {
	release := make(chan struct{})
	rec := &saveRecorder{}
	rec.reply = func(content, token string) (string, error) {
		if content == "first" {
			<-release
		}
		return "tok-" + content, nil
	}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("", "t0")

	a.Edited("first")
	waitFor(t, func() bool { return a.State() == StateSaving })

	a.Edited("second")
	if a.State() != StateSaving {
		t.Fatalf("second save started during flight")
	}
	close(release)

	waitFor(t, func() bool { return rec.count() == 2 && a.State() == StateIdle })
	if content, token := rec.last(); content != "second" || token != "tok-first" {
		t.Errorf("second save (%q,%q)", content, token)
	}
}

func TestFailureMeansNoRetryUntilNextEdit(t *testing.T) {
	rec := &saveRecorder{}
	fail := true
	rec.reply = func(content, token string) (string, error) {
		if fail {
			return "", errors.New("disk full")
		}
		return "tok-ok", nil
	}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("", "t0")

	a.Edited("draft")
	waitFor(t, func() bool { return a.State() == StateError })

	time.Sleep(3 * testDelay)
	if rec.count() != 1 {
		t.Fatalf("saves = %d; failed save was retried", rec.count())
	}
	if !a.Dirty() {
		t.Error("failed save must leave the buffer dirty")
	}

	fail = false
	a.Edited("draft 2")
	waitFor(t, func() bool { return a.State() == StateIdle })
	if rec.count() != 2 {
		t.Fatalf("edit after failure did not reschedule")
	}
}

func TestConflictAdoptsServerTokenAndPauses(t *testing.T) {
	rec := &saveRecorder{}
	rec.reply = func(content, token string) (string, error) {
		return "", &ConflictError{Path: "n.md", ServerContent: "theirs", ServerToken: "srv-9", ClientContent: content}
	}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("base", "t0")

	a.Edited("mine")
	waitFor(t, func() bool { return a.State() == StateConflict })

	if a.Token() != "srv-9" {
		t.Errorf("server token not adopted: %q", a.Token())
	}
	if a.Content() != "mine" {
		t.Errorf("draft lost: %q", a.Content())
	}

	// Editing in conflict updates the draft but schedules nothing.
	a.Edited("mine v2")
	time.Sleep(3 * testDelay)
	if rec.count() != 1 {
		t.Fatalf("saves = %d; auto-save ran while conflicted", rec.count())
	}
	if a.State() != StateConflict {
		t.Fatalf("state %v", a.State())
	}
}

func TestResolveKeepMineSavesAgainstAdoptedToken(t *testing.T) {
	rec := &saveRecorder{}
	conflicted := true
	rec.reply = func(content, token string) (string, error) {
		if conflicted {
			conflicted = false
			return "", &ConflictError{ServerToken: "srv-9", ClientContent: content}
		}
		return "tok-final", nil
	}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("base", "t0")

	a.Edited("mine")
	waitFor(t, func() bool { return a.State() == StateConflict })

	a.ResolveKeepMine()
	waitFor(t, func() bool { return a.State() == StateIdle })

	if _, token := rec.last(); token != "srv-9" {
		t.Errorf("overwrite used token %q, want the adopted server token", token)
	}
}

func TestResolveTakeTheirsDiscardsDraft(t *testing.T) {
	rec := &saveRecorder{}
	rec.reply = func(content, token string) (string, error) {
		return "", &ConflictError{ServerContent: "theirs", ServerToken: "srv-9"}
	}
	a := NewAutoSave(rec.fn, testDelay)
	defer a.Close()
	a.Load("base", "t0")

	a.Edited("mine")
	waitFor(t, func() bool { return a.State() == StateConflict })

	a.ResolveTakeTheirs("theirs", "srv-9")
	if a.State() != StateIdle || a.Dirty() {
		t.Fatalf("state %v dirty %v", a.State(), a.Dirty())
	}
	if a.Content() != "theirs" {
		t.Errorf("content %q", a.Content())
	}

	time.Sleep(3 * testDelay)
	if rec.count() != 1 {
		t.Fatalf("saves = %d after discarding", rec.count())
	}
}

func TestCloseCancelsPendingTimer(t *testing.T) {
	rec := &saveRecorder{}
	a := NewAutoSave(rec.fn, testDelay)
	a.Load("", "t0")

	a.Edited("draft")
	a.Close()

	time.Sleep(3 * testDelay)
	if rec.count() != 0 {
		t.Fatalf("saves = %d after Close", rec.count())
	}
}
