package watch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testDebounce = 25 * time.Millisecond

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	w, err := New(root, testDebounce, func(rel string) bool {
		return strings.HasSuffix(rel, ".md")
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func waitChange(t *testing.T, w *Watcher) Change {
	t.Helper()
	select {
	case ch := <-w.Events():
		return ch
	case err := <-w.Errors():
		t.Fatalf("watcher error: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for change")
	}
	return Change{}
}

func expectQuiet(t *testing.T, w *Watcher, d time.Duration) {
	t.Helper()
	select {
	case ch := <-w.Events():
		t.Fatalf("unexpected change: %+v", ch)
	case <-time.After(d):
	}
}

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	abs := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNewFileIsAdded(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	write(t, root, "note.md", "hello")

	ch := waitChange(t, w)
	if ch.Kind != Added || ch.Path != "note.md" {
		t.Fatalf("got %+v, want Added note.md", ch)
	}
	if !w.Known("note.md") {
		t.Error("note.md should now be known")
	}
}

func TestExistingFileIsModified(t *testing.T) {
	root := t.TempDir()
	write(t, root, "note.md", "v1")
	w := newTestWatcher(t, root)

	write(t, root, "note.md", "v2")

	ch := waitChange(t, w)
	if ch.Kind != Modified || ch.Path != "note.md" {
		t.Fatalf("got %+v, want Modified note.md", ch)
	}
}

func TestDeleteKnownFile(t *testing.T) {
	root := t.TempDir()
	write(t, root, "note.md", "v1")
	w := newTestWatcher(t, root)

	if err := os.Remove(filepath.Join(root, "note.md")); err != nil {
		t.Fatal(err)
	}

	ch := waitChange(t, w)
	if ch.Kind != Deleted || ch.Path != "note.md" {
		t.Fatalf("got %+v, want Deleted note.md", ch)
	}
	if w.Known("note.md") {
		t.Error("note.md should no longer be known")
	}
}

func TestWriteBurstCoalesces(t *testing.T) {
	root := t.TempDir()
	write(t, root, "note.md", "v0")
	w := newTestWatcher(t, root)

	abs := filepath.Join(root, "note.md")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(abs, []byte("burst"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(2 * time.Millisecond)
	}

	ch := waitChange(t, w)
	if ch.Kind != Modified {
		t.Fatalf("got %+v, want Modified", ch)
	}
	expectQuiet(t, w, 5*testDebounce)
}

func TestUnrelatedExtensionIgnored(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	write(t, root, "image.png", "not a note")

	expectQuiet(t, w, 5*testDebounce)
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	if err := os.Mkdir(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a beat to register the new directory.
	time.Sleep(5 * testDebounce)

	write(t, root, "sub/inner.md", "inside")

	ch := waitChange(t, w)
	if ch.Kind != Added || ch.Path != "sub/inner.md" {
		t.Fatalf("got %+v, want Added sub/inner.md", ch)
	}
}

func TestCreateDeleteBeforeSettleStaysQuiet(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	abs := filepath.Join(root, "blip.md")
	if err := os.WriteFile(abs, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(abs); err != nil {
		t.Fatal(err)
	}

	// Never known and gone at settle time: no event for either key.
	expectQuiet(t, w, 5*testDebounce)
}

func TestStopIsIdempotent(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, testDebounce, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if _, ok := <-w.Events(); ok {
		t.Error("events channel should be closed")
	}
}
