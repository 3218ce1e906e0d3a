package markdown

import (
	"strings"
	"testing"
)

func TestRenderBasics(t *testing.T) {
	r := New("")
	out, err := r.Render("# Title\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<h1") || !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("unexpected html: %q", out)
	}
}

func TestRenderTable(t *testing.T) {
	r := New("")
	out, err := r.Render("| a | b |\n|---|---|\n| 1 | 2 |")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<table>") {
		t.Errorf("table not rendered: %q", out)
	}
}

func TestRenderCodeFenceHighlighted(t *testing.T) {
	r := New("github")
	out, err := r.Render("```go\npackage main\n```")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "<pre") {
		t.Errorf("code fence not rendered: %q", out)
	}
}

func TestRenderTaskList(t *testing.T) {
	r := New("")
	out, err := r.Render("- [x] done\n- [ ] todo")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "checkbox") {
		t.Errorf("task list not rendered: %q", out)
	}
}
