package notes

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtractTagsHashtags(t *testing.T) {
	got := ExtractTags("Working on #golang and #side-projects today. #Golang again.")
	want := []string{"golang", "side-projects"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractTagsFrontmatter(t *testing.T) {
	content := "---\ntitle: x\ntags: [Alpha, beta , \"gamma\"]\n---\nbody"
	got := ExtractTags(content)
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractTagsPlainLine(t *testing.T) {
	got := ExtractTags("Title\n\nTags: home, ideas\n\nbody")
	want := []string{"home", "ideas"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestExtractTagsNone(t *testing.T) {
	if got := ExtractTags("no tags here, not even one"); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestPreviewStripsMarkdown(t *testing.T) {
	content := "---\ntags: [x]\n---\n# Heading\n\nSome **bold** and a [link](http://e.com) with `code`.\n![img](pic.png)"
	got := Preview(content, 200)
	for _, bad := range []string{"#", "**", "](", "`", "![", "---"} {
		if strings.Contains(got, bad) {
			t.Errorf("preview still contains %q: %q", bad, got)
		}
	}
	if !strings.Contains(got, "bold") || !strings.Contains(got, "link") {
		t.Errorf("preview lost text: %q", got)
	}
}

func TestPreviewTruncates(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := Preview(long, 40)
	if len(got) > 45 {
		t.Errorf("too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("missing ellipsis: %q", got)
	}
}

func TestPreviewShortUntouched(t *testing.T) {
	if got := Preview("short text", 200); got != "short text" {
		t.Errorf("got %q", got)
	}
}
