package notes

import (
	"regexp"
	"sort"
	"strings"
)

// previewLen is the default number of characters kept of a note's body.
const previewLen = 200

var (
	hashtagRe     = regexp.MustCompile(`#([a-zA-Z0-9\-_]+)`)
	frontTagsRe   = regexp.MustCompile(`(?m)^tags:\s*\[([^\]]+)\]`)
	tagsLineRe    = regexp.MustCompile(`(?mi)^tags:\s*(.+)$`)
	headerRe      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	emphasisRe    = regexp.MustCompile(`(\*\*|__|\*|_|~~)`)
	inlineCodeRe  = regexp.MustCompile("`[^`]*`")
	linkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	imageRe       = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
	frontmatterRe = regexp.MustCompile(`(?s)\A---\n.*?\n---\n?`)
)

// ExtractTags collects tags from a note body. Three forms count: inline
// #hashtags, a YAML frontmatter list (tags: [a, b]), and plain "tags: a, b"
// lines. Tags are lowercased, deduplicated and sorted.
func ExtractTags(content string) []string {
	seen := map[string]bool{}

	for _, m := range hashtagRe.FindAllStringSubmatch(content, -1) {
		seen[strings.ToLower(m[1])] = true
	}

	addList := func(list string) {
		for _, t := range strings.Split(list, ",") {
			t = strings.ToLower(strings.Trim(t, " \t\"'"))
			if t != "" {
				seen[t] = true
			}
		}
	}

	if m := frontTagsRe.FindStringSubmatch(content); m != nil {
		addList(m[1])
	} else if m := tagsLineRe.FindStringSubmatch(content); m != nil {
		addList(m[1])
	}

	if len(seen) == 0 {
		return nil
	}
	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Preview strips markdown syntax from content and truncates it to max
// characters, appending an ellipsis when it had to cut.
func Preview(content string, max int) string {
	s := frontmatterRe.ReplaceAllString(content, "")
	s = imageRe.ReplaceAllString(s, "")
	s = linkRe.ReplaceAllString(s, "$1")
	s = inlineCodeRe.ReplaceAllString(s, "")
	s = headerRe.ReplaceAllString(s, "")
	s = emphasisRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if max <= 0 || len(s) <= max {
		return s
	}
	cut := s[:max]
	if i := strings.LastIndexByte(cut, ' '); i > max/2 {
		cut = cut[:i]
	}
	return cut + "…"
}
