package notes

import (
	"context"
	"os"
	"strings"
)

// SearchHit is one note matched by a query.
type SearchHit struct {
	Note
	MatchedName    bool `json:"matchedName"`
	MatchedContent bool `json:"matchedContent"`
}

// Search returns notes whose file name or body contains the query,
// case-insensitively. Hits come back in listing order (path sorted).
// An empty query matches nothing.
func (s *Store) Search(ctx context.Context, query string) ([]SearchHit, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, nil
	}

	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var hits []SearchHit
	for _, n := range all {
		hit := SearchHit{Note: n}
		if strings.Contains(strings.ToLower(n.FileName), query) {
			hit.MatchedName = true
		}

		abs, err := s.cleanAbs(n.Path)
		if err != nil {
			continue
		}
		b, err := os.ReadFile(abs)
		if err != nil {
			// File vanished mid-scan; name match alone still counts.
			if hit.MatchedName {
				hits = append(hits, hit)
			}
			continue
		}
		body := string(b)
		if strings.Contains(strings.ToLower(body), query) {
			hit.MatchedContent = true
		}
		if hit.MatchedName || hit.MatchedContent {
			hit.Preview = Preview(body, previewLen)
			hits = append(hits, hit)
		}
	}
	return hits, nil
}

// TagIndex maps each tag to the paths of the notes that carry it.
func (s *Store) TagIndex(ctx context.Context) (map[string][]string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	idx := map[string][]string{}
	for _, n := range all {
		abs, err := s.cleanAbs(n.Path)
		if err != nil {
			continue
		}
		b, err := os.ReadFile(abs)
		if err != nil {
			continue
		}
		for _, t := range ExtractTags(string(b)) {
			idx[t] = append(idx[t], n.Path)
		}
	}
	return idx, nil
}
