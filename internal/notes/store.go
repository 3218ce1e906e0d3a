// Package notes is the on-disk document store: path-safe reads and writes
// under a single root, mtime-based version tokens, and the optimistic
// save protocol used by the editor API.
package notes

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrOutsideRoot = errors.New("path outside root")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrIsDirectory = errors.New("path is a directory")
)

// Store manages the notes tree rooted at a single directory.
type Store struct {
	root string // absolute path to the notes root
	exts map[string]bool
}

// NewStore creates a store rooted at root (created if missing). exts is the
// allow-list of file extensions reported by listings and search; nil or empty
// means every file is reported.
func NewStore(root string, exts []string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, err
	}

	s := &Store{root: abs}
	if len(exts) > 0 {
		s.exts = make(map[string]bool, len(exts))
		for _, e := range exts {
			s.exts[strings.ToLower(e)] = true
		}
	}
	return s, nil
}

// Note describes a single document.
type Note struct {
	Path       string `json:"path"`     // root-relative, forward slashes
	FileName   string `json:"fileName"`
	Directory  string `json:"directory"` // first path segment, "" at root
	Size       int64  `json:"size"`
	Modified   string `json:"lastModified"` // version token
	IsMarkdown bool   `json:"isMarkdown"`
	Preview    string `json:"preview,omitempty"`
	Content    string `json:"content,omitempty"`
}

func (s *Store) RootAbs() string { return s.root }

// Supported reports whether the store considers rel a note file.
func (s *Store) Supported(rel string) bool {
	if s.exts == nil {
		return true
	}
	return s.exts[strings.ToLower(path.Ext(rel))]
}

// Read returns the full note at rel, including content and version token.
func (s *Store) Read(ctx context.Context, rel string) (Note, error) {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return Note{}, err
	}

	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	if st.IsDir() {
		return Note{}, ErrIsDirectory
	}

	b, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}

	n := s.describe(rel, st)
	n.Content = string(b)
	n.Preview = Preview(n.Content, previewLen)
	return n, nil
}

// Stat returns note metadata without reading content.
func (s *Store) Stat(ctx context.Context, rel string) (Note, error) {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return Note{}, err
	}
	st, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Note{}, ErrNotFound
		}
		return Note{}, err
	}
	if st.IsDir() {
		return Note{}, ErrIsDirectory
	}
	return s.describe(rel, st), nil
}

// Delete removes the note at rel.
func (s *Store) Delete(ctx context.Context, rel string) error {
	abs, err := s.cleanAbs(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Rename moves a note within the root, creating target parents as needed.
func (s *Store) Rename(ctx context.Context, fromRel, toRel string) error {
	fromAbs, err := s.cleanAbs(fromRel)
	if err != nil {
		return err
	}
	toAbs, err := s.cleanAbs(toRel)
	if err != nil {
		return err
	}

	if err := s.mkdirAllChecked(filepath.Dir(toAbs)); err != nil {
		return err
	}

	if err := os.Rename(fromAbs, toAbs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// List returns all supported notes under the root, without content.
func (s *Store) List(ctx context.Context) ([]Note, error) {
	var out []Note
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// A subtree vanished or turned unreadable mid-walk; skip it.
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") {
			if d.IsDir() && p != s.root {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !s.Supported(rel) {
			return nil
		}

		st, err := d.Info()
		if err != nil {
			return nil
		}
		out = append(out, s.describe(rel, st))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Grouped returns supported notes grouped by top-level directory, with each
// group sorted newest first. Root-level files land under the "root" key.
func (s *Store) Grouped(ctx context.Context) (map[string][]Note, []string, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	grouped := make(map[string][]Note)
	for _, n := range all {
		key := n.Directory
		if key == "" {
			key = "root"
		}
		grouped[key] = append(grouped[key], n)
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	// Newest date-named directories first.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	for _, k := range keys {
		g := grouped[k]
		sort.Slice(g, func(i, j int) bool { return g[i].Modified > g[j].Modified })
	}
	return grouped, keys, nil
}

// TreeItem is a single node in a flattened tree listing.
type TreeItem struct {
	Path  string `json:"path"` // root-relative, forward slashes
	IsDir bool   `json:"isDir"`
	Depth int    `json:"depth"`
}

// Tree returns the full directory tree as a flattened, hierarchically
// ordered list: parents before children, directories before files.
func (s *Store) Tree(ctx context.Context) ([]TreeItem, error) {
	var out []TreeItem
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if p == s.root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !d.IsDir() && !s.Supported(rel) {
			return nil
		}

		out = append(out, TreeItem{
			Path:  rel,
			IsDir: d.IsDir(),
			Depth: strings.Count(rel, "/"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]

		as := strings.Split(a.Path, "/")
		bs := strings.Split(b.Path, "/")

		n := len(as)
		if len(bs) < n {
			n = len(bs)
		}
		for k := 0; k < n; k++ {
			if as[k] != bs[k] {
				return as[k] < bs[k]
			}
		}

		// One is prefix of the other => parent first
		if len(as) != len(bs) {
			return len(as) < len(bs)
		}

		// Same folder: dirs before files
		if a.IsDir != b.IsDir {
			return a.IsDir
		}

		return a.Path < b.Path
	})

	return out, nil
}

func (s *Store) describe(rel string, st os.FileInfo) Note {
	rel = filepath.ToSlash(rel)
	dir := ""
	if i := strings.Index(rel, "/"); i >= 0 {
		dir = rel[:i]
	}
	return Note{
		Path:       rel,
		FileName:   path.Base(rel),
		Directory:  dir,
		Size:       st.Size(),
		Modified:   TokenOf(st),
		IsMarkdown: strings.EqualFold(path.Ext(rel), ".md"),
	}
}

// --- safety boundary ---

func (s *Store) cleanAbs(rel string) (string, error) {
	rel = strings.TrimSpace(rel)
	rel = strings.TrimPrefix(rel, "/")
	rel = filepath.FromSlash(rel)

	abs := filepath.Clean(filepath.Join(s.root, rel))

	rootClean := filepath.Clean(s.root)
	rootPrefix := rootClean + string(filepath.Separator)
	if abs != rootClean && !strings.HasPrefix(abs, rootPrefix) {
		return "", ErrOutsideRoot
	}

	// prevent symlink escape on existing paths
	if p, err := filepath.EvalSymlinks(abs); err == nil {
		if p != rootClean && !strings.HasPrefix(p, rootPrefix) {
			return "", ErrOutsideRoot
		}
	}

	return abs, nil
}

// mkdirAllChecked creates directories but refuses if any component in the path is a file.
func (s *Store) mkdirAllChecked(absDir string) error {
	absDir = filepath.Clean(absDir)
	rootClean := filepath.Clean(s.root)

	if absDir != rootClean && !strings.HasPrefix(absDir, rootClean+string(filepath.Separator)) {
		return ErrOutsideRoot
	}

	rel, err := filepath.Rel(rootClean, absDir)
	if err != nil {
		return err
	}
	if rel == "." {
		return nil
	}
	cur := rootClean
	for _, part := range strings.Split(rel, string(filepath.Separator)) {
		if part == "" {
			continue
		}
		cur = filepath.Join(cur, part)

		if st, err := os.Stat(cur); err == nil {
			if !st.IsDir() {
				return ErrConflict
			}
			continue
		} else if errors.Is(err, os.ErrNotExist) {
			if mkErr := os.Mkdir(cur, 0o755); mkErr != nil && !errors.Is(mkErr, os.ErrExist) {
				return mkErr
			}
			continue
		} else {
			return err
		}
	}
	return nil
}

// NormalizeRel coerces an incoming path value into a clean root-relative
// path with forward slashes and no leading slash.
func NormalizeRel(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "/")
	p = strings.ReplaceAll(p, `\`, "/")
	p = path.Clean(p)
	if p == "." {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}
