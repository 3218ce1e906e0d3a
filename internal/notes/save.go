package notes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// SaveRequest is one write attempt from an editor.
type SaveRequest struct {
	Path          string
	Content       string
	ExpectedToken string // version token the client read; empty for new files
	EditorID      string // opaque per-session identity of the author
}

// Conflict carries both sides of a rejected save so the client can offer a
// merge choice. The disk is not touched when a conflict is reported.
type Conflict struct {
	ServerContent string `json:"serverContent"`
	ServerToken   string `json:"serverModified"`
	ClientContent string `json:"clientContent"`
}

// SaveResult is the outcome of a save attempt.
type SaveResult struct {
	OK       bool
	Token    string // new version token after a successful write
	Size     int64
	Created  bool // true when the save created the file
	Conflict *Conflict
}

// Save applies the optimistic-concurrency write protocol:
//
//  1. No file at Path: treat as creation, skip the token check, create
//     parent directories.
//  2. File exists: its current mtime token is compared against
//     ExpectedToken. Empty or equal expected token lets the write proceed.
//  3. Mismatch: nothing is written; the current content and token are
//     returned in a Conflict.
//
// Empty content is a valid save, and content identical to what is already
// on disk is still written (the caller gets a fresh token either way).
//
// The stat-compare-write sequence is not atomic against a concurrent
// writer; the token check narrows the clobber window but cannot close it.
func (s *Store) Save(ctx context.Context, req SaveRequest) (SaveResult, error) {
	abs, err := s.cleanAbs(req.Path)
	if err != nil {
		return SaveResult{}, err
	}

	st, statErr := os.Stat(abs)
	isNew := false
	switch {
	case statErr == nil:
		if st.IsDir() {
			return SaveResult{}, ErrIsDirectory
		}
	case errors.Is(statErr, os.ErrNotExist):
		isNew = true
	default:
		return SaveResult{}, statErr
	}

	if !isNew && req.ExpectedToken != "" {
		current := TokenOf(st)
		if current != req.ExpectedToken {
			b, err := os.ReadFile(abs)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					// Deleted between stat and read; fall through to creation.
					isNew = true
				} else {
					return SaveResult{}, err
				}
			}
			if !isNew {
				return SaveResult{
					OK: false,
					Conflict: &Conflict{
						ServerContent: string(b),
						ServerToken:   current,
						ClientContent: req.Content,
					},
				}, nil
			}
		}
	}

	if isNew {
		if err := s.mkdirAllChecked(filepath.Dir(abs)); err != nil {
			return SaveResult{}, err
		}
	}

	if err := s.writeAtomic(abs, []byte(req.Content)); err != nil {
		return SaveResult{}, err
	}

	st, err = os.Stat(abs)
	if err != nil {
		return SaveResult{}, err
	}

	return SaveResult{
		OK:      true,
		Token:   TokenOf(st),
		Size:    st.Size(),
		Created: isNew,
	}, nil
}

// writeAtomic writes data via a temp file in the same directory plus rename,
// so readers and the watcher never observe a half-written note.
func (s *Store) writeAtomic(abs string, data []byte) error {
	dir := filepath.Dir(abs)

	f, err := os.CreateTemp(dir, ".notewatch-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	cleanup := func() {
		_ = f.Close()
		_ = os.Remove(tmp)
	}

	if _, err := f.Write(data); err != nil {
		cleanup()
		return err
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, abs); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
