// Package client is the editor-side core: an HTTP wrapper for the notes
// API, the auto-save coordinator, conflict reconciliation, and the
// notification listener with receiver-side self-suppression.
package client

import "github.com/google/uuid"

// EditorID identifies one editing session. It is minted once when the
// session opens, attached to every save, and never reused. The server
// treats it as opaque.
type EditorID string

// NewEditorID mints a fresh session identity.
func NewEditorID() EditorID {
	return EditorID(uuid.NewString())
}

func (e EditorID) String() string { return string(e) }
