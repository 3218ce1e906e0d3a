package notes

import (
	"os"
	"time"
)

// Version tokens are the file's modification time rendered as RFC3339 with
// nanoseconds. A token only distinguishes two writes when the filesystem's
// mtime resolution does; on coarse filesystems two saves inside one tick
// produce the same token. The save protocol treats tokens as opaque strings
// and compares them for equality only.
const tokenLayout = time.RFC3339Nano

// TokenOf derives the version token for a stat result.
func TokenOf(st os.FileInfo) string {
	return st.ModTime().UTC().Format(tokenLayout)
}

// ParseToken recovers the timestamp behind a token. Used only for display;
// the protocol never orders tokens.
func ParseToken(tok string) (time.Time, error) {
	return time.Parse(tokenLayout, tok)
}
