package notes

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// File ids on the wire are base64url of the root-relative path, so paths
// with slashes and spaces travel as a single opaque route segment.

// FileID encodes a root-relative path as a route-safe id.
func FileID(rel string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(rel))
}

// ParseFileID decodes an id back to a root-relative path. Malformed ids
// and decoded paths that are empty or absolute are rejected here, before
// any disk access.
func ParseFileID(id string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("malformed file id: %w", err)
	}
	rel := string(b)
	if rel == "" || strings.HasPrefix(rel, "/") || strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("malformed file id")
	}
	return rel, nil
}
