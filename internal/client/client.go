package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/petervdpas/notewatch/internal/notes"
)

// Client talks to the notes API over HTTP.
type Client struct {
	baseURL  string
	http     *http.Client
	editorID EditorID
}

// New creates a client for the server at baseURL. The editor identity is
// sent with every save so other sessions can attribute the change.
func New(baseURL string, editorID EditorID) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		editorID: editorID,
	}
}

// EditorID returns the session identity this client saves under.
func (c *Client) EditorID() EditorID { return c.editorID }

// ConflictError is the decoded rejection of a stale save.
type ConflictError struct {
	Path          string
	ServerContent string
	ServerToken   string
	ClientContent string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: server has version %s", e.Path, e.ServerToken)
}

// AsConflict unwraps err as a ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ErrNotFound is returned for 404 responses.
var ErrNotFound = errors.New("not found")

type saveBody struct {
	Content      string `json:"content"`
	LastModified string `json:"lastModified,omitempty"`
	EditorID     string `json:"editorId,omitempty"`
}

type saveReply struct {
	OK           bool   `json:"ok"`
	LastModified string `json:"lastModified"`
}

type conflictReply struct {
	Error          string `json:"error"`
	ServerContent  string `json:"serverContent"`
	ServerModified string `json:"serverModified"`
	ClientContent  string `json:"clientContent"`
}

// Open fetches a note with content and version token.
func (c *Client) Open(ctx context.Context, rel string) (notes.Note, error) {
	var n notes.Note
	err := c.getJSON(ctx, "/api/file/"+notes.FileID(rel), &n)
	return n, err
}

// Save writes content under the optimistic-concurrency protocol. token is
// the version the editor last read; empty creates or overwrites freely.
// A rejected save returns a *ConflictError carrying both sides.
func (c *Client) Save(ctx context.Context, rel, content, token string) (newToken string, err error) {
	body, err := json.Marshal(saveBody{
		Content:      content,
		LastModified: token,
		EditorID:     string(c.editorID),
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.baseURL+"/api/file/"+notes.FileID(rel), bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var r saveReply
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return "", err
		}
		return r.LastModified, nil

	case http.StatusConflict:
		var cr conflictReply
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return "", fmt.Errorf("conflict with unreadable body: %w", err)
		}
		return "", &ConflictError{
			Path:          rel,
			ServerContent: cr.ServerContent,
			ServerToken:   cr.ServerModified,
			ClientContent: cr.ClientContent,
		}

	case http.StatusNotFound:
		return "", ErrNotFound

	default:
		return "", fmt.Errorf("save failed: %s", resp.Status)
	}
}

// Delete removes a note.
func (c *Client) Delete(ctx context.Context, rel string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/api/file/"+notes.FileID(rel), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("delete failed: %s", resp.Status)
	}
}

// List fetches the grouped note listing.
func (c *Client) List(ctx context.Context) (map[string][]notes.Note, error) {
	var out struct {
		Groups map[string][]notes.Note `json:"groups"`
	}
	err := c.getJSON(ctx, "/api/files", &out)
	return out.Groups, err
}

// Tree fetches the flat hierarchical listing.
func (c *Client) Tree(ctx context.Context) ([]notes.TreeItem, error) {
	var out struct {
		Items []notes.TreeItem `json:"items"`
	}
	err := c.getJSON(ctx, "/api/files/tree", &out)
	return out.Items, err
}

// Search runs a case-insensitive substring search.
func (c *Client) Search(ctx context.Context, query string) ([]notes.SearchHit, error) {
	var out struct {
		Hits []notes.SearchHit `json:"hits"`
	}
	err := c.getJSON(ctx, "/api/search?q="+url.QueryEscape(query), &out)
	return out.Hits, err
}

// Tags fetches the tag index.
func (c *Client) Tags(ctx context.Context) (map[string][]string, error) {
	var out struct {
		Tags map[string][]string `json:"tags"`
	}
	err := c.getJSON(ctx, "/api/tags", &out)
	return out.Tags, err
}

// Favorites fetches the favorite paths.
func (c *Client) Favorites(ctx context.Context) ([]string, error) {
	var out struct {
		Favorites []string `json:"favorites"`
	}
	err := c.getJSON(ctx, "/api/favorites", &out)
	return out.Favorites, err
}

// ToggleFavorite flips the favorite state of rel and reports the new state.
func (c *Client) ToggleFavorite(ctx context.Context, rel string) (bool, error) {
	body, _ := json.Marshal(map[string]string{"path": rel})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/favorites", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("toggle favorite failed: %s", resp.Status)
	}
	var out struct {
		Favorite bool `json:"favorite"`
	}
	err = json.NewDecoder(resp.Body).Decode(&out)
	return out.Favorite, err
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(v)
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("GET %s: %s", path, resp.Status)
	}
}
