package routes

import (
	"errors"
	"net/http"
	"strings"

	"github.com/petervdpas/notewatch/internal/notes"
)

func registerFileRoutes(mux *http.ServeMux, d Deps) {
	// Grouped listing for the sidebar.
	handleGet(mux, "/api/files", func(w http.ResponseWriter, r *http.Request) {
		groups, order, err := d.Notes.Grouped(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{
			"groups": groups,
			"order":  order,
		})
	})

	// Flat hierarchical tree.
	handleGet(mux, "/api/files/tree", func(w http.ResponseWriter, r *http.Request) {
		items, err := d.Notes.Tree(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"items": items})
	})

	mux.HandleFunc("/api/file/", func(w http.ResponseWriter, r *http.Request) {
		// The id is validated before anything touches the disk.
		rel, err := notes.ParseFileID(strings.TrimPrefix(r.URL.Path, "/api/file/"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		switch r.Method {
		case http.MethodGet:
			serveFile(w, r, d, rel)
		case http.MethodPut:
			saveFile(w, r, d, rel)
		case http.MethodDelete:
			deleteFile(w, r, d, rel)
		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}

// filePayload is a note plus its rendered HTML for markdown files.
type filePayload struct {
	notes.Note
	HTML string `json:"html,omitempty"`
}

func serveFile(w http.ResponseWriter, r *http.Request, d Deps, rel string) {
	n, err := d.Notes.Read(r.Context(), rel)
	if err != nil {
		writeNoteError(w, err)
		return
	}

	p := filePayload{Note: n}
	if n.IsMarkdown && d.Markdown != nil {
		html, err := d.Markdown.Render(n.Content)
		if err != nil {
			log.Warnw("render markdown", "path", rel, "err", err)
		} else {
			p.HTML = html
		}
	}
	writeJSON(w, p)
}

type savePayload struct {
	Content      string `json:"content"`
	LastModified string `json:"lastModified"`
	EditorID     string `json:"editorId"`
}

func saveFile(w http.ResponseWriter, r *http.Request, d Deps, rel string) {
	var body savePayload
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}

	res, err := d.Notes.Save(r.Context(), notes.SaveRequest{
		Path:          rel,
		Content:       body.Content,
		ExpectedToken: body.LastModified,
		EditorID:      body.EditorID,
	})
	if err != nil {
		writeNoteError(w, err)
		return
	}

	if !res.OK {
		// The disk was not touched; both versions go back to the editor.
		writeJSONStatus(w, http.StatusConflict, map[string]string{
			"error":          "CONFLICT_DETECTED",
			"serverContent":  res.Conflict.ServerContent,
			"serverModified": res.Conflict.ServerToken,
			"clientContent":  res.Conflict.ClientContent,
		})
		return
	}

	// The watcher will observe this write and broadcast it; recording the
	// origin here is what lets that notification name the author.
	if d.Origins != nil {
		d.Origins.Record(rel, body.EditorID)
	}

	writeJSON(w, map[string]any{
		"ok":           true,
		"lastModified": res.Token,
		"created":      res.Created,
		"size":         res.Size,
	})
}

func deleteFile(w http.ResponseWriter, r *http.Request, d Deps, rel string) {
	if err := d.Notes.Delete(r.Context(), rel); err != nil {
		writeNoteError(w, err)
		return
	}
	if d.DB != nil {
		if err := d.DB.RemoveFavorite(rel); err != nil {
			log.Warnw("drop favorite for deleted note", "path", rel, "err", err)
		}
	}
	writeJSON(w, map[string]string{"status": "deleted", "path": rel})
}

// writeNoteError maps store sentinels onto HTTP statuses.
func writeNoteError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, notes.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, notes.ErrOutsideRoot):
		writeError(w, http.StatusBadRequest, "path outside notes root")
	case errors.Is(err, notes.ErrIsDirectory):
		writeError(w, http.StatusBadRequest, "path is a directory")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
