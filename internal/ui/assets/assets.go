// Package assets embeds the browser UI and serves it minified.
package assets

import (
	"embed"
	"io/fs"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

//go:embed index.html app.css app.js
var rawFS embed.FS

var minified map[string][]byte

func init() {
	m := minify.New()
	m.AddFunc("application/javascript", js.Minify)
	m.AddFunc("text/css", css.Minify)

	minified = make(map[string][]byte)

	_ = fs.WalkDir(rawFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := rawFS.ReadFile(path)
		if err != nil {
			return nil
		}

		var mime string
		switch strings.ToLower(filepath.Ext(path)) {
		case ".js":
			mime = "application/javascript"
		case ".css":
			mime = "text/css"
		default:
			minified[path] = raw
			return nil
		}

		out, err := m.Bytes(mime, raw)
		if err != nil {
			log.Printf("assets: minify warning: %s: %v (using original)", path, err)
			minified[path] = raw
			return nil
		}
		minified[path] = out
		return nil
	})
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Handler serves the minified assets. Mount under /assets/ with StripPrefix.
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if data, ok := minified[path]; ok {
			w.Header().Set("Content-Type", contentType(path))
			_, _ = w.Write(data)
			return
		}
		http.NotFound(w, r)
	})
}

// Index serves the app shell for every non-API path.
func Index() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := minified["index.html"]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(data)
	})
}
