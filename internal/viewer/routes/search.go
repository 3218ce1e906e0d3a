package routes

import (
	"net/http"
	"strings"
)

func registerSearchRoutes(mux *http.ServeMux, d Deps) {
	handleGet(mux, "/api/search", func(w http.ResponseWriter, r *http.Request) {
		q := strings.TrimSpace(r.URL.Query().Get("q"))
		hits, err := d.Notes.Search(r.Context(), q)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{
			"query": q,
			"count": len(hits),
			"hits":  hits,
		})
	})

	handleGet(mux, "/api/tags", func(w http.ResponseWriter, r *http.Request) {
		tags, err := d.Notes.TagIndex(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, map[string]any{"tags": tags})
	})
}
