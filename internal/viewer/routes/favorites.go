package routes

import "net/http"

func registerFavoriteRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("/api/favorites", func(w http.ResponseWriter, r *http.Request) {
		if d.DB == nil {
			writeError(w, http.StatusInternalServerError, "storage not configured")
			return
		}

		switch r.Method {
		case http.MethodGet:
			favs, err := d.DB.ListFavorites()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]any{"favorites": favs})

		case http.MethodPost:
			var body struct {
				Path string `json:"path"`
			}
			if err := decodeBody(r, &body); err != nil || body.Path == "" {
				writeError(w, http.StatusBadRequest, "path required")
				return
			}
			on, err := d.DB.ToggleFavorite(body.Path)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]any{"path": body.Path, "favorite": on})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}
