package routes

import "net/http"

// Settings are free-form key/value pairs the UI persists (theme, panel
// state, notification toggles). They live in sqlite, not in the config
// file, so the browser can change them without touching notewatch.json.
func registerSettingsRoutes(mux *http.ServeMux, d Deps) {
	mux.HandleFunc("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		if d.DB == nil {
			writeError(w, http.StatusInternalServerError, "storage not configured")
			return
		}

		switch r.Method {
		case http.MethodGet:
			all, err := d.DB.AllSettings()
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]any{"settings": all})

		case http.MethodPut, http.MethodPost:
			var body struct {
				Key   string `json:"key"`
				Value string `json:"value"`
			}
			if err := decodeBody(r, &body); err != nil || body.Key == "" {
				writeError(w, http.StatusBadRequest, "key required")
				return
			}
			if err := d.DB.SetSetting(body.Key, body.Value); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, map[string]string{"status": "saved", "key": body.Key})

		default:
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	})
}
