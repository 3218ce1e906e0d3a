// Package routes wires the notes API onto an http.ServeMux.
package routes

import (
	"net/http"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/notewatch/internal/config"
	"github.com/petervdpas/notewatch/internal/markdown"
	"github.com/petervdpas/notewatch/internal/notes"
	"github.com/petervdpas/notewatch/internal/notify"
	"github.com/petervdpas/notewatch/internal/storage"
)

var log = logging.Logger("routes")

// Logs is the slice of the log buffer the routes need.
type Logs interface {
	ServeLogsJSON(w http.ResponseWriter, r *http.Request)
	ServeLogsSSE(w http.ResponseWriter, r *http.Request)
}

// Deps carries the collaborators the route handlers use.
type Deps struct {
	Cfg     *config.Config
	CfgPath string
	Logs    Logs

	Notes     *notes.Store
	Markdown  *markdown.Renderer
	Broadcast *notify.Broadcaster
	Origins   *notify.Origins
	DB        *storage.DB
}

// Register mounts every API route.
func Register(mux *http.ServeMux, d Deps) {
	registerAPILogRoutes(mux, d)
	registerFileRoutes(mux, d)
	registerSearchRoutes(mux, d)
	registerFavoriteRoutes(mux, d)
	registerSettingsRoutes(mux, d)
	registerWSRoute(mux, d)
}

func registerAPILogRoutes(mux *http.ServeMux, d Deps) {
	if d.Logs == nil {
		return
	}
	mux.HandleFunc("/api/logs", d.Logs.ServeLogsJSON)
	mux.HandleFunc("/api/logs/stream", d.Logs.ServeLogsSSE)
}
