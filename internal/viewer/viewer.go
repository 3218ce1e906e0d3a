package viewer

import (
	"net/http"

	"github.com/petervdpas/notewatch/internal/config"
	"github.com/petervdpas/notewatch/internal/markdown"
	"github.com/petervdpas/notewatch/internal/notes"
	"github.com/petervdpas/notewatch/internal/notify"
	"github.com/petervdpas/notewatch/internal/storage"
	viewerassets "github.com/petervdpas/notewatch/internal/ui/assets"
	"github.com/petervdpas/notewatch/internal/viewer/routes"
)

// Viewer holds everything the HTTP surface needs. All collaborators are
// constructed by the caller and passed in explicitly.
type Viewer struct {
	Cfg     *config.Config
	CfgPath string
	Logs    *LogBuffer

	Notes     *notes.Store
	Markdown  *markdown.Renderer
	Broadcast *notify.Broadcaster
	Origins   *notify.Origins
	DB        *storage.DB
}

// NewServer builds the HTTP server for the notes UI and API. The caller
// owns the lifecycle (ListenAndServe / Shutdown).
func NewServer(addr string, v Viewer) *http.Server {
	mux := http.NewServeMux()

	mux.Handle("/assets/", http.StripPrefix("/assets/",
		noCache(viewerassets.Handler()),
	))
	mux.Handle("/", noCache(viewerassets.Index()))

	routes.Register(mux, routes.Deps{
		Cfg:       v.Cfg,
		CfgPath:   v.CfgPath,
		Logs:      v.Logs,
		Notes:     v.Notes,
		Markdown:  v.Markdown,
		Broadcast: v.Broadcast,
		Origins:   v.Origins,
		DB:        v.DB,
	})

	return &http.Server{Addr: addr, Handler: mux}
}
