package app

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	logging "github.com/ipfs/go-log/v2"

	"github.com/petervdpas/notewatch/internal/config"
	"github.com/petervdpas/notewatch/internal/markdown"
	"github.com/petervdpas/notewatch/internal/notes"
	"github.com/petervdpas/notewatch/internal/notify"
	"github.com/petervdpas/notewatch/internal/storage"
	"github.com/petervdpas/notewatch/internal/util"
	"github.com/petervdpas/notewatch/internal/viewer"
	"github.com/petervdpas/notewatch/internal/watch"
)

type Options struct {
	// DataDir is the directory the config file lives in. Relative paths in
	// the config resolve against it.
	DataDir string
	CfgPath string
	Cfg     config.Config
}

func Run(ctx context.Context, opt Options) error {
	logBuf := viewer.NewLogBuffer(800)
	log.SetOutput(io.MultiWriter(os.Stderr, logBuf))

	if opt.Cfg.Viewer.Debug {
		logging.SetLogLevel("watch", "debug")
		logging.SetLogLevel("notify", "debug")
		logging.SetLogLevel("routes", "debug")
	} else {
		logging.SetLogLevel("watch", "info")
		logging.SetLogLevel("notify", "info")
		logging.SetLogLevel("routes", "info")
	}

	logBanner(opt.DataDir, opt.CfgPath)

	cfg := opt.Cfg

	notesRoot := util.ResolvePath(opt.DataDir, cfg.Paths.NotesRoot)
	if err := os.MkdirAll(notesRoot, 0o755); err != nil {
		return err
	}

	store, err := notes.NewStore(notesRoot, cfg.Watcher.Extensions)
	if err != nil {
		return err
	}

	dataDir := util.ResolvePath(opt.DataDir, cfg.Paths.DataDir)
	db, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer db.Close()

	renderer := markdown.New(cfg.Viewer.Theme)
	bcast := notify.NewBroadcaster()
	defer bcast.Close()
	origins := notify.NewOrigins(0)

	// ── Filesystem watcher
	watcher, err := watch.New(notesRoot, time.Duration(cfg.Watcher.DebounceMs)*time.Millisecond, store.Supported)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return err
	}
	defer watcher.Stop()

	if cfg.Notifications.Enabled {
		go bridgeChanges(watcher, bcast, origins)
		go bridgeErrors(watcher, bcast)
	} else {
		go drainWatcher(watcher)
	}

	// ── HTTP viewer
	addr, url := normalizeLocalViewer(cfg.Viewer.HTTPAddr)
	srv := viewer.NewServer(addr, viewer.Viewer{
		Cfg:       &cfg,
		CfgPath:   opt.CfgPath,
		Logs:      logBuf,
		Notes:     store,
		Markdown:  renderer,
		Broadcast: bcast,
		Origins:   origins,
		DB:        db,
	})

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Println("────────────────────────────────────────────────────────")
	log.Printf("🌐 Notes viewer: %s", url)
	log.Printf("📁 Watching:     %s", notesRoot)
	log.Println("────────────────────────────────────────────────────────")

	select {
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	case err := <-errCh:
		return err
	}
}

// bridgeChanges turns settled filesystem changes into client notifications.
// A change caused by a viewer save claims the saving editor's identity so
// that editor's own browser tab can ignore the echo.
func bridgeChanges(w *watch.Watcher, b *notify.Broadcaster, o *notify.Origins) {
	for ch := range w.Events() {
		typ := notify.TypeFileUpdated
		switch ch.Kind {
		case watch.Added:
			typ = notify.TypeFileAdded
		case watch.Deleted:
			typ = notify.TypeFileDeleted
		}
		b.Publish(notify.ForPath(typ, ch.Path, o.Claim(ch.Path)))
	}
}

func bridgeErrors(w *watch.Watcher, b *notify.Broadcaster) {
	for err := range w.Errors() {
		log.Printf("watcher error: %v", err)
		b.Publish(notify.Notification{
			Type:      notify.TypeWatcherError,
			Message:   err.Error(),
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
}

// drainWatcher keeps the watcher channels from filling up when
// notifications are disabled in config.
func drainWatcher(w *watch.Watcher) {
	for {
		select {
		case _, ok := <-w.Events():
			if !ok {
				return
			}
		case _, ok := <-w.Errors():
			if !ok {
				return
			}
		}
	}
}
