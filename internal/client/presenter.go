package client

import (
	"context"

	"github.com/petervdpas/notewatch/internal/notify"
)

// Presenter reconciles external changes to the note currently open in the
// editor. A change while the buffer is clean is invisible plumbing: the
// fresh content is loaded silently. A change while the buffer is dirty is
// a conflict the operator has to see.
type Presenter struct {
	api      *Client
	coord    *AutoSave
	openPath string

	// OnReload fires after a silent reload with the new content and token.
	OnReload func(content, token string)
	// OnConflict fires when an external change collides with a dirty buffer.
	OnConflict func(path string)
	// OnDeleted fires when the open note is deleted externally.
	OnDeleted func(path string)
}

// NewPresenter wires reconciliation for the note at openPath.
func NewPresenter(api *Client, coord *AutoSave, openPath string) *Presenter {
	return &Presenter{api: api, coord: coord, openPath: openPath}
}

// HandleNotification processes one (already self-filtered) notification.
// Notifications for other paths are ignored here; listing refreshes are
// the caller's business.
func (p *Presenter) HandleNotification(ctx context.Context, n notify.Notification) {
	if n.Path != p.openPath {
		return
	}

	switch n.Type {
	case notify.TypeFileDeleted:
		if p.OnDeleted != nil {
			p.OnDeleted(n.Path)
		}
		return
	case notify.TypeFileUpdated, notify.TypeFileAdded:
	default:
		return
	}

	if p.coord.Dirty() || p.coord.State() == StateSaving {
		// Mid-edit: keep the draft, surface the collision, adopt the
		// server's version so an eventual overwrite is deliberate.
		note, err := p.api.Open(ctx, p.openPath)
		if err != nil {
			log.Warnw("fetch conflicting version", "path", p.openPath, "err", err)
			return
		}
		p.coord.ExternalConflict(note.Modified)
		if p.OnConflict != nil {
			p.OnConflict(n.Path)
		}
		return
	}

	note, err := p.api.Open(ctx, p.openPath)
	if err != nil {
		log.Warnw("silent reload failed", "path", p.openPath, "err", err)
		return
	}
	p.coord.Load(note.Content, note.Modified)
	if p.OnReload != nil {
		p.OnReload(note.Content, note.Modified)
	}
}
