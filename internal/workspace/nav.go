package workspace

import (
	"context"

	"github.com/mosaicnotes/mosaic/internal/models"
	"github.com/mosaicnotes/mosaic/internal/tree"
)

// NavDecision resolves the unsaved-changes prompt.
type NavDecision int

const (
	// SaveAndLeave persists the active page, then switches.
	SaveAndLeave NavDecision = iota
	// DiscardAndLeave restores the active page from its last server
	// snapshot, then switches.
	DiscardAndLeave
	// CancelNav stays on the current page; edits are kept.
	CancelNav
)

// SelectPage requests opening a page. In the Clean state the switch is
// immediate and true is returned. With unsaved edits the target is
// parked as the pending navigation instead and false is returned: the
// caller must show the unsaved-changes prompt and resolve it through
// ConfirmNavigation. Browser-style history navigation routes through
// this same method so edits are never silently discarded.
func (w *Workspace) SelectPage(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseReady || id == w.activePageID {
		return true
	}
	if w.findPageLocked(id) == nil {
		return true
	}
	if !w.dirty {
		w.activePageID = id
		w.pendingNavID = ""
		return true
	}
	w.pendingNavID = id
	return false
}

// ActivateNode opens the page behind a sidebar node: the node's own
// page, or the first page found depth-first inside a folder. Returns
// false when the prompt must be shown first (see SelectPage).
func (w *Workspace) ActivateNode(id string) bool {
	w.mu.Lock()
	n := tree.FindNode(w.root, id)
	var pageID string
	if n != nil {
		pageID = tree.FirstPageID(n)
	}
	w.mu.Unlock()
	if pageID == "" {
		return true
	}
	return w.SelectPage(pageID)
}

// PendingNav returns the parked navigation target, or empty when no
// prompt is open.
func (w *Workspace) PendingNav() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingNavID
}

// ConfirmNavigation resolves the unsaved-changes prompt with exactly
// one of the three outcomes.
func (w *Workspace) ConfirmNavigation(ctx context.Context, decision NavDecision) error {
	w.mu.Lock()
	target := w.pendingNavID
	w.mu.Unlock()
	if target == "" {
		return nil
	}

	switch decision {
	case CancelNav:
		w.mu.Lock()
		w.pendingNavID = ""
		w.mu.Unlock()
		return nil

	case DiscardAndLeave:
		w.mu.Lock()
		w.restoreActiveFromSnapshotLocked()
		w.dirty = false
		w.activePageID = target
		w.pendingNavID = ""
		w.mu.Unlock()
		return nil

	case SaveAndLeave:
		if err := w.Save(ctx); err != nil {
			return err
		}
		w.mu.Lock()
		w.activePageID = target
		w.pendingNavID = ""
		w.mu.Unlock()
		return nil
	}
	return nil
}

// restoreActiveFromSnapshotLocked rewinds the active page's in-memory
// data to the last state the server acknowledged.
func (w *Workspace) restoreActiveFromSnapshotLocked() {
	p := w.findPageLocked(w.activePageID)
	if p == nil {
		return
	}
	if meta, ok := w.serverPages[p.ID]; ok {
		if meta.Title != "" && meta.Title != p.Title {
			w.root = tree.RenameNode(w.root, p.ID, meta.Title)
		}
		p.Title = meta.Title
		p.Tags = append([]string(nil), meta.Tags...)
	}
	if blocks, ok := w.serverBlocks[p.ID]; ok {
		restored := make([]models.Block, len(blocks))
		for i := range blocks {
			restored[i] = *blocks[i].Clone()
		}
		p.Blocks = restored
	}
}
