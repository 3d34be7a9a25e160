package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/mosaicnotes/mosaic/internal/models"
)

// Save persists the active page with a four-phase block diff against
// the last server snapshot:
//
//  1. delete: server blocks absent locally, all issued concurrently
//  2. create: local blocks unknown to the server, sequentially in
//     local order so each server-assigned id maps back unambiguously
//  3. update: known blocks whose content, span or tags changed,
//     concurrently
//  4. reconcile and reorder: temporary block ids are swapped for the
//     created ones, then one bulk reorder pins the server order to the
//     client order
//
// The title is written unconditionally first, so title and blocks stay
// consistent even when only one of them changed.
// Individual failures in phases 1-3 are logged and do not abort the
// remaining work; a title or reorder failure does not roll back the
// local reconciliation already applied.
func (w *Workspace) Save(ctx context.Context) error {
	w.mu.Lock()
	if w.phase != PhaseReady {
		w.mu.Unlock()
		return ErrLoading
	}
	p := w.findPageLocked(w.activePageID)
	if p == nil {
		w.mu.Unlock()
		return ErrNoActivePage
	}
	local := p.Clone()
	server := make([]models.Block, len(w.serverBlocks[local.ID]))
	copy(server, w.serverBlocks[local.ID])
	w.mu.Unlock()

	if err := w.api.UpdatePage(ctx, local.ID, models.PageUpdate{Title: local.Title}); err != nil {
		logRemoteFailure(ctx, "save page title", err, "id", local.ID)
	}

	serverByID := make(map[string]*models.Block, len(server))
	for i := range server {
		serverByID[server[i].ID] = &server[i]
	}
	localIDs := make(map[string]bool, len(local.Blocks))
	for i := range local.Blocks {
		localIDs[local.Blocks[i].ID] = true
	}

	// Phase 1: deletes, independent by id.
	var wg sync.WaitGroup
	for i := range server {
		if localIDs[server[i].ID] {
			continue
		}
		wg.Add(1)
		go func(blockID string) {
			defer wg.Done()
			if err := w.api.DeleteBlock(ctx, local.ID, blockID); err != nil && !models.IsNotFound(err) {
				logRemoteFailure(ctx, "delete block", err, "pageID", local.ID, "blockID", blockID)
			}
		}(server[i].ID)
	}

	// Phase 2: creates, one at a time so the id mapping stays tied to
	// the local order.
	idMap := make(map[string]string)
	for i := range local.Blocks {
		b := &local.Blocks[i]
		if serverByID[b.ID] != nil {
			continue
		}
		newID, err := w.api.CreateBlock(ctx, local.ID, models.BlockCreate{
			Type:    b.Type,
			Content: b.Content,
			ColSpan: b.ColSpan,
			Order:   i,
			Tags:    b.Tags,
		})
		if err != nil {
			logRemoteFailure(ctx, "create block", err, "pageID", local.ID, "blockID", b.ID)
			continue
		}
		idMap[b.ID] = newID
	}

	// Phase 3: updates, only for blocks that actually changed.
	for i := range local.Blocks {
		b := &local.Blocks[i]
		sb := serverByID[b.ID]
		if sb == nil || b.EquivalentTo(sb) {
			continue
		}
		wg.Add(1)
		go func(b models.Block) {
			defer wg.Done()
			err := w.api.UpdateBlock(ctx, local.ID, b.ID, models.BlockUpdate{
				Content: b.Content,
				ColSpan: b.ColSpan,
				Tags:    b.Tags,
			})
			if err != nil {
				logRemoteFailure(ctx, "update block", err, "pageID", local.ID, "blockID", b.ID)
			}
		}(*b)
	}
	wg.Wait()

	// Phase 4: swap temporary ids, then pin the order server-side.
	for i := range local.Blocks {
		if newID, ok := idMap[local.Blocks[i].ID]; ok {
			local.Blocks[i].ID = newID
		}
	}
	positions := make([]models.BlockPosition, len(local.Blocks))
	for i := range local.Blocks {
		positions[i] = models.BlockPosition{ID: local.Blocks[i].ID, Order: i}
	}
	if len(positions) > 0 {
		if err := w.api.ReorderBlocks(ctx, local.ID, positions); err != nil {
			logRemoteFailure(ctx, "reorder blocks", err, "pageID", local.ID)
		}
	}

	w.mu.Lock()
	if live := w.findPageLocked(local.ID); live != nil {
		for i := range live.Blocks {
			if newID, ok := idMap[live.Blocks[i].ID]; ok {
				live.Blocks[i].ID = newID
			}
		}
	}
	w.snapshotLocked(local)
	w.dirty = false
	w.startSavedFlashLocked()
	w.mu.Unlock()
	return nil
}

// startSavedFlashLocked triggers the transient "saved" feedback, which
// clears itself after a fixed delay.
func (w *Workspace) startSavedFlashLocked() {
	w.savedFlash = true
	if w.flashTimer != nil {
		w.flashTimer.Stop()
	}
	w.flashTimer = time.AfterFunc(w.flashTime, func() {
		w.mu.Lock()
		w.savedFlash = false
		w.mu.Unlock()
	})
}
