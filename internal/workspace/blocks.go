package workspace

import (
	"context"
	"log/slog"
	"time"

	"github.com/mosaicnotes/mosaic/internal/models"
	"github.com/mosaicnotes/mosaic/internal/tree"
)

// Block and title edits mutate local state only and mark the page
// dirty; nothing is written per keystroke. Block-level writes are
// deferred to Save because the server assigns permanent ids to new
// blocks, and a write issued before that id exists would target a
// record that is not there yet.

func (w *Workspace) activeForEditLocked() *models.Page {
	if w.phase != PhaseReady {
		return nil
	}
	return w.findPageLocked(w.activePageID)
}

// SetTitle replaces the active page's title and keeps its sidebar node
// in sync. Marks the page dirty; the title is persisted on Save.
func (w *Workspace) SetTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.activeForEditLocked()
	if p == nil {
		return ErrNoActivePage
	}
	if p.Title == title {
		return nil
	}
	p.Title = title
	w.root = tree.RenameNode(w.root, p.ID, title)
	w.dirty = true
	return nil
}

// SetBlocks replaces the active page's block list wholesale.
func (w *Workspace) SetBlocks(blocks []models.Block) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.activeForEditLocked()
	if p == nil {
		return ErrNoActivePage
	}
	next := make([]models.Block, len(blocks))
	for i := range blocks {
		next[i] = *blocks[i].Clone()
		if next[i].ID == "" {
			next[i].ID = newTempID("block")
		}
	}
	p.Blocks = next
	w.dirty = true
	return nil
}

// InsertBlock inserts a block at the given index (clamped to the block
// list bounds). A missing id gets a temporary one, replaced by the
// server-assigned id on Save.
func (w *Workspace) InsertBlock(at int, blk models.Block) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.activeForEditLocked()
	if p == nil {
		return "", ErrNoActivePage
	}
	b := *blk.Clone()
	if b.ID == "" {
		b.ID = newTempID("block")
	}
	if at < 0 {
		at = 0
	}
	if at > len(p.Blocks) {
		at = len(p.Blocks)
	}
	next := make([]models.Block, 0, len(p.Blocks)+1)
	next = append(next, p.Blocks[:at]...)
	next = append(next, b)
	next = append(next, p.Blocks[at:]...)
	p.Blocks = next
	w.dirty = true
	return b.ID, nil
}

// UpdateBlockContent replaces the content of one block.
func (w *Workspace) UpdateBlockContent(id string, content any) error {
	return w.editBlock(id, func(b *models.Block) { b.Content = content })
}

// SetBlockSpan sets a block's column span (1 or 2).
func (w *Workspace) SetBlockSpan(id string, colSpan int) error {
	return w.editBlock(id, func(b *models.Block) { b.ColSpan = colSpan })
}

// SetBlockTags replaces a block's tags.
func (w *Workspace) SetBlockTags(id string, tags []string) error {
	return w.editBlock(id, func(b *models.Block) {
		b.Tags = append([]string(nil), tags...)
	})
}

func (w *Workspace) editBlock(id string, edit func(*models.Block)) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.activeForEditLocked()
	if p == nil {
		return ErrNoActivePage
	}
	for i := range p.Blocks {
		if p.Blocks[i].ID == id {
			edit(&p.Blocks[i])
			w.dirty = true
			return nil
		}
	}
	return ErrNodeNotFound
}

// RemoveBlock deletes a block from the active page.
func (w *Workspace) RemoveBlock(id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.activeForEditLocked()
	if p == nil {
		return ErrNoActivePage
	}
	for i := range p.Blocks {
		if p.Blocks[i].ID == id {
			p.Blocks = append(p.Blocks[:i:i], p.Blocks[i+1:]...)
			w.dirty = true
			return nil
		}
	}
	return ErrNodeNotFound
}

// MoveBlock moves a block to the given index within the active page.
func (w *Workspace) MoveBlock(id string, to int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.activeForEditLocked()
	if p == nil {
		return ErrNoActivePage
	}
	from := -1
	for i := range p.Blocks {
		if p.Blocks[i].ID == id {
			from = i
			break
		}
	}
	if from == -1 {
		return ErrNodeNotFound
	}
	if to < 0 {
		to = 0
	}
	if to >= len(p.Blocks) {
		to = len(p.Blocks) - 1
	}
	if to == from {
		return nil
	}
	b := p.Blocks[from]
	rest := append(p.Blocks[:from:from], p.Blocks[from+1:]...)
	next := make([]models.Block, 0, len(p.Blocks))
	next = append(next, rest[:to]...)
	next = append(next, b)
	next = append(next, rest[to:]...)
	p.Blocks = next
	w.dirty = true
	return nil
}

// tagSave is one scheduled deferred tag write. The flush reads pageID
// under the workspace lock at fire time, so an id reconciliation that
// lands while the timer is pending redirects the write to the
// server-assigned id instead of dropping it.
type tagSave struct {
	pageID string
	tags   []string
	timer  *time.Timer
}

// SetTags replaces the active page's tags. Rapid successive edits
// coalesce into one remote write after a fixed quiet period; any
// previously scheduled but not-yet-fired write for the page is
// canceled first.
func (w *Workspace) SetTags(tags []string) error {
	w.mu.Lock()
	p := w.activeForEditLocked()
	if p == nil {
		w.mu.Unlock()
		return ErrNoActivePage
	}
	p.Tags = append([]string(nil), tags...)
	w.dirty = true
	pageID := p.ID
	if prev, ok := w.tagSaves[pageID]; ok {
		prev.timer.Stop()
	}
	ts := &tagSave{pageID: pageID, tags: append([]string(nil), tags...)}
	ts.timer = time.AfterFunc(w.tagQuiet, func() {
		w.flushTags(ts)
	})
	w.tagSaves[pageID] = ts
	w.mu.Unlock()
	return nil
}

func (w *Workspace) flushTags(ts *tagSave) {
	w.mu.Lock()
	// pageID may have been rewritten by id reconciliation since the
	// timer was scheduled.
	pageID := ts.pageID
	if cur, ok := w.tagSaves[pageID]; !ok || cur != ts {
		// Superseded by a newer edit that raced the timer.
		w.mu.Unlock()
		return
	}
	delete(w.tagSaves, pageID)
	if w.findPageLocked(pageID) == nil {
		w.mu.Unlock()
		return
	}
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.api.UpdatePage(ctx, pageID, models.PageUpdate{Tags: ts.tags}); err != nil {
		slog.Warn("Deferred tag save failed", "pageID", pageID, "err", err)
		return
	}
	w.mu.Lock()
	if meta, ok := w.serverPages[pageID]; ok {
		meta.Tags = append([]string(nil), ts.tags...)
		w.serverPages[pageID] = meta
	}
	w.mu.Unlock()
}
