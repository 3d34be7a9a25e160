// Package workspace is the orchestrator of the note-taking engine.
//
// It owns all mutable state: the flat page collection, the sidebar
// tree, the active selection, the dirty flag and the server snapshots
// used for diffing. Every user action follows the same shape: an
// optimistic local mutation applied as one atomic state update, then a
// remote call, then reconciliation of whatever the server assigned.
// Remote failures are logged or surfaced and never roll the optimistic
// state back, except where the save diff is explicitly per-block.
package workspace

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/maruel/ksid"

	"github.com/mosaicnotes/mosaic/internal/models"
	"github.com/mosaicnotes/mosaic/internal/tree"
	"github.com/mosaicnotes/mosaic/internal/treeview"
)

// API is the remote store boundary. *apiclient.Client satisfies it; a
// different backend can be plugged in as long as the operation
// contracts hold.
type API interface {
	ListPages(ctx context.Context) ([]models.Page, error)
	CreatePage(ctx context.Context, title, folderID string) (string, error)
	UpdatePage(ctx context.Context, id string, upd models.PageUpdate) error
	DeletePage(ctx context.Context, id string) error
	MovePage(ctx context.Context, id, folderID string, order int) error

	CreateBlock(ctx context.Context, pageID string, blk models.BlockCreate) (string, error)
	UpdateBlock(ctx context.Context, pageID, id string, upd models.BlockUpdate) error
	DeleteBlock(ctx context.Context, pageID, id string) error
	ReorderBlocks(ctx context.Context, pageID string, positions []models.BlockPosition) error

	ListFolders(ctx context.Context) ([]models.Folder, error)
	CreateFolder(ctx context.Context, name, parentID string) (string, error)
	UpdateFolder(ctx context.Context, id string, upd models.FolderUpdate) error
	DeleteFolder(ctx context.Context, id string) error
	MoveFolder(ctx context.Context, id, parentID string, order int) error
}

// Phase is the orchestrator lifecycle state. No mutation is accepted
// before the initial load completes.
type Phase int

const (
	// PhaseLoading is the initial state before Load completes.
	PhaseLoading Phase = iota
	// PhaseReady accepts mutations.
	PhaseReady
)

// Notice is a user-visible message surfaced by the orchestrator. Field
// is set when the message concerns one input field (a rename conflict
// marks the name field instead of rolling the rename back).
type Notice struct {
	Message string
	Field   string
}

// Errors returned for preconditions the caller can check.
var (
	ErrLoading       = errors.New("workspace is still loading")
	ErrNoActivePage  = errors.New("no active page")
	ErrNodeNotFound  = errors.New("node not found")
	ErrDuplicateName = errors.New("a sibling with that name already exists")
)

const (
	tagSaveQuietPeriod = 750 * time.Millisecond
	savedFlashDuration = 2 * time.Second
)

// Workspace coordinates local state, the remote store and in-flight
// writes. All exported methods are safe for concurrent use; each local
// mutation happens as one atomic update under the mutex, which is the
// Go rendition of the single-threaded event loop the engine assumes.
type Workspace struct {
	api API

	// OnNotice, when set, receives user-visible messages. It is called
	// without the state lock held and must not block.
	OnNotice func(Notice)

	mu           sync.Mutex
	phase        Phase
	pages        []*models.Page
	root         *tree.Root
	activePageID string
	dirty        bool
	pendingNavID string
	pendingDelID string

	// Server snapshots, used purely for diffing. Never displayed.
	serverBlocks map[string][]models.Block
	serverPages  map[string]models.PageMeta

	tagSaves   map[string]*tagSave
	savedFlash bool
	flashTimer *time.Timer

	// Overridable in tests.
	tagQuiet  time.Duration
	flashTime time.Duration
}

// New creates a workspace in the Loading phase.
func New(api API) *Workspace {
	return &Workspace{
		api:          api,
		root:         tree.NewRoot("Workspace"),
		serverBlocks: make(map[string][]models.Block),
		serverPages:  make(map[string]models.PageMeta),
		tagSaves:     make(map[string]*tagSave),
		tagQuiet:     tagSaveQuietPeriod,
		flashTime:    savedFlashDuration,
	}
}

// Load fetches pages and folders concurrently, builds the tree and the
// server snapshots, and enters the Ready phase. Until it returns
// successfully no mutation is accepted.
func (w *Workspace) Load(ctx context.Context) error {
	var (
		wg      sync.WaitGroup
		pages   []models.Page
		folders []models.Folder
		pErr    error
		fErr    error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		pages, pErr = w.api.ListPages(ctx)
	}()
	go func() {
		defer wg.Done()
		folders, fErr = w.api.ListFolders(ctx)
	}()
	wg.Wait()
	if pErr != nil {
		return pErr
	}
	if fErr != nil {
		return fErr
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.root = buildTree(folders, pages)
	w.pages = make([]*models.Page, 0, len(pages))
	w.serverBlocks = make(map[string][]models.Block, len(pages))
	w.serverPages = make(map[string]models.PageMeta, len(pages))
	for i := range pages {
		p := pages[i].Clone()
		if p.Blocks == nil {
			p.Blocks = []models.Block{}
		}
		w.pages = append(w.pages, p)
		w.snapshotLocked(p)
	}
	w.phase = PhaseReady
	return nil
}

// buildTree reconstructs the sidebar hierarchy from the flat folder and
// page lists. Folders whose parent is missing fall back to root level,
// which matches how the server re-parents on folder deletion.
func buildTree(folders []models.Folder, pages []models.Page) *tree.Root {
	root := tree.NewRoot("Workspace")

	ordered := make([]models.Folder, len(folders))
	copy(ordered, folders)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Order < ordered[j].Order })

	// Parents must exist before children; iterate until no insertion
	// succeeds, then drop the leftovers at root level.
	pending := ordered
	for len(pending) > 0 {
		var next []models.Folder
		progress := false
		for _, f := range pending {
			parent := f.ParentID
			if parent == "" {
				parent = tree.RootID
			}
			if parent != tree.RootID && tree.FindNode(root, parent) == nil {
				next = append(next, f)
				continue
			}
			root = tree.AddFolder(root, parent, f.ID, f.Name)
			progress = true
		}
		if !progress {
			for _, f := range next {
				root = tree.AddFolder(root, tree.RootID, f.ID, f.Name)
			}
			break
		}
		pending = next
	}

	orderedPages := make([]models.Page, len(pages))
	copy(orderedPages, pages)
	sort.SliceStable(orderedPages, func(i, j int) bool { return orderedPages[i].Order < orderedPages[j].Order })
	for _, p := range orderedPages {
		parent := p.FolderID
		if parent == "" || tree.FindNode(root, parent) == nil {
			parent = tree.RootID
		}
		root = tree.AddPage(root, parent, p.ID, p.Title)
	}
	return root
}

// snapshotLocked records the server-acknowledged state of a page.
func (w *Workspace) snapshotLocked(p *models.Page) {
	blocks := make([]models.Block, len(p.Blocks))
	for i := range p.Blocks {
		blocks[i] = *p.Blocks[i].Clone()
	}
	w.serverBlocks[p.ID] = blocks
	tags := make([]string, len(p.Tags))
	copy(tags, p.Tags)
	w.serverPages[p.ID] = models.PageMeta{Title: p.Title, Tags: tags}
}

func (w *Workspace) findPageLocked(id string) *models.Page {
	for _, p := range w.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// adoptPageIDLocked substitutes a client temporary page id with the
// server-assigned one everywhere it appears. The temporary id must not
// survive past this call.
func (w *Workspace) adoptPageIDLocked(oldID, newID string) {
	w.root = tree.ReplaceNodeID(w.root, oldID, newID)
	if p := w.findPageLocked(oldID); p != nil {
		p.ID = newID
	}
	if blocks, ok := w.serverBlocks[oldID]; ok {
		w.serverBlocks[newID] = blocks
		delete(w.serverBlocks, oldID)
	}
	if meta, ok := w.serverPages[oldID]; ok {
		w.serverPages[newID] = meta
		delete(w.serverPages, oldID)
	}
	if ts, ok := w.tagSaves[oldID]; ok {
		// The scheduled flush reads ts.pageID at fire time, so the
		// pending tag write follows the page to its new id.
		ts.pageID = newID
		w.tagSaves[newID] = ts
		delete(w.tagSaves, oldID)
	}
	if w.activePageID == oldID {
		w.activePageID = newID
	}
	if w.pendingNavID == oldID {
		w.pendingNavID = newID
	}
	if w.pendingDelID == oldID {
		w.pendingDelID = newID
	}
}

func (w *Workspace) notify(n Notice) {
	if w.OnNotice != nil {
		w.OnNotice(n)
	}
}

// newTempID generates a client-side temporary identifier. The prefix
// keeps temporary ids recognizable in logs until reconciliation swaps
// them out.
func newTempID(prefix string) string {
	return prefix + "-" + ksid.NewID().String()
}

// --- Read accessors ---

// Phase returns the lifecycle phase.
func (w *Workspace) Phase() Phase {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase
}

// Root returns the current sidebar tree. The tree is persistent, so the
// returned value never changes under the caller.
func (w *Workspace) Root() *tree.Root {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.root
}

// Pages returns the flat page collection as deep copies.
func (w *Workspace) Pages() []*models.Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]*models.Page, 0, len(w.pages))
	for _, p := range w.pages {
		out = append(out, p.Clone())
	}
	return out
}

// ActivePageID returns the id of the open page, or empty.
func (w *Workspace) ActivePageID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activePageID
}

// ActivePage returns a deep copy of the open page, or nil.
func (w *Workspace) ActivePage() *models.Page {
	w.mu.Lock()
	defer w.mu.Unlock()
	if p := w.findPageLocked(w.activePageID); p != nil {
		return p.Clone()
	}
	return nil
}

// IsDirty reports whether the active page has unsaved edits.
func (w *Workspace) IsDirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dirty
}

// SavedFlash reports whether the transient "saved" feedback is showing.
func (w *Workspace) SavedFlash() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.savedFlash
}

// View projects the current tree for display, annotated with the
// active selection.
func (w *Workspace) View() []*treeview.ViewNode {
	w.mu.Lock()
	root := w.root
	sel := treeview.Selection{ActivePageID: w.activePageID}
	if w.activePageID != "" {
		sel.AncestorIDs = tree.AncestorPath(root, w.activePageID)
	}
	w.mu.Unlock()
	return treeview.Build(root, sel)
}

// Close cancels any scheduled debounced writes and timers.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, ts := range w.tagSaves {
		ts.timer.Stop()
		delete(w.tagSaves, id)
	}
	if w.flashTimer != nil {
		w.flashTimer.Stop()
		w.flashTimer = nil
	}
}

func logRemoteFailure(ctx context.Context, op string, err error, args ...any) {
	attrs := append([]any{"err", err}, args...)
	slog.WarnContext(ctx, op+" failed", attrs...)
}
