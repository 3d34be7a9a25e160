package workspace

import (
	"context"
	"sync"

	"github.com/mosaicnotes/mosaic/internal/models"
	"github.com/mosaicnotes/mosaic/internal/tree"
)

// remoteParent maps a tree parent id to the wire representation, where
// root level is the empty string.
func remoteParent(parentID string) string {
	if parentID == tree.RootID {
		return ""
	}
	return parentID
}

// CreatePage creates a page under parentID (tree.RootID for root
// level): optimistic insert with a temporary id, remote create, then
// id reconciliation. The final id is returned. A rename applied while
// the create was in flight survives the id swap; when the surviving
// name differs from what was sent, a follow-up update keeps the server
// consistent.
func (w *Workspace) CreatePage(ctx context.Context, parentID string) (string, error) {
	w.mu.Lock()
	if w.phase != PhaseReady {
		w.mu.Unlock()
		return "", ErrLoading
	}
	parentID = tree.NormalizeDropTarget(parentID)
	name := tree.UniqueName(w.root, parentID, tree.DefaultPageName)
	tmpID := newTempID("page")
	w.root = tree.AddPage(w.root, parentID, tmpID, name)
	p := &models.Page{ID: tmpID, Title: name, FolderID: remoteParent(parentID), Blocks: []models.Block{}}
	w.pages = append(w.pages, p)
	w.snapshotLocked(p)
	w.mu.Unlock()

	id, err := w.api.CreatePage(ctx, name, remoteParent(parentID))
	if err != nil {
		logRemoteFailure(ctx, "create page", err, "name", name)
		w.notify(createFailureNotice(err))
		return tmpID, err
	}

	w.mu.Lock()
	w.adoptPageIDLocked(tmpID, id)
	var followUp string
	if n := tree.FindNode(w.root, id); n != nil && n.Name != name {
		followUp = n.Name
	}
	w.mu.Unlock()

	if followUp != "" {
		if err := w.api.UpdatePage(ctx, id, models.PageUpdate{Title: followUp}); err != nil {
			logRemoteFailure(ctx, "sync interim page rename", err, "id", id)
		} else {
			w.mu.Lock()
			if meta, ok := w.serverPages[id]; ok {
				meta.Title = followUp
				w.serverPages[id] = meta
			}
			w.mu.Unlock()
		}
	}
	return id, nil
}

// CreateFolder creates a folder under parentID with the same optimistic
// protocol as CreatePage.
func (w *Workspace) CreateFolder(ctx context.Context, parentID string) (string, error) {
	w.mu.Lock()
	if w.phase != PhaseReady {
		w.mu.Unlock()
		return "", ErrLoading
	}
	parentID = tree.NormalizeDropTarget(parentID)
	name := tree.UniqueName(w.root, parentID, tree.DefaultFolderName)
	tmpID := newTempID("folder")
	w.root = tree.AddFolder(w.root, parentID, tmpID, name)
	w.mu.Unlock()

	id, err := w.api.CreateFolder(ctx, name, remoteParent(parentID))
	if err != nil {
		logRemoteFailure(ctx, "create folder", err, "name", name)
		w.notify(createFailureNotice(err))
		return tmpID, err
	}

	w.mu.Lock()
	w.root = tree.ReplaceNodeID(w.root, tmpID, id)
	var followUp string
	if n := tree.FindNode(w.root, id); n != nil && n.Name != name {
		followUp = n.Name
	}
	w.mu.Unlock()

	if followUp != "" {
		if err := w.api.UpdateFolder(ctx, id, models.FolderUpdate{Name: followUp}); err != nil {
			logRemoteFailure(ctx, "sync interim folder rename", err, "id", id)
		}
	}
	return id, nil
}

func createFailureNotice(err error) Notice {
	if models.IsDuplicateName(err) {
		return Notice{Message: "That name is already used in this folder", Field: "name"}
	}
	return Notice{Message: "Could not create the item: " + err.Error()}
}

// Rename renames a tree node (and, for a page, its title). Empty or
// whitespace-only names are a no-op. A client-side duplicate within the
// sibling scope is rejected before any mutation; a server-side
// duplicate conflict is surfaced as a field error and the optimistic
// rename is kept.
func (w *Workspace) Rename(ctx context.Context, id, name string) error {
	w.mu.Lock()
	if w.phase != PhaseReady {
		w.mu.Unlock()
		return ErrLoading
	}
	n := tree.FindNode(w.root, id)
	if n == nil {
		w.mu.Unlock()
		return ErrNodeNotFound
	}
	renamed := tree.RenameNode(w.root, id, name)
	if renamed == w.root {
		// Empty name: keep the old one.
		w.mu.Unlock()
		return nil
	}
	parent := tree.ParentID(w.root, id)
	if tree.IsNameTaken(w.root, parent, name, id) {
		w.mu.Unlock()
		w.notify(Notice{Message: "That name is already used in this folder", Field: "name"})
		return ErrDuplicateName
	}
	w.root = renamed
	newName := tree.FindNode(w.root, id).Name
	isPage := !n.IsFolder()
	if isPage {
		if p := w.findPageLocked(id); p != nil {
			p.Title = newName
		}
	}
	w.mu.Unlock()

	var err error
	if isPage {
		err = w.api.UpdatePage(ctx, id, models.PageUpdate{Title: newName})
	} else {
		err = w.api.UpdateFolder(ctx, id, models.FolderUpdate{Name: newName})
	}
	if err != nil {
		logRemoteFailure(ctx, "rename", err, "id", id, "name", newName)
		if models.IsDuplicateName(err) {
			w.notify(Notice{Message: "That name is already used in this folder", Field: "name"})
		} else {
			w.notify(Notice{Message: "Could not rename: " + err.Error()})
		}
		return err
	}
	if isPage {
		w.mu.Lock()
		if meta, ok := w.serverPages[id]; ok {
			meta.Title = newName
			w.serverPages[id] = meta
		}
		w.mu.Unlock()
	}
	return nil
}

// DeletePrompt describes a requested deletion for the mandatory
// confirmation step.
type DeletePrompt struct {
	NodeID      string
	Name        string
	IsFolder    bool
	Descendants int
}

// RequestDelete opens the confirmation step for deleting a node.
// Deletion is never silent; ConfirmDelete performs it.
func (w *Workspace) RequestDelete(id string) (DeletePrompt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.phase != PhaseReady {
		return DeletePrompt{}, ErrLoading
	}
	n := tree.FindNode(w.root, id)
	if n == nil {
		return DeletePrompt{}, ErrNodeNotFound
	}
	w.pendingDelID = id
	return DeletePrompt{
		NodeID:      id,
		Name:        n.Name,
		IsFolder:    n.IsFolder(),
		Descendants: tree.CountDescendants(n),
	}, nil
}

// PendingDelete returns the node id awaiting delete confirmation.
func (w *Workspace) PendingDelete() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingDelID
}

// CancelDelete closes the confirmation step without deleting.
func (w *Workspace) CancelDelete() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pendingDelID = ""
}

// ConfirmDelete strips the requested subtree from the tree, removes
// every contained page from the flat list and the snapshots in the same
// state update, then issues the remote deletes. The remote folder
// delete re-parents surviving children instead of cascading, so pages
// are deleted individually first and descendant folders deepest-first
// afterwards. Not-found responses count as success; other failures are
// logged and the local removal is kept.
func (w *Workspace) ConfirmDelete(ctx context.Context) error {
	w.mu.Lock()
	id := w.pendingDelID
	w.pendingDelID = ""
	if id == "" || w.phase != PhaseReady {
		w.mu.Unlock()
		return nil
	}
	newRoot, removed := tree.RemoveNode(w.root, id)
	if removed == nil {
		w.mu.Unlock()
		return ErrNodeNotFound
	}
	w.root = newRoot
	pageIDs := tree.CollectPageIDs(removed)
	folderIDs := collectFolderIDs(removed)
	gone := make(map[string]bool, len(pageIDs))
	for _, pid := range pageIDs {
		gone[pid] = true
	}
	kept := w.pages[:0]
	for _, p := range w.pages {
		if gone[p.ID] {
			continue
		}
		kept = append(kept, p)
	}
	w.pages = kept
	for _, pid := range pageIDs {
		delete(w.serverBlocks, pid)
		delete(w.serverPages, pid)
		if ts, ok := w.tagSaves[pid]; ok {
			ts.timer.Stop()
			delete(w.tagSaves, pid)
		}
	}
	if gone[w.activePageID] {
		w.activePageID = ""
		w.dirty = false
	}
	if gone[w.pendingNavID] {
		w.pendingNavID = ""
	}
	w.mu.Unlock()

	var wg sync.WaitGroup
	for _, pid := range pageIDs {
		wg.Add(1)
		go func(pid string) {
			defer wg.Done()
			if err := w.api.DeletePage(ctx, pid); err != nil && !models.IsNotFound(err) {
				logRemoteFailure(ctx, "delete page", err, "id", pid)
			}
		}(pid)
	}
	wg.Wait()

	// collectFolderIDs is post-order, so children go before parents.
	for _, fid := range folderIDs {
		if err := w.api.DeleteFolder(ctx, fid); err != nil && !models.IsNotFound(err) {
			logRemoteFailure(ctx, "delete folder", err, "id", fid)
		}
	}
	return nil
}

// collectFolderIDs returns the folder ids of a subtree in post-order.
func collectFolderIDs(n *tree.Node) []string {
	var ids []string
	var walk func(*tree.Node)
	walk = func(n *tree.Node) {
		if !n.IsFolder() {
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
		ids = append(ids, n.ID)
	}
	walk(n)
	return ids
}

// Move relocates sourceID to the drop target: the sidebar background
// sentinel means root, a folder receives the node as its last child,
// and a drop onto a page redirects to that page's own parent so pages
// never gain children. Illegal moves (self, cycle) are refused by the
// tree and leave state untouched.
func (w *Workspace) Move(ctx context.Context, sourceID, dropTargetID string) error {
	w.mu.Lock()
	if w.phase != PhaseReady {
		w.mu.Unlock()
		return ErrLoading
	}
	src := tree.FindNode(w.root, sourceID)
	if src == nil {
		w.mu.Unlock()
		return ErrNodeNotFound
	}
	target := tree.NormalizeDropTarget(dropTargetID)
	if target != tree.RootID {
		tn := tree.FindNode(w.root, target)
		if tn == nil {
			w.mu.Unlock()
			return ErrNodeNotFound
		}
		if !tn.IsFolder() {
			target = tree.ParentID(w.root, tn.ID)
		}
	}

	moved := tree.MoveNode(w.root, sourceID, target)
	if moved == w.root {
		w.mu.Unlock()
		return nil
	}
	w.root = moved
	isPage := !src.IsFolder()
	if isPage {
		if p := w.findPageLocked(sourceID); p != nil {
			p.FolderID = remoteParent(target)
		}
	}
	// The node lands as the last child of its new parent.
	order := 0
	if target == tree.RootID {
		order = len(w.root.Children) - 1
	} else if tn := tree.FindNode(w.root, target); tn != nil {
		order = len(tn.Children) - 1
	}
	w.mu.Unlock()

	var err error
	if isPage {
		err = w.api.MovePage(ctx, sourceID, remoteParent(target), order)
	} else {
		err = w.api.MoveFolder(ctx, sourceID, remoteParent(target), order)
	}
	if err != nil {
		logRemoteFailure(ctx, "move", err, "id", sourceID, "target", target)
		w.notify(Notice{Message: "Could not move the item: " + err.Error()})
		return err
	}
	return nil
}
