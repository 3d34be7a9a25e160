// Package tree implements the persistent sidebar hierarchy of folders
// and page references.
//
// Every mutating operation takes a *Root and returns a new one; inputs
// are never modified. Only the nodes on the path from the root to the
// changed node are recreated, so unaffected subtrees keep their
// identity and cheap change detection stays possible.
package tree

import (
	"strings"
)

const (
	// RootID is the reserved identifier of the singleton tree root. It is
	// never used for a folder or a page.
	RootID = "root"
	// RootDropTarget is the sentinel drop-target id that normalizes to
	// the tree root when a node is dropped on the sidebar background.
	RootDropTarget = "root-drop-zone"

	// DefaultFolderName is used when a folder is created with an empty name.
	DefaultFolderName = "New Folder"
	// DefaultPageName is used when a page is created with an empty name.
	DefaultPageName = "Untitled"
)

// Node is a single entry in the sidebar tree. Exactly one of the two
// forms holds for every node:
//
//   - folder: Children is non-nil (possibly empty) and PageID is empty
//   - page reference: PageID is set, equals ID, and Children is nil
//
// The constructors below are the only way nodes are built, which keeps
// the two forms from ever mixing.
type Node struct {
	ID       string
	Name     string
	PageID   string
	Children []*Node
}

// IsFolder reports whether the node is a folder.
func (n *Node) IsFolder() bool {
	return n.PageID == ""
}

// NewFolderNode creates an empty folder node.
func NewFolderNode(id, name string) *Node {
	return &Node{ID: id, Name: name, Children: []*Node{}}
}

// NewPageNode creates a page-reference node. Its ID always equals the
// page id so the optimistic id swap stays a single substitution.
func NewPageNode(pageID, name string) *Node {
	return &Node{ID: pageID, Name: name, PageID: pageID}
}

// Root is the singleton top of the sidebar hierarchy.
type Root struct {
	ID       string
	Name     string
	Children []*Node
}

// NewRoot creates an empty tree.
func NewRoot(name string) *Root {
	return &Root{ID: RootID, Name: name, Children: []*Node{}}
}

// NormalizeDropTarget maps the sidebar background drop target (and the
// empty string) to RootID. Any other id passes through unchanged.
func NormalizeDropTarget(id string) string {
	if id == "" || id == RootDropTarget {
		return RootID
	}
	return id
}

func replaceAt(children []*Node, i int, n *Node) []*Node {
	out := make([]*Node, len(children))
	copy(out, children)
	out[i] = n
	return out
}

func appendChild(children []*Node, n *Node) []*Node {
	out := make([]*Node, 0, len(children)+1)
	out = append(out, children...)
	return append(out, n)
}

// AddFolder returns a new root with an empty folder appended as the
// last child of parentID (or of the root for RootID). An empty or
// whitespace-only name falls back to DefaultFolderName. If parentID
// does not name a folder the input root is returned unchanged.
func AddFolder(root *Root, parentID, id, name string) *Root {
	if strings.TrimSpace(name) == "" {
		name = DefaultFolderName
	}
	return insertNode(root, parentID, NewFolderNode(id, name))
}

// AddPage returns a new root with a page-reference node appended as the
// last child of parentID. An empty name falls back to DefaultPageName.
func AddPage(root *Root, parentID, pageID, name string) *Root {
	if strings.TrimSpace(name) == "" {
		name = DefaultPageName
	}
	return insertNode(root, parentID, NewPageNode(pageID, name))
}

func insertNode(root *Root, parentID string, n *Node) *Root {
	if parentID == "" || parentID == RootID {
		nr := *root
		nr.Children = appendChild(root.Children, n)
		return &nr
	}
	children, ok := insertUnder(root.Children, parentID, n)
	if !ok {
		return root
	}
	nr := *root
	nr.Children = children
	return &nr
}

func insertUnder(children []*Node, parentID string, n *Node) ([]*Node, bool) {
	for i, c := range children {
		if c.ID == parentID {
			if !c.IsFolder() {
				return nil, false
			}
			nc := *c
			nc.Children = appendChild(c.Children, n)
			return replaceAt(children, i, &nc), true
		}
		if c.IsFolder() {
			if sub, ok := insertUnder(c.Children, parentID, n); ok {
				nc := *c
				nc.Children = sub
				return replaceAt(children, i, &nc), true
			}
		}
	}
	return nil, false
}

// RenameNode returns a new root with the target node's name replaced.
// An empty or whitespace-only name is a no-op that returns the input
// root, as is an unknown nodeID.
func RenameNode(root *Root, nodeID, name string) *Root {
	name = strings.TrimSpace(name)
	if name == "" {
		return root
	}
	children, ok := renameIn(root.Children, nodeID, name)
	if !ok {
		return root
	}
	nr := *root
	nr.Children = children
	return &nr
}

func renameIn(children []*Node, nodeID, name string) ([]*Node, bool) {
	for i, c := range children {
		if c.ID == nodeID {
			nc := *c
			nc.Name = name
			return replaceAt(children, i, &nc), true
		}
		if c.IsFolder() {
			if sub, ok := renameIn(c.Children, nodeID, name); ok {
				nc := *c
				nc.Children = sub
				return replaceAt(children, i, &nc), true
			}
		}
	}
	return nil, false
}

// RemoveNode detaches the node (and its whole subtree) from the tree.
// The detached subtree is returned so callers can derive the affected
// page ids. When nodeID is not found the input root is returned with a
// nil removed node.
func RemoveNode(root *Root, nodeID string) (*Root, *Node) {
	children, removed := removeFrom(root.Children, nodeID)
	if removed == nil {
		return root, nil
	}
	nr := *root
	nr.Children = children
	return &nr, removed
}

func removeFrom(children []*Node, nodeID string) ([]*Node, *Node) {
	for i, c := range children {
		if c.ID == nodeID {
			out := make([]*Node, 0, len(children)-1)
			out = append(out, children[:i]...)
			out = append(out, children[i+1:]...)
			return out, c
		}
		if c.IsFolder() {
			if sub, removed := removeFrom(c.Children, nodeID); removed != nil {
				nc := *c
				nc.Children = sub
				return replaceAt(children, i, &nc), removed
			}
		}
	}
	return nil, nil
}

// MoveNode relocates sourceID (with its subtree) to be the last child
// of targetParentID. The drop-target sentinel normalizes to the root.
// The input root is returned unchanged when the move is illegal: the
// source equals the target, the target lies inside the source's own
// subtree, or the target is not a folder.
func MoveNode(root *Root, sourceID, targetParentID string) *Root {
	target := NormalizeDropTarget(targetParentID)
	if sourceID == target {
		return root
	}
	src := FindNode(root, sourceID)
	if src == nil {
		return root
	}
	if FindInSubtree(src, target) != nil {
		return root
	}
	if target != RootID {
		tn := FindNode(root, target)
		if tn == nil || !tn.IsFolder() {
			return root
		}
	}
	detached, removed := RemoveNode(root, sourceID)
	if removed == nil {
		return root
	}
	return insertNode(detached, target, removed)
}

// FindNode searches the whole tree depth-first and returns the node
// with the given id, or nil. RootID itself resolves to nil; the root
// is not a Node.
func FindNode(root *Root, nodeID string) *Node {
	return findIn(root.Children, nodeID)
}

func findIn(children []*Node, nodeID string) *Node {
	for _, c := range children {
		if c.ID == nodeID {
			return c
		}
		if c.IsFolder() {
			if found := findIn(c.Children, nodeID); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindInSubtree searches a subtree (including the node itself)
// depth-first for the given id.
func FindInSubtree(n *Node, nodeID string) *Node {
	if n.ID == nodeID {
		return n
	}
	if n.IsFolder() {
		return findIn(n.Children, nodeID)
	}
	return nil
}

// AncestorPath returns the ids of the folders on the path from the root
// level down to, but excluding, the target node. The result is empty
// when the node sits at root level or is not in the tree.
func AncestorPath(root *Root, nodeID string) []string {
	var path []string
	var walk func(nodes []*Node, trail []string) bool
	walk = func(nodes []*Node, trail []string) bool {
		for _, n := range nodes {
			if n.ID == nodeID {
				path = append([]string(nil), trail...)
				return true
			}
			if n.IsFolder() && walk(n.Children, append(trail, n.ID)) {
				return true
			}
		}
		return false
	}
	walk(root.Children, nil)
	return path
}

// ParentID returns the id of the node's immediate parent folder, or
// RootID when the node sits at root level.
func ParentID(root *Root, nodeID string) string {
	path := AncestorPath(root, nodeID)
	if len(path) == 0 {
		return RootID
	}
	return path[len(path)-1]
}

// CountDescendants counts the nodes of a subtree including the node
// itself; a leaf counts as 1.
func CountDescendants(n *Node) int {
	count := 1
	for _, c := range n.Children {
		count += CountDescendants(c)
	}
	return count
}

// CollectPageIDs returns every page id in the subtree in depth-first
// order, including the node itself when it is a page reference.
func CollectPageIDs(n *Node) []string {
	var ids []string
	var walk func(*Node)
	walk = func(n *Node) {
		if n.PageID != "" {
			ids = append(ids, n.PageID)
			return
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(n)
	return ids
}

// FirstPageID returns the first page id found by depth-first traversal
// of the subtree, or the empty string. Used to resolve which page to
// open when a folder or breadcrumb is activated.
func FirstPageID(n *Node) string {
	if n.PageID != "" {
		return n.PageID
	}
	for _, c := range n.Children {
		if id := FirstPageID(c); id != "" {
			return id
		}
	}
	return ""
}

// ReplaceNodeID swaps a node's id (and its page id, for page
// references) throughout the tree. Used solely to reconcile a
// client-generated temporary id with the server-assigned one.
func ReplaceNodeID(root *Root, oldID, newID string) *Root {
	children, ok := replaceIDIn(root.Children, oldID, newID)
	if !ok {
		return root
	}
	nr := *root
	nr.Children = children
	return &nr
}

func replaceIDIn(children []*Node, oldID, newID string) ([]*Node, bool) {
	for i, c := range children {
		if c.ID == oldID {
			nc := *c
			nc.ID = newID
			if nc.PageID != "" {
				nc.PageID = newID
			}
			return replaceAt(children, i, &nc), true
		}
		if c.IsFolder() {
			if sub, ok := replaceIDIn(c.Children, oldID, newID); ok {
				nc := *c
				nc.Children = sub
				return replaceAt(children, i, &nc), true
			}
		}
	}
	return nil, false
}
