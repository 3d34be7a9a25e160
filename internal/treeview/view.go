// Package treeview projects the sidebar tree into a display-ready
// ordered structure.
//
// The projection is derived fresh from the tree on every relevant state
// change; it holds no state of its own and is never a source of truth.
package treeview

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/mosaicnotes/mosaic/internal/tree"
)

// Action is a contextual affordance attached to a view node.
type Action string

const (
	// ActionCreatePage offers creating a page inside a folder.
	ActionCreatePage Action = "create-page"
	// ActionCreateFolder offers creating a sub-folder inside a folder.
	ActionCreateFolder Action = "create-folder"
	// ActionRename offers renaming the node.
	ActionRename Action = "rename"
	// ActionDelete offers deleting the node and its subtree.
	ActionDelete Action = "delete"
)

var folderActions = []Action{ActionCreatePage, ActionCreateFolder, ActionRename, ActionDelete}
var pageActions = []Action{ActionRename, ActionDelete}

// Selection describes which page is active so the projection can mark
// it and its ancestor folders.
type Selection struct {
	ActivePageID string
	AncestorIDs  []string
}

// ViewNode is one display row of the sidebar.
type ViewNode struct {
	ID       string
	Name     string
	PageID   string
	IsFolder bool
	Depth    int
	// Selected marks the active page (full highlight); OnSelectedPath
	// marks an ancestor folder of the active page (subtle highlight).
	Selected       bool
	OnSelectedPath bool
	Actions        []Action
	Children       []*ViewNode
}

// Folders sort before pages; within the same kind names compare with
// case-insensitive, numeric-aware collation so "file2" sorts before
// "file10". Und keeps the order locale-neutral but still Unicode-aware.
var collator = collate.New(language.Und, collate.IgnoreCase, collate.Numeric)

// SortSiblings returns the nodes of one level in display order. The
// input slice is not modified.
func SortSiblings(nodes []*tree.Node) []*tree.Node {
	out := make([]*tree.Node, len(nodes))
	copy(out, nodes)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsFolder() != b.IsFolder() {
			return a.IsFolder()
		}
		return collator.CompareString(a.Name, b.Name) < 0
	})
	return out
}

// Build projects the tree into ordered, annotated view nodes.
func Build(root *tree.Root, sel Selection) []*ViewNode {
	ancestors := make(map[string]bool, len(sel.AncestorIDs))
	for _, id := range sel.AncestorIDs {
		ancestors[id] = true
	}
	return buildLevel(root.Children, sel, ancestors, 0)
}

func buildLevel(nodes []*tree.Node, sel Selection, ancestors map[string]bool, depth int) []*ViewNode {
	sorted := SortSiblings(nodes)
	out := make([]*ViewNode, 0, len(sorted))
	for _, n := range sorted {
		vn := &ViewNode{
			ID:       n.ID,
			Name:     n.Name,
			PageID:   n.PageID,
			IsFolder: n.IsFolder(),
			Depth:    depth,
		}
		if n.IsFolder() {
			vn.OnSelectedPath = ancestors[n.ID]
			vn.Actions = folderActions
			vn.Children = buildLevel(n.Children, sel, ancestors, depth+1)
		} else {
			vn.Selected = sel.ActivePageID != "" && n.PageID == sel.ActivePageID
			vn.Actions = pageActions
		}
		out = append(out, vn)
	}
	return out
}

// Flatten walks the projected rows depth-first, the order in which the
// sidebar renders them.
func Flatten(nodes []*ViewNode) []*ViewNode {
	var out []*ViewNode
	var walk func([]*ViewNode)
	walk = func(ns []*ViewNode) {
		for _, n := range ns {
			out = append(out, n)
			walk(n.Children)
		}
	}
	walk(nodes)
	return out
}
