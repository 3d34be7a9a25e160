package treeview

import (
	"reflect"
	"testing"

	"github.com/mosaicnotes/mosaic/internal/tree"
)

func names(nodes []*ViewNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestSortSiblings(t *testing.T) {
	t.Run("FoldersFirstThenCollation", func(t *testing.T) {
		nodes := []*tree.Node{
			tree.NewPageNode("p1", "zeta.md"),
			tree.NewFolderNode("f1", "Bravo"),
			tree.NewPageNode("p2", "alpha.md"),
			tree.NewFolderNode("f2", "Alpha"),
		}
		sorted := SortSiblings(nodes)
		got := make([]string, len(sorted))
		for i, n := range sorted {
			got[i] = n.Name
		}
		want := []string{"Alpha", "Bravo", "alpha.md", "zeta.md"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
		// The input order must survive.
		if nodes[0].Name != "zeta.md" {
			t.Error("input slice was modified")
		}
	})
	t.Run("NumericAware", func(t *testing.T) {
		nodes := []*tree.Node{
			tree.NewPageNode("p1", "file10"),
			tree.NewPageNode("p2", "file2"),
		}
		sorted := SortSiblings(nodes)
		if sorted[0].Name != "file2" {
			t.Errorf("first = %q, want file2", sorted[0].Name)
		}
	})
}

func buildSample() *tree.Root {
	root := tree.NewRoot("Workspace")
	root = tree.AddFolder(root, tree.RootID, "folder-a", "Projects")
	root = tree.AddPage(root, "folder-a", "page-1", "Roadmap")
	root = tree.AddFolder(root, "folder-a", "folder-b", "Archive")
	root = tree.AddPage(root, "folder-b", "page-2", "Old notes")
	root = tree.AddPage(root, tree.RootID, "page-3", "Scratch")
	return root
}

func TestBuild(t *testing.T) {
	root := buildSample()
	sel := Selection{
		ActivePageID: "page-2",
		AncestorIDs:  tree.AncestorPath(root, "page-2"),
	}
	view := Build(root, sel)

	if got := names(view); !reflect.DeepEqual(got, []string{"Projects", "Scratch"}) {
		t.Fatalf("top level = %v", got)
	}
	projects := view[0]
	if !projects.IsFolder || !projects.OnSelectedPath || projects.Selected {
		t.Errorf("Projects flags = %+v", projects)
	}
	if got := names(projects.Children); !reflect.DeepEqual(got, []string{"Archive", "Roadmap"}) {
		t.Fatalf("Projects children = %v", got)
	}
	archive := projects.Children[0]
	if !archive.OnSelectedPath {
		t.Error("Archive should be on the selected path")
	}
	oldNotes := archive.Children[0]
	if !oldNotes.Selected || oldNotes.OnSelectedPath {
		t.Errorf("Old notes flags = %+v", oldNotes)
	}
	roadmap := projects.Children[1]
	if roadmap.Selected {
		t.Error("Roadmap should not be selected")
	}
	if roadmap.Depth != 1 || oldNotes.Depth != 2 {
		t.Errorf("depths = %d, %d; want 1, 2", roadmap.Depth, oldNotes.Depth)
	}
}

func TestBuildActions(t *testing.T) {
	root := buildSample()
	view := Build(root, Selection{})
	folder := view[0]
	page := view[1]
	wantFolder := []Action{ActionCreatePage, ActionCreateFolder, ActionRename, ActionDelete}
	if !reflect.DeepEqual(folder.Actions, wantFolder) {
		t.Errorf("folder actions = %v, want %v", folder.Actions, wantFolder)
	}
	wantPage := []Action{ActionRename, ActionDelete}
	if !reflect.DeepEqual(page.Actions, wantPage) {
		t.Errorf("page actions = %v, want %v", page.Actions, wantPage)
	}
}

func TestFlatten(t *testing.T) {
	root := buildSample()
	flat := Flatten(Build(root, Selection{}))
	got := names(flat)
	want := []string{"Projects", "Archive", "Old notes", "Roadmap", "Scratch"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("flat order = %v, want %v", got, want)
	}
}
