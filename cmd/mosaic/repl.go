package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mosaicnotes/mosaic/internal/models"
	"github.com/mosaicnotes/mosaic/internal/tree"
	"github.com/mosaicnotes/mosaic/internal/treeview"
	"github.com/mosaicnotes/mosaic/internal/workspace"
)

// runREPL drives the workspace from stdin, one command per line. It is
// intentionally plain: every orchestrator operation is reachable, and
// the unsaved-changes and delete prompts are resolved interactively.
func runREPL(ctx context.Context, ws *workspace.Workspace) error {
	fmt.Println("mosaic ready. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(prompt(ws))
		if !scanner.Scan() {
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		cmd, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)
		switch cmd {
		case "quit", "exit":
			if ws.IsDirty() {
				fmt.Println("Unsaved changes. Use 'save' first, or 'quit!' to discard.")
				continue
			}
			return nil
		case "quit!":
			return nil
		case "help":
			printHelp()
		case "tree":
			printTree(ws.View())
		case "open":
			if rest == "" {
				fmt.Println("usage: open <node-id>")
				continue
			}
			if !ws.ActivateNode(rest) {
				resolveNavPrompt(ctx, ws, scanner)
			}
			showActive(ws)
		case "save":
			if err := ws.Save(ctx); err != nil {
				fmt.Println("save failed:", err)
			} else {
				fmt.Println("saved")
			}
		case "newpage":
			parent := rest
			if parent == "" {
				parent = tree.RootID
			}
			id, err := ws.CreatePage(ctx, parent)
			if err != nil {
				fmt.Println("create failed:", err)
				continue
			}
			fmt.Println("created page", id)
		case "newfolder":
			parent := rest
			if parent == "" {
				parent = tree.RootID
			}
			id, err := ws.CreateFolder(ctx, parent)
			if err != nil {
				fmt.Println("create failed:", err)
				continue
			}
			fmt.Println("created folder", id)
		case "rename":
			id, name, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: rename <node-id> <new name>")
				continue
			}
			if err := ws.Rename(ctx, id, strings.TrimSpace(name)); err != nil {
				fmt.Println("rename failed:", err)
			}
		case "rm":
			if rest == "" {
				fmt.Println("usage: rm <node-id>")
				continue
			}
			del, err := ws.RequestDelete(rest)
			if err != nil {
				fmt.Println("delete failed:", err)
				continue
			}
			kind := "page"
			if del.IsFolder {
				kind = fmt.Sprintf("folder and its %d items", del.Descendants-1)
			}
			fmt.Printf("Delete %s %q? [y/N] ", kind, del.Name)
			if !scanner.Scan() || strings.ToLower(strings.TrimSpace(scanner.Text())) != "y" {
				ws.CancelDelete()
				fmt.Println("kept")
				continue
			}
			if err := ws.ConfirmDelete(ctx); err != nil {
				fmt.Println("delete failed:", err)
			}
		case "mv":
			src, target, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: mv <node-id> <folder-id|root>")
				continue
			}
			target = strings.TrimSpace(target)
			if target == "root" {
				target = tree.RootID
			}
			if err := ws.Move(ctx, src, target); err != nil {
				fmt.Println("move failed:", err)
			}
		case "title":
			if err := ws.SetTitle(rest); err != nil {
				fmt.Println("title failed:", err)
			}
		case "tags":
			var tags []string
			for _, t := range strings.Split(rest, ",") {
				if t = strings.TrimSpace(t); t != "" {
					tags = append(tags, t)
				}
			}
			if err := ws.SetTags(tags); err != nil {
				fmt.Println("tags failed:", err)
			}
		case "blocks":
			showActive(ws)
		case "addblock":
			typ, content, _ := strings.Cut(rest, " ")
			blockType := models.BlockType(typ)
			if blockType == "" {
				blockType = models.BlockTypeText
			}
			p := ws.ActivePage()
			at := 0
			if p != nil {
				at = len(p.Blocks)
			}
			id, err := ws.InsertBlock(at, models.Block{Type: blockType, Content: content, ColSpan: 1})
			if err != nil {
				fmt.Println("addblock failed:", err)
				continue
			}
			fmt.Println("added block", id)
		case "edit":
			id, content, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: edit <block-id> <content>")
				continue
			}
			if err := ws.UpdateBlockContent(id, content); err != nil {
				fmt.Println("edit failed:", err)
			}
		case "delblock":
			if err := ws.RemoveBlock(rest); err != nil {
				fmt.Println("delblock failed:", err)
			}
		case "moveblock":
			id, idx, ok := strings.Cut(rest, " ")
			if !ok {
				fmt.Println("usage: moveblock <block-id> <index>")
				continue
			}
			to, err := strconv.Atoi(strings.TrimSpace(idx))
			if err != nil {
				fmt.Println("moveblock: index must be a number")
				continue
			}
			if err := ws.MoveBlock(id, to); err != nil {
				fmt.Println("moveblock failed:", err)
			}
		default:
			fmt.Printf("unknown command %q, try 'help'\n", cmd)
		}
	}
}

func prompt(ws *workspace.Workspace) string {
	mark := ""
	if ws.IsDirty() {
		mark = "*"
	} else if ws.SavedFlash() {
		mark = "+"
	}
	return mark + "> "
}

// resolveNavPrompt handles the unsaved-changes prompt opened by a
// navigation attempt while dirty.
func resolveNavPrompt(ctx context.Context, ws *workspace.Workspace, scanner *bufio.Scanner) {
	fmt.Print("Unsaved changes. [s]ave and leave, [d]iscard, [c]ancel? ")
	decision := workspace.CancelNav
	if scanner.Scan() {
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "s":
			decision = workspace.SaveAndLeave
		case "d":
			decision = workspace.DiscardAndLeave
		}
	}
	if err := ws.ConfirmNavigation(ctx, decision); err != nil {
		fmt.Println("navigation failed:", err)
	}
}

func printTree(nodes []*treeview.ViewNode) {
	for _, n := range treeview.Flatten(nodes) {
		indent := strings.Repeat("  ", n.Depth)
		marker := " "
		if n.Selected {
			marker = ">"
		} else if n.OnSelectedPath {
			marker = "|"
		}
		kind := "page"
		if n.IsFolder {
			kind = "folder"
		}
		fmt.Printf("%s%s %s  [%s %s]\n", indent, marker, n.Name, kind, n.ID)
	}
}

func showActive(ws *workspace.Workspace) {
	p := ws.ActivePage()
	if p == nil {
		fmt.Println("no page open")
		return
	}
	fmt.Printf("# %s  [%s]\n", p.Title, p.ID)
	if len(p.Tags) > 0 {
		fmt.Println("tags:", strings.Join(p.Tags, ", "))
	}
	for i, b := range p.Blocks {
		fmt.Printf("%2d. (%s, span %d) [%s] %v\n", i, b.Type, b.ColSpan, b.ID, b.Content)
	}
}

func printHelp() {
	fmt.Print(`Commands:
  tree                     Show the sidebar tree
  open <node-id>           Open a page (or a folder's first page)
  save                     Save the open page
  newpage [folder-id]      Create a page (root level by default)
  newfolder [folder-id]    Create a folder
  rename <id> <name>       Rename a page or folder
  rm <id>                  Delete a page or folder (asks first)
  mv <id> <target|root>    Move a node into a folder or to root level
  title <text>             Set the open page's title
  tags <a, b, c>           Set the open page's tags
  blocks                   Show the open page's blocks
  addblock [type] [text]   Append a block
  edit <block-id> <text>   Replace a block's content
  delblock <block-id>      Remove a block
  moveblock <block-id> <i> Move a block to index i
  quit                     Exit (quit! discards unsaved edits)
`)
}
