// Package models defines the core domain types and API contracts.
//
// It includes the domain entities (Page, Block, Folder), the wire
// request/response types for the remote CRUD API, and structured error
// handling with APIError.
package models

import (
	"reflect"
)

// Page represents a single editable page. Blocks is an ordered sequence;
// the order is both the rendering order and the storage order.
type Page struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	FolderID string   `json:"folder_id,omitempty"` // empty for root-level pages
	Order    int      `json:"order,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Blocks   []Block  `json:"blocks"`
}

// Clone returns a deep copy of the Page.
func (p *Page) Clone() *Page {
	c := *p
	if p.Tags != nil {
		c.Tags = make([]string, len(p.Tags))
		copy(c.Tags, p.Tags)
	}
	if p.Blocks != nil {
		c.Blocks = make([]Block, len(p.Blocks))
		for i := range p.Blocks {
			c.Blocks[i] = *p.Blocks[i].Clone()
		}
	}
	return &c
}

// BlockType identifies the renderer for a block. The engine never
// interprets block content; the set of types is owned by the renderers.
type BlockType string

const (
	// BlockTypeText is a rich-text block.
	BlockTypeText BlockType = "text"
	// BlockTypeCode is a source code block.
	BlockTypeCode BlockType = "code"
	// BlockTypeTable is a tabular data block.
	BlockTypeTable BlockType = "table"
	// BlockTypeImage is an image block.
	BlockTypeImage BlockType = "image"
	// BlockTypeWhiteboard is a freeform drawing block.
	BlockTypeWhiteboard BlockType = "whiteboard"
	// BlockTypeDiagram is a structured diagram block.
	BlockTypeDiagram BlockType = "diagram"
)

// Block is one unit of page content. Content is a tagged union keyed by
// Type; the engine treats it as an opaque value that it can structurally
// compare but never interprets.
type Block struct {
	ID      string    `json:"id"`
	Type    BlockType `json:"type"`
	Content any       `json:"content"`
	ColSpan int       `json:"col_span,omitempty"` // 1 or 2; 0 means default (1)
	Order   int       `json:"order,omitempty"`
	Tags    []string  `json:"tags,omitempty"`
}

// Clone returns a copy of the Block. Content is shared, not copied;
// callers replace Content wholesale on edit rather than mutating it.
func (b *Block) Clone() *Block {
	c := *b
	if b.Tags != nil {
		c.Tags = make([]string, len(b.Tags))
		copy(c.Tags, b.Tags)
	}
	return &c
}

// EquivalentTo reports whether two blocks would produce the same stored
// record: deep-equal content, same column span and same tags. IDs and
// order are compared separately by the save diff.
func (b *Block) EquivalentTo(o *Block) bool {
	if b.Type != o.Type || b.normColSpan() != o.normColSpan() {
		return false
	}
	if !reflect.DeepEqual(b.Content, o.Content) {
		return false
	}
	return equalTags(b.Tags, o.Tags)
}

func (b *Block) normColSpan() int {
	if b.ColSpan == 0 {
		return 1
	}
	return b.ColSpan
}

func equalTags(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Folder represents a sidebar folder as stored remotely. Hierarchy is
// expressed through ParentID; an empty ParentID means root level.
type Folder struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parent_id,omitempty"`
	Order    int    `json:"order,omitempty"`
}

// PageMeta is the part of a page outside its blocks that the save diff
// tracks: the title and tags as last acknowledged by the server.
type PageMeta struct {
	Title string
	Tags  []string
}
