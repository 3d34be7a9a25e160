package models

//go:generate go run github.com/mosaicnotes/mosaic/internal/apischema

// --- Pages ---

// ListPagesResponse is the response to listing all pages. Blocks are
// nested within each page so the workspace can be rebuilt in one round
// trip.
type ListPagesResponse struct {
	Pages []Page `json:"pages" jsonschema:"description=All pages with their blocks"`
}

// CreatePageRequest is a request to create a page.
type CreatePageRequest struct {
	Title    string `json:"title" jsonschema:"description=Page title"`
	FolderID string `json:"folder_id,omitempty" jsonschema:"description=Parent folder ID; empty for root level"`
}

// CreateResponse is the response to any create call: the
// server-assigned identifier that replaces the client's temporary one.
type CreateResponse struct {
	ID string `json:"id" jsonschema:"description=Server-assigned identifier"`
}

// PageUpdate is a partial page update. Zero-valued fields are omitted
// from the request and left unchanged by the server.
type PageUpdate struct {
	Title string   `json:"title,omitempty" jsonschema:"description=New page title"`
	Order *int     `json:"order,omitempty" jsonschema:"description=Zero-based position among siblings"`
	Tags  []string `json:"tags,omitempty" jsonschema:"description=Replacement tag list"`
}

// MovePageRequest re-parents a page.
type MovePageRequest struct {
	FolderID string `json:"folder_id,omitempty" jsonschema:"description=Target folder ID; empty moves to root"`
	Order    int    `json:"order" jsonschema:"description=Zero-based position among new siblings"`
}

// --- Blocks ---

// BlockCreate is a request to create a block within a page.
type BlockCreate struct {
	Type    BlockType `json:"type" jsonschema:"description=Block renderer type"`
	Content any       `json:"content" jsonschema:"description=Opaque block content"`
	ColSpan int       `json:"col_span,omitempty" jsonschema:"description=Column span (1 or 2)"`
	Order   int       `json:"order" jsonschema:"description=Zero-based position within the page"`
	Tags    []string  `json:"tags,omitempty" jsonschema:"description=Block tags"`
}

// BlockUpdate is a partial block update. The save diff always sends
// content, col_span and tags together for a changed block.
type BlockUpdate struct {
	Content any      `json:"content,omitempty" jsonschema:"description=Opaque block content"`
	ColSpan int      `json:"col_span,omitempty" jsonschema:"description=Column span (1 or 2)"`
	Tags    []string `json:"tags,omitempty" jsonschema:"description=Block tags"`
}

// BlockPosition pairs a block id with its zero-based position for the
// bulk reorder call.
type BlockPosition struct {
	ID    string `json:"id" jsonschema:"description=Block identifier"`
	Order int    `json:"order" jsonschema:"description=Zero-based position within the page"`
}

// ReorderBlocksRequest replaces the stored order of every block in a
// page in one call.
type ReorderBlocksRequest struct {
	Blocks []BlockPosition `json:"blocks" jsonschema:"description=Full ordered list of block positions"`
}

// --- Folders ---

// ListFoldersResponse is the response to listing all folders.
type ListFoldersResponse struct {
	Folders []Folder `json:"folders" jsonschema:"description=All folders with their parent links"`
}

// CreateFolderRequest is a request to create a folder.
type CreateFolderRequest struct {
	Name     string `json:"name" jsonschema:"description=Folder name"`
	ParentID string `json:"parent_id,omitempty" jsonschema:"description=Parent folder ID; empty for root level"`
}

// FolderUpdate is a partial folder update.
type FolderUpdate struct {
	Name  string `json:"name,omitempty" jsonschema:"description=New folder name"`
	Order *int   `json:"order,omitempty" jsonschema:"description=Zero-based position among siblings"`
}

// MoveFolderRequest re-parents a folder.
type MoveFolderRequest struct {
	ParentID string `json:"parent_id,omitempty" jsonschema:"description=Target parent folder ID; empty moves to root"`
	Order    int    `json:"order" jsonschema:"description=Zero-based position among new siblings"`
}

// OkResponse is a simple success response.
type OkResponse struct {
	Ok bool `json:"ok" jsonschema:"description=Whether the operation succeeded"`
}
