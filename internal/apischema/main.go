// Command apischema generates docs/api-schema.json, a JSON Schema
// description of every request and response shape of the workspace API.
// It is run through go generate from the models package.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	"github.com/mosaicnotes/mosaic/internal/models"
)

var quiet = flag.Bool("q", false, "quiet mode")

func main() {
	flag.Parse()

	// One named entry per wire shape, requests and responses alike.
	shapes := map[string]any{
		"ListPagesResponse":    &models.ListPagesResponse{},
		"CreatePageRequest":    &models.CreatePageRequest{},
		"CreateResponse":       &models.CreateResponse{},
		"PageUpdate":           &models.PageUpdate{},
		"MovePageRequest":      &models.MovePageRequest{},
		"BlockCreate":          &models.BlockCreate{},
		"BlockUpdate":          &models.BlockUpdate{},
		"ReorderBlocksRequest": &models.ReorderBlocksRequest{},
		"ListFoldersResponse":  &models.ListFoldersResponse{},
		"CreateFolderRequest":  &models.CreateFolderRequest{},
		"FolderUpdate":         &models.FolderUpdate{},
		"MoveFolderRequest":    &models.MoveFolderRequest{},
		"OkResponse":           &models.OkResponse{},
		"ErrorResponse":        &models.ErrorResponse{},
	}

	r := &jsonschema.Reflector{
		// Inline everything so each entry stands on its own; the shapes
		// are small and a shared $defs section hurts readability more
		// than the duplication costs.
		ExpandedStruct: true,
		DoNotReference: true,
	}

	out := make(map[string]*jsonschema.Schema, len(shapes))
	for name, shape := range shapes {
		out[name] = r.Reflect(shape)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal error: %v\n", err)
		os.Exit(1)
	}
	data = append(data, '\n')

	// Paths relative to internal/models/ where go:generate runs.
	outPath := filepath.Join("..", "..", "docs", "api-schema.json")
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir error: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil { //nolint:gosec // G306: generated docs are world-readable
		fmt.Fprintf(os.Stderr, "write error: %v\n", err)
		os.Exit(1)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Generated docs/api-schema.json with %d shapes\n", len(out))
	}
}
