// Package apiclient is the typed boundary to the remote Page/Folder/
// Block CRUD API.
//
// Each method performs exactly one network round trip and parses the
// response into a typed shape; non-success responses become a
// *models.APIError carrying the HTTP status and the machine-readable
// error code. There are no retries and no caching: failure policy is
// entirely the caller's. The whole engine can be pointed at a different
// backend by swapping this package, as long as the operation contracts
// hold.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mosaicnotes/mosaic/internal/models"
)

// Client talks to one mosaic API server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a client for the given server. token may be empty for
// servers that allow anonymous access.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		// Keeps bursts of concurrent block deletes/updates polite
		// without ever retrying anything.
		limiter: rate.NewLimiter(rate.Limit(50), 100),
	}
}

// do performs one HTTP round trip. out may be nil for calls whose
// response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err != nil || errResp.Error.Code == "" {
			return models.NewAPIError(resp.StatusCode, models.ErrorCodeInternal,
				fmt.Sprintf("API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
		}
		apiErr := models.NewAPIError(resp.StatusCode, errResp.Error.Code, errResp.Error.Message)
		if len(errResp.Details) > 0 {
			apiErr = apiErr.WithDetails(errResp.Details)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// --- Pages ---

// ListPages fetches every page with its blocks nested.
func (c *Client) ListPages(ctx context.Context) ([]models.Page, error) {
	var resp models.ListPagesResponse
	if err := c.do(ctx, http.MethodGet, "/api/pages", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pages, nil
}

// CreatePage creates a page and returns the server-assigned id.
func (c *Client) CreatePage(ctx context.Context, title, folderID string) (string, error) {
	var resp models.CreateResponse
	req := models.CreatePageRequest{Title: title, FolderID: folderID}
	if err := c.do(ctx, http.MethodPost, "/api/pages", &req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdatePage applies a partial page update.
func (c *Client) UpdatePage(ctx context.Context, id string, upd models.PageUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/pages/"+url.PathEscape(id), &upd, nil)
}

// DeletePage deletes a page.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/pages/"+url.PathEscape(id), nil, nil)
}

// MovePage re-parents a page and sets its sibling position.
func (c *Client) MovePage(ctx context.Context, id, folderID string, order int) error {
	req := models.MovePageRequest{FolderID: folderID, Order: order}
	return c.do(ctx, http.MethodPut, "/api/pages/"+url.PathEscape(id)+"/move", &req, nil)
}

// --- Blocks ---

// CreateBlock creates a block in a page and returns the server-assigned id.
func (c *Client) CreateBlock(ctx context.Context, pageID string, blk models.BlockCreate) (string, error) {
	var resp models.CreateResponse
	if err := c.do(ctx, http.MethodPost, "/api/pages/"+url.PathEscape(pageID)+"/blocks", &blk, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateBlock applies a partial block update.
func (c *Client) UpdateBlock(ctx context.Context, pageID, id string, upd models.BlockUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/pages/"+url.PathEscape(pageID)+"/blocks/"+url.PathEscape(id), &upd, nil)
}

// DeleteBlock deletes a block.
func (c *Client) DeleteBlock(ctx context.Context, pageID, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/pages/"+url.PathEscape(pageID)+"/blocks/"+url.PathEscape(id), nil, nil)
}

// ReorderBlocks replaces the stored order of all blocks of a page in a
// single call.
func (c *Client) ReorderBlocks(ctx context.Context, pageID string, positions []models.BlockPosition) error {
	req := models.ReorderBlocksRequest{Blocks: positions}
	return c.do(ctx, http.MethodPut, "/api/pages/"+url.PathEscape(pageID)+"/blocks/reorder", &req, nil)
}

// --- Folders ---

// ListFolders fetches every folder.
func (c *Client) ListFolders(ctx context.Context) ([]models.Folder, error) {
	var resp models.ListFoldersResponse
	if err := c.do(ctx, http.MethodGet, "/api/folders", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Folders, nil
}

// CreateFolder creates a folder and returns the server-assigned id.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	var resp models.CreateResponse
	req := models.CreateFolderRequest{Name: name, ParentID: parentID}
	if err := c.do(ctx, http.MethodPost, "/api/folders", &req, &resp); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// UpdateFolder applies a partial folder update.
func (c *Client) UpdateFolder(ctx context.Context, id string, upd models.FolderUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/folders/"+url.PathEscape(id), &upd, nil)
}

// DeleteFolder deletes a folder. The server re-parents any remaining
// children to root rather than deleting them.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/folders/"+url.PathEscape(id), nil, nil)
}

// MoveFolder re-parents a folder and sets its sibling position.
func (c *Client) MoveFolder(ctx context.Context, id, parentID string, order int) error {
	req := models.MoveFolderRequest{ParentID: parentID, Order: order}
	return c.do(ctx, http.MethodPut, "/api/folders/"+url.PathEscape(id)+"/move", &req, nil)
}
