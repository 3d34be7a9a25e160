package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mosaicnotes/mosaic/internal/models"
)

func TestListPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/pages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		_ = json.NewEncoder(w).Encode(models.ListPagesResponse{
			Pages: []models.Page{
				{ID: "p1", Title: "Roadmap", Blocks: []models.Block{{ID: "b1", Type: models.BlockTypeText, Content: "hi"}}},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	pages, err := c.ListPages(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 1 || pages[0].ID != "p1" || len(pages[0].Blocks) != 1 {
		t.Fatalf("pages = %+v", pages)
	}
}

func TestCreatePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/pages" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req models.CreatePageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.Title != "Untitled" || req.FolderID != "f1" {
			t.Errorf("req = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(models.CreateResponse{ID: "srv-1"})
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	id, err := c.CreatePage(context.Background(), "Untitled", "f1")
	if err != nil {
		t.Fatal(err)
	}
	if id != "srv-1" {
		t.Errorf("id = %q, want srv-1", id)
	}
}

func TestAPIError(t *testing.T) {
	t.Run("StructuredBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{
				Error: models.ErrorDetails{Code: models.ErrorCodeDuplicateName, Message: "name already used"},
			})
		}))
		defer srv.Close()

		err := New(srv.URL, "").UpdateFolder(context.Background(), "f1", models.FolderUpdate{Name: "X"})
		var apiErr *models.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("err = %T, want *models.APIError", err)
		}
		if apiErr.StatusCode() != http.StatusConflict {
			t.Errorf("StatusCode = %d", apiErr.StatusCode())
		}
		if apiErr.Code() != models.ErrorCodeDuplicateName {
			t.Errorf("Code = %q", apiErr.Code())
		}
		if !models.IsDuplicateName(err) {
			t.Error("IsDuplicateName = false")
		}
	})
	t.Run("UnparseableBody", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream exploded"))
		}))
		defer srv.Close()

		err := New(srv.URL, "").DeletePage(context.Background(), "p1")
		var apiErr *models.APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("err = %T, want *models.APIError", err)
		}
		if apiErr.StatusCode() != http.StatusBadGateway {
			t.Errorf("StatusCode = %d", apiErr.StatusCode())
		}
		if apiErr.Code() != models.ErrorCodeInternal {
			t.Errorf("Code = %q", apiErr.Code())
		}
	})
	t.Run("NotFoundOnDelete", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{
				Error: models.ErrorDetails{Code: models.ErrorCodeNotFound, Message: "no such page"},
			})
		}))
		defer srv.Close()

		err := New(srv.URL, "").DeletePage(context.Background(), "gone")
		if !models.IsNotFound(err) {
			t.Errorf("IsNotFound = false for %v", err)
		}
	})
}

func TestReorderBlocks(t *testing.T) {
	var got models.ReorderBlocksRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/pages/p1/blocks/reorder" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		_ = json.NewEncoder(w).Encode(models.OkResponse{Ok: true})
	}))
	defer srv.Close()

	positions := []models.BlockPosition{{ID: "b2", Order: 0}, {ID: "b1", Order: 1}}
	if err := New(srv.URL, "").ReorderBlocks(context.Background(), "p1", positions); err != nil {
		t.Fatal(err)
	}
	if len(got.Blocks) != 2 || got.Blocks[0].ID != "b2" || got.Blocks[1].Order != 1 {
		t.Errorf("payload = %+v", got)
	}
}

func TestPathEscaping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/pages/a b" {
			t.Errorf("path = %q, want /api/pages/a b", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.OkResponse{Ok: true})
	}))
	defer srv.Close()

	if err := New(srv.URL, "").DeletePage(context.Background(), "a b"); err != nil {
		t.Fatal(err)
	}
}
