package sdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch_SendsParamsAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "sneaker" || q.Get("category") != "shoes" || q.Get("page") != "2" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		_ = json.NewEncoder(w).Encode(SearchResult{
			Products:      []Product{{ID: "p1", Name: "Red Sneaker"}},
			TotalProducts: 1,
			TotalPages:    1,
			From:          1,
			To:            1,
		})
	}))
	defer srv.Close()

	c := New(srv.URL, WithAPIKey("secret"))
	res, err := c.Search(context.Background(), SearchParams{
		Query: "sneaker", Category: "shoes", Page: 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Products) != 1 || res.Products[0].ID != "p1" {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestSuggest_Decodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/search/suggest" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"suggestions":[{"id":"p1","name":"Red Sneaker","image":"img.png"}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	got, err := c.Suggest(context.Background(), SearchParams{Query: "sneaker"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Image != "img.png" {
		t.Errorf("unexpected suggestions: %+v", got)
	}
}

func TestCategoriesAndTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/categories":
			_, _ = w.Write([]byte(`{"categories":["hats","shoes"]}`))
		case "/api/v1/tags":
			_, _ = w.Write([]byte(`{"tags":["sale"]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := New(srv.URL)
	cats, err := c.Categories(context.Background())
	if err != nil || len(cats) != 2 {
		t.Fatalf("categories: %v %v", cats, err)
	}
	tags, err := c.Tags(context.Background())
	if err != nil || len(tags) != 1 {
		t.Fatalf("tags: %v %v", tags, err)
	}
}

func TestUpsertProducts_SendsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/products" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Products []Product `json:"products"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Products) != 1 || req.Products[0].ID != "p1" {
			t.Errorf("unexpected body: %+v", req)
		}
		_, _ = w.Write([]byte(`{"upserted":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	n, err := c.UpsertProducts(context.Background(), []Product{{ID: "p1", Name: "Red Sneaker"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 upserted, got %d", n)
	}
}

func TestDeleteProduct_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/products/p1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInvalidateCache_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/v1/cache" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := New(srv.URL).InvalidateCache(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAPIError_Decoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":"validation_failed","message":"invalid query: parameter \"rating\": must be between 0 and 5, got 9"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Search(context.Background(), SearchParams{Rating: "9"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Code != "validation_failed" {
		t.Errorf("unexpected error: %+v", apiErr)
	}
}
