// Package sdk provides a typed HTTP client for the shopdex search API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client talks to a shopdex API server.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option customizes the Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAPIKey sets the Bearer token sent on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchParams mirror the API's query parameters. Zero values are omitted.
type SearchParams struct {
	Query    string
	Category string
	Tag      string
	Price    string // "<min>-<max>"
	Rating   string
	Sort     string
	Page     int
	PageSize int
}

// Product is a catalog product snapshot.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Images      []string `json:"images,omitempty"`
	Price       float64  `json:"price"`
	Category    string   `json:"category,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Description string   `json:"description,omitempty"`
	NumSales    int      `json:"numSales"`
	AvgRating   float64  `json:"avgRating"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Products      []Product `json:"products"`
	TotalProducts int       `json:"totalProducts"`
	TotalPages    int       `json:"totalPages"`
	From          int       `json:"from"`
	To            int       `json:"to"`
	FromCache     bool      `json:"fromCache"`
}

// Suggestion is a single type-ahead hit.
type Suggestion struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// APIError is a non-2xx response decoded from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("shopdex: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// Search fetches one page of products.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	var out SearchResult
	if err := c.get(ctx, "/api/v1/search", p.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest fetches ranked type-ahead suggestions.
func (c *Client) Suggest(ctx context.Context, p SearchParams) ([]Suggestion, error) {
	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := c.get(ctx, "/api/v1/search/suggest", p.values(), &out); err != nil {
		return nil, err
	}
	return out.Suggestions, nil
}

// Categories lists the distinct product categories.
func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var out struct {
		Categories []string `json:"categories"`
	}
	if err := c.get(ctx, "/api/v1/categories", nil, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// Tags lists the distinct product tags.
func (c *Client) Tags(ctx context.Context) ([]string, error) {
	var out struct {
		Tags []string `json:"tags"`
	}
	if err := c.get(ctx, "/api/v1/tags", nil, &out); err != nil {
		return nil, err
	}
	return out.Tags, nil
}

// UpsertProducts ingests product snapshots, returning the accepted count.
func (c *Client) UpsertProducts(ctx context.Context, products []Product) (int, error) {
	body, err := json.Marshal(map[string]any{"products": products})
	if err != nil {
		return 0, fmt.Errorf("shopdex: encode products: %w", err)
	}

	var out struct {
		Upserted int `json:"upserted"`
	}
	if err := c.do(ctx, http.MethodPut, "/api/v1/products", body, &out); err != nil {
		return 0, err
	}
	return out.Upserted, nil
}

// DeleteProduct removes a product from the catalog by id.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/products/"+url.PathEscape(id), nil, nil)
}

// InvalidateCache drops every cached result page on the server.
func (c *Client) InvalidateCache(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/cache", nil, nil)
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}
	set("q", p.Query)
	set("category", p.Category)
	set("tag", p.Tag)
	set("price", p.Price)
	set("rating", p.Rating)
	set("sort", p.Sort)
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		v.Set("pageSize", strconv.Itoa(p.PageSize))
	}
	return v
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shopdex: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopdex: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown", Message: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("shopdex: decode response: %w", err)
		}
	}
	return nil
}
