// Package chi exposes the product search API over HTTP.
package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	chiv5 "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/shopdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shopdex/internal/usecase/search"
)

// Error codes returned to API clients.
const (
	codeBadRequest            = "bad_request"
	codeValidationFailed      = "validation_failed"
	codeNotFound              = "not_found"
	codeRepositoryUnavailable = "repository_unavailable"
	codeInternalError         = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements the HTTP handlers for the search API.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	maxBatchSize  int
	auth          func(http.Handler) http.Handler
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. apiKeys guard the mutating
// admin routes; an empty list leaves them open.
func NewServer(search *searchuc.Service, health *healthuc.Service, logger *zap.Logger, maxBatchSize int, apiKeys []string) *Server {
	s := &Server{
		search:       search,
		health:       health,
		logger:       logger,
		maxBatchSize: maxBatchSize,
		auth:         BearerAuthMiddleware(apiKeys),
	}
	s.errorHandlers = []errorHandler{
		invalidQueryHandler,
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrRepositoryUnavailable, http.StatusServiceUnavailable, codeRepositoryUnavailable),
	}
	return s
}

// Handler assembles the API routes behind the given middlewares.
func (s *Server) Handler(middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := chiv5.NewRouter()
	for _, m := range middlewares {
		r.Use(m)
	}

	r.Route("/api/v1", func(r chiv5.Router) {
		r.Get("/search", s.handleSearch)
		r.Get("/search/suggest", s.handleSuggest)
		r.Get("/categories", s.handleCategories)
		r.Get("/tags", s.handleTags)

		// Mutating admin routes require a bearer token.
		r.Group(func(r chiv5.Router) {
			r.Use(s.auth)
			r.Put("/products", s.handleUpsertProducts)
			r.Delete("/products/{id}", s.handleDeleteProduct)
			r.Delete("/cache", s.handleInvalidateCache)
		})
	})
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

type productJSON struct {
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

type searchResponse struct {
	Products      []productJSON `json:"products"`
	TotalProducts int           `json:"totalProducts"`
	TotalPages    int           `json:"totalPages"`
	From          int           `json:"from"`
	To            int           `json:"to"`
	FromCache     bool          `json:"fromCache"`
}

type suggestionJSON struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleSearch handles GET /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q, err := planFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, fromCache, err := s.search.Search(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToJSON(page, fromCache))
}

// handleSuggest handles GET /api/v1/search/suggest.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q, err := planFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	suggestions, err := s.search.Suggest(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]suggestionJSON, len(suggestions))
	for i, sg := range suggestions {
		items[i] = suggestionJSON{ID: sg.ID, Name: sg.Name, Image: sg.Image}
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": items})
}

// handleCategories handles GET /api/v1/categories.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.search.Categories(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

// handleTags handles GET /api/v1/tags.
func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.search.Tags(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tags": tags})
}

// handleUpsertProducts handles PUT /api/v1/products.
func (s *Server) handleUpsertProducts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Products []productJSON `json:"products"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Products) == 0 || len(req.Products) > s.maxBatchSize {
		writeError(w, http.StatusBadRequest, codeValidationFailed,
			fmt.Sprintf("products count must be between 1 and %d", s.maxBatchSize))
		return
	}

	products := make([]domain.ProductSummary, len(req.Products))
	for i, p := range req.Products {
		products[i] = productFromJSON(p)
	}

	if err := s.search.UpsertProducts(r.Context(), products); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{"upserted": len(products)})
}

// handleDeleteProduct handles DELETE /api/v1/products/{id}.
func (s *Server) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chiv5.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, "product id is required")
		return
	}

	if err := s.search.DeleteProduct(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleInvalidateCache handles DELETE /api/v1/cache.
func (s *Server) handleInvalidateCache(w http.ResponseWriter, _ *http.Request) {
	s.search.InvalidateCache()
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

// planFromRequest validates raw query parameters into a typed query.
func planFromRequest(r *http.Request) (*query.Query, error) {
	qs := r.URL.Query()
	q, err := query.Plan(query.Params{
		Text:     qs.Get("q"),
		Category: qs.Get("category"),
		Tag:      qs.Get("tag"),
		Price:    qs.Get("price"),
		Rating:   qs.Get("rating"),
		Sort:     qs.Get("sort"),
		Page:     qs.Get("page"),
		PageSize: qs.Get("pageSize"),
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func pageToJSON(page result.Page, fromCache bool) searchResponse {
	products := make([]productJSON, len(page.Products))
	for i := range page.Products {
		products[i] = productToJSON(&page.Products[i])
	}
	return searchResponse{
		Products:      products,
		TotalProducts: page.TotalProducts,
		TotalPages:    page.TotalPages,
		From:          page.From,
		To:            page.To,
		FromCache:     fromCache,
	}
}

func productToJSON(p *domain.ProductSummary) productJSON {
	out := productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Images:      p.Images,
		Price:       p.Price,
		Category:    p.Category,
		Tags:        p.Tags,
		Description: p.Description,
		NumSales:    p.NumSales,
		AvgRating:   p.AvgRating,
	}
	if !p.CreatedAt.IsZero() {
		out.CreatedAt = p.CreatedAt.UTC().Format(time.RFC3339)
	}
	return out
}

func productFromJSON(p productJSON) domain.ProductSummary {
	out := domain.ProductSummary{
		ID:          p.ID,
		Name:        p.Name,
		Images:      p.Images,
		Price:       p.Price,
		Category:    p.Category,
		Tags:        p.Tags,
		Description: p.Description,
		NumSales:    p.NumSales,
		AvgRating:   p.AvgRating,
	}
	if p.CreatedAt != "" {
		if t, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			out.CreatedAt = t
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	var iqe *domain.InvalidQueryError
	if errors.As(err, &iqe) {
		return iqe.Error()
	}
	for _, s := range []error{domain.ErrInvalidQuery, domain.ErrNotFound, domain.ErrRepositoryUnavailable} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidQueryHandler rejects malformed parameters, naming the refused one.
func invalidQueryHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
