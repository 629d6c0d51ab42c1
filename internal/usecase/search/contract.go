package search

import (
	"context"
	"time"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
)

// Repository defines the catalog storage contract for search operations.
// FindByFilter/Count drive the broad browse; TextSearch/TextCount drive
// the inverted-index fallback. All take the full validated query so the
// repository applies identical filters, sort and pagination on both paths.
type Repository interface {
	FindByFilter(ctx context.Context, q *query.Query) ([]domain.ProductSummary, error)
	Count(ctx context.Context, q *query.Query) (int, error)
	TextSearch(ctx context.Context, q *query.Query) ([]domain.ProductSummary, error)
	TextCount(ctx context.Context, q *query.Query) (int, error)
}

// Ingestor accepts bulk product snapshots for indexing and removes
// retired products.
type Ingestor interface {
	Upsert(ctx context.Context, products []domain.ProductSummary) error
	Delete(ctx context.Context, id string) error
}

// CatalogReader lists distinct facet values for filter UIs.
type CatalogReader interface {
	ListCategories(ctx context.Context) ([]string, error)
	ListTags(ctx context.Context) ([]string, error)
}

// Cache is the process-local result cache. Implementations must be safe
// for concurrent use; Get treats expired entries as absent.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	Purge()
}
