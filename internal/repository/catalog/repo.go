// Package catalog implements the product repository over the FT-indexed
// hash store: structured filtering, BM25 text search, counts, distinct
// category/tag listing and bulk ingest.
package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/db"
	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/sortkey"
)

// DefaultKeyPrefix namespaces all catalog keys.
const DefaultKeyPrefix = "shopdex:"

// store is the consumer interface for catalog operations (ISP).
type store interface {
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
	TagVals(ctx context.Context, index, field string) ([]string, error)
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
}

// Repo implements the search usecase Repository and CatalogReader contracts.
type Repo struct {
	store  store
	prefix string
}

// New creates a catalog repository.
func New(s store) *Repo {
	return &Repo{store: s, prefix: DefaultKeyPrefix}
}

// WithKeyPrefix overrides the key namespace.
func (r *Repo) WithKeyPrefix(prefix string) *Repo {
	if prefix != "" {
		r.prefix = prefix
	}
	return r
}

// IndexName returns the FT index name, exposed for health checks.
func (r *Repo) IndexName() string { return r.prefix + "products:idx" }
func (r *Repo) keyPrefix() string { return r.prefix + "product:" }

// EnsureIndex creates the product FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := db.NewIndex(r.IndexName()).
		Prefix(r.keyPrefix()).
		Text(fieldName).
		Text(fieldDescription).
		Tag(fieldCategory).
		TagWithOpts(fieldTags, ",", false).
		SortableNumeric(fieldPrice).
		SortableNumeric(fieldNumSales).
		SortableNumeric(fieldCreatedAt).
		Numeric(fieldAvgRating).
		MustBuild()

	if err := r.store.CreateIndex(ctx, def); err != nil && err != db.ErrIndexExists {
		return fmt.Errorf("create product index: %w", err)
	}
	return nil
}

// Upsert stores product snapshots as indexed hashes in one round-trip.
func (r *Repo) Upsert(ctx context.Context, products []domain.ProductSummary) error {
	if len(products) == 0 {
		return nil
	}
	items := make([]db.HashSetItem, len(products))
	for i := range products {
		p := &products[i]
		if p.ID == "" {
			return domain.NewInvalidQuery("products", "product at index %d has no id", i)
		}
		items[i] = db.HashSetItem{
			Key:    r.keyPrefix() + p.ID,
			Fields: encodeProduct(p),
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return fmt.Errorf("upsert products: %w: %w", domain.ErrRepositoryUnavailable, err)
	}
	return nil
}

// Delete removes a product by id. A missing product reports
// domain.ErrNotFound.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.NewInvalidQuery("id", "product id is required")
	}
	key := r.keyPrefix() + id

	ok, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check product: %w: %w", domain.ErrRepositoryUnavailable, err)
	}
	if !ok {
		return fmt.Errorf("product %s: %w", id, domain.ErrNotFound)
	}

	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("delete product: %w: %w", domain.ErrRepositoryUnavailable, err)
	}
	return nil
}

// FindByFilter runs the broad browse: structured filters plus, when the
// query carries a substantial text term, an infix wildcard match on the
// product name.
func (r *Repo) FindByFilter(ctx context.Context, q *query.Query) ([]domain.ProductSummary, error) {
	return r.search(ctx, broadQuery(q), q)
}

// Count returns the number of products matching the broad filter.
func (r *Repo) Count(ctx context.Context, q *query.Query) (int, error) {
	n, err := r.store.SearchCount(ctx, r.IndexName(), broadQuery(q))
	if err != nil {
		return 0, fmt.Errorf("count products: %w: %w", domain.ErrRepositoryUnavailable, err)
	}
	return n, nil
}

// TextSearch runs the inverted-index fallback: BM25 match on name and
// description combined with the same structured filters.
func (r *Repo) TextSearch(ctx context.Context, q *query.Query) ([]domain.ProductSummary, error) {
	return r.search(ctx, textQuery(q), q)
}

// TextCount returns the number of products matching the text-search query.
func (r *Repo) TextCount(ctx context.Context, q *query.Query) (int, error) {
	n, err := r.store.SearchCount(ctx, r.IndexName(), textQuery(q))
	if err != nil {
		return 0, fmt.Errorf("count text matches: %w: %w", domain.ErrRepositoryUnavailable, err)
	}
	return n, nil
}

// ListCategories returns the distinct category values, sorted.
func (r *Repo) ListCategories(ctx context.Context) ([]string, error) {
	return r.tagVals(ctx, fieldCategory)
}

// ListTags returns the distinct tag values, sorted.
func (r *Repo) ListTags(ctx context.Context) ([]string, error) {
	return r.tagVals(ctx, fieldTags)
}

func (r *Repo) tagVals(ctx context.Context, field string) ([]string, error) {
	vals, err := r.store.TagVals(ctx, r.IndexName(), field)
	if err != nil {
		return nil, fmt.Errorf("list %s values: %w: %w", field, domain.ErrRepositoryUnavailable, err)
	}
	sort.Strings(vals)
	return vals, nil
}

func (r *Repo) search(ctx context.Context, queryStr string, q *query.Query) ([]domain.ProductSummary, error) {
	sortBy, desc := sortClause(q.Sort())
	sr, err := r.store.Search(ctx, &db.SearchQuery{
		Index:    r.IndexName(),
		Query:    queryStr,
		SortBy:   sortBy,
		SortDesc: desc,
		Offset:   q.Offset(),
		Limit:    q.PageSize(),
	})
	if err != nil {
		return nil, fmt.Errorf("search products: %w: %w", domain.ErrRepositoryUnavailable, err)
	}

	products := make([]domain.ProductSummary, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		products = append(products, decodeProduct(
			strings.TrimPrefix(entry.Key, r.keyPrefix()), entry.Fields,
		))
	}
	return products, nil
}

// broadQuery builds the structured-filter FT query string. Tried before
// text search even for keyword queries: tag/numeric filtering is cheaper
// than BM25 over the text index.
func broadQuery(q *query.Query) string {
	parts := structuredParts(q)

	if q.HasTextQuery() {
		for _, tok := range strings.Fields(strings.ToLower(q.Text())) {
			parts = append(parts, fmt.Sprintf("@%s:(*%s*)", fieldName, db.EscapeQuery(tok)))
		}
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// textQuery builds the BM25 fallback query over name and description,
// keeping the structured filters intact.
func textQuery(q *query.Query) string {
	parts := structuredParts(q)
	parts = append(parts, fmt.Sprintf(
		"@%s|%s:(%s)", fieldName, fieldDescription, db.EscapeQuery(q.Text()),
	))
	return strings.Join(parts, " ")
}

func structuredParts(q *query.Query) []string {
	var parts []string
	if c := q.Category(); c != "" {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldCategory, db.EscapeTag(c)))
	}
	if tag := q.Tag(); tag != "" {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", fieldTags, db.EscapeTag(tag)))
	}
	if pr := q.PriceRange(); pr != nil {
		parts = append(parts, fmt.Sprintf("@%s:[%g %g]", fieldPrice, pr.Min, pr.Max))
	}
	if mr := q.MinRating(); mr != nil {
		parts = append(parts, fmt.Sprintf("@%s:[%g +inf]", fieldAvgRating, *mr))
	}
	return parts
}

func sortClause(k sortkey.Key) (field string, desc bool) {
	switch k {
	case sortkey.PriceAsc:
		return fieldPrice, false
	case sortkey.PriceDesc:
		return fieldPrice, true
	case sortkey.BestSelling:
		return fieldNumSales, true
	default: // sortkey.Newest
		return fieldCreatedAt, true
	}
}
