package search

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/mode"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
)

// DefaultCacheTTL bounds how long a full result page is served from cache.
const DefaultCacheTTL = 60 * time.Second

// Observer receives cache and fallback events for instrumentation.
// All methods must be cheap and non-blocking.
type Observer interface {
	CacheHit()
	CacheMiss()
	TextFallback()
}

// Service orchestrates product search: cache lookup, broad browse,
// text-search fallback and suggestion ranking.
type Service struct {
	repo     Repository
	catalog  CatalogReader
	ingest   Ingestor
	cache    Cache
	ranker   *Ranker
	cacheTTL time.Duration
	obs      Observer
}

// New creates a search service. cacheTTL <= 0 falls back to DefaultCacheTTL.
func New(repo Repository, catalog CatalogReader, ingest Ingestor, cache Cache, ranker *Ranker, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &Service{
		repo:     repo,
		catalog:  catalog,
		ingest:   ingest,
		cache:    cache,
		ranker:   ranker,
		cacheTTL: cacheTTL,
	}
}

// WithObserver attaches an instrumentation hook.
func (s *Service) WithObserver(obs Observer) *Service {
	s.obs = obs
	return s
}

// Search returns one page of products for the query, reporting whether
// the page came from the cache. Repository failures propagate; they are
// never masked as an empty page.
func (s *Service) Search(ctx context.Context, q *query.Query) (result.Page, bool, error) {
	key := cacheKey(mode.Full, q)

	if v, ok := s.cache.Get(key); ok {
		if page, ok := v.(result.Page); ok {
			if s.obs != nil {
				s.obs.CacheHit()
			}
			return page, true, nil
		}
	}
	if s.obs != nil {
		s.obs.CacheMiss()
	}

	page, err := s.fetchPage(ctx, q)
	if err != nil {
		return result.Page{}, false, err
	}

	// A cancelled request must not poison the cache with a partial read.
	if ctx.Err() == nil {
		s.cache.Set(key, page, s.cacheTTL)
	}
	return page, false, nil
}

// Suggest returns ranked type-ahead suggestions for the query text.
// Candidates are fetched like a full search, then re-scored in process.
// Suggestions are never cached.
func (s *Service) Suggest(ctx context.Context, q *query.Query) ([]result.Suggestion, error) {
	products, err := s.fetchProducts(ctx, q)
	if err != nil {
		return nil, err
	}
	return s.ranker.Rank(q.Text(), products), nil
}

// Categories lists the distinct category values.
func (s *Service) Categories(ctx context.Context) ([]string, error) {
	return s.catalog.ListCategories(ctx)
}

// Tags lists the distinct tag values.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	return s.catalog.ListTags(ctx)
}

// UpsertProducts ingests product snapshots and purges the result cache,
// since any cached page may now be stale.
func (s *Service) UpsertProducts(ctx context.Context, products []domain.ProductSummary) error {
	if err := s.ingest.Upsert(ctx, products); err != nil {
		return fmt.Errorf("ingest products: %w", err)
	}
	s.cache.Purge()
	return nil
}

// DeleteProduct removes a single product and purges the result cache.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.ingest.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.cache.Purge()
	return nil
}

// InvalidateCache drops every cached result page.
func (s *Service) InvalidateCache() {
	s.cache.Purge()
}

// fetchPage runs count and data fetch concurrently, falling back to
// text search when the broad browse comes up empty for a keyword query.
func (s *Service) fetchPage(ctx context.Context, q *query.Query) (result.Page, error) {
	products, total, err := s.run(ctx, q, s.repo.FindByFilter, s.repo.Count)
	if err != nil {
		return result.Page{}, err
	}

	if len(products) == 0 && q.HasTextQuery() {
		if s.obs != nil {
			s.obs.TextFallback()
		}
		products, total, err = s.run(ctx, q, s.repo.TextSearch, s.repo.TextCount)
		if err != nil {
			return result.Page{}, err
		}
	}

	return result.NewPage(products, total, q.Page(), q.PageSize()), nil
}

// fetchProducts is fetchPage without the count round-trip, used for
// suggestions where pagination metadata is not needed.
func (s *Service) fetchProducts(ctx context.Context, q *query.Query) ([]domain.ProductSummary, error) {
	products, err := s.repo.FindByFilter(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("browse products: %w", err)
	}
	if len(products) == 0 && q.HasTextQuery() {
		if s.obs != nil {
			s.obs.TextFallback()
		}
		if products, err = s.repo.TextSearch(ctx, q); err != nil {
			return nil, fmt.Errorf("text search: %w", err)
		}
	}
	return products, nil
}

func (s *Service) run(
	ctx context.Context,
	q *query.Query,
	fetch func(context.Context, *query.Query) ([]domain.ProductSummary, error),
	count func(context.Context, *query.Query) (int, error),
) ([]domain.ProductSummary, int, error) {
	var (
		products []domain.ProductSummary
		total    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if products, err = fetch(gctx, q); err != nil {
			return fmt.Errorf("fetch products: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if total, err = count(gctx, q); err != nil {
			return fmt.Errorf("count products: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// cacheKey derives a deterministic key from every field that shapes the
// result, tagged with the search mode so page and suggestion shapes can
// never collide under one key.
func cacheKey(m mode.Mode, q *query.Query) string {
	price := "-"
	if pr := q.PriceRange(); pr != nil {
		price = strconv.FormatFloat(pr.Min, 'f', -1, 64) + ":" + strconv.FormatFloat(pr.Max, 'f', -1, 64)
	}
	rating := "-"
	if mr := q.MinRating(); mr != nil {
		rating = strconv.FormatFloat(*mr, 'f', -1, 64)
	}
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s|%d|%d",
		m, q.Text(), q.Category(), q.Tag(), price, rating, q.Sort(), q.Page(), q.PageSize(),
	)
}
