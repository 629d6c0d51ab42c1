package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/query"
)

type mockRepo struct {
	broad      []domain.ProductSummary
	broadCount int
	text       []domain.ProductSummary
	textCount  int

	broadCalls   int
	textCalls    int
	broadErr     error
	countErr     error
	textErr      error
	textCountErr error
}

func (m *mockRepo) FindByFilter(_ context.Context, _ *query.Query) ([]domain.ProductSummary, error) {
	m.broadCalls++
	return m.broad, m.broadErr
}

func (m *mockRepo) Count(_ context.Context, _ *query.Query) (int, error) {
	return m.broadCount, m.countErr
}

func (m *mockRepo) TextSearch(_ context.Context, _ *query.Query) ([]domain.ProductSummary, error) {
	m.textCalls++
	return m.text, m.textErr
}

func (m *mockRepo) TextCount(_ context.Context, _ *query.Query) (int, error) {
	return m.textCount, m.textCountErr
}

type mockCatalog struct {
	categories []string
	tags       []string
}

func (m *mockCatalog) ListCategories(_ context.Context) ([]string, error) {
	return m.categories, nil
}

func (m *mockCatalog) ListTags(_ context.Context) ([]string, error) {
	return m.tags, nil
}

type mockIngestor struct {
	upserted []domain.ProductSummary
	deleted  string
	err      error
}

func (m *mockIngestor) Upsert(_ context.Context, products []domain.ProductSummary) error {
	m.upserted = products
	return m.err
}

func (m *mockIngestor) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

// mockCache records sets so tests can assert on caching behavior.
type mockCache struct {
	entries map[string]any
	sets    int
	purged  bool
}

func newMockCache() *mockCache {
	return &mockCache{entries: map[string]any{}}
}

func (m *mockCache) Get(key string) (any, bool) {
	v, ok := m.entries[key]
	return v, ok
}

func (m *mockCache) Set(key string, value any, _ time.Duration) {
	m.entries[key] = value
	m.sets++
}

func (m *mockCache) Delete(key string) { delete(m.entries, key) }

func (m *mockCache) Purge() {
	m.entries = map[string]any{}
	m.purged = true
}

func newTestService(repo *mockRepo, cache *mockCache) *Service {
	return New(repo, &mockCatalog{}, &mockIngestor{}, cache, newTestRanker(), time.Minute)
}

func planQuery(t *testing.T, p query.Params) *query.Query {
	t.Helper()
	q, err := query.Plan(p)
	if err != nil {
		t.Fatalf("query.Plan: %v", err)
	}
	return &q
}

func products(ids ...string) []domain.ProductSummary {
	out := make([]domain.ProductSummary, len(ids))
	for i, id := range ids {
		out[i] = domain.ProductSummary{ID: id, Name: "Sneaker " + id}
	}
	return out
}

func TestSearch_BroadResultNoFallback(t *testing.T) {
	repo := &mockRepo{broad: products("p1", "p2"), broadCount: 2}
	svc := newTestService(repo, newMockCache())

	page, fromCache, err := svc.Search(context.Background(), planQuery(t, query.Params{Text: "sneaker"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromCache {
		t.Error("first search must not be served from cache")
	}
	if len(page.Products) != 2 || page.TotalProducts != 2 {
		t.Errorf("unexpected page: %+v", page)
	}
	if repo.textCalls != 0 {
		t.Errorf("fallback must not run when the broad browse has results, got %d calls", repo.textCalls)
	}
}

func TestSearch_TextFallbackRunsExactlyOnce(t *testing.T) {
	repo := &mockRepo{text: products("p9"), textCount: 1}
	svc := newTestService(repo, newMockCache())

	page, _, err := svc.Search(context.Background(), planQuery(t, query.Params{Text: "zxqy"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.textCalls != 1 {
		t.Fatalf("expected exactly one fallback call, got %d", repo.textCalls)
	}
	if len(page.Products) != 1 || page.Products[0].ID != "p9" {
		t.Errorf("expected the fallback result, got %+v", page.Products)
	}
}

func TestSearch_NoFallbackForShortText(t *testing.T) {
	repo := &mockRepo{}
	svc := newTestService(repo, newMockCache())

	page, _, err := svc.Search(context.Background(), planQuery(t, query.Params{Text: "zx"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.textCalls != 0 {
		t.Errorf("sub-threshold text must never trigger the fallback, got %d calls", repo.textCalls)
	}
	if page.TotalProducts != 0 {
		t.Errorf("expected an empty page, got %+v", page)
	}
}

func TestSearch_CacheHitShortCircuits(t *testing.T) {
	repo := &mockRepo{broad: products("p1"), broadCount: 1}
	svc := newTestService(repo, newMockCache())
	q := planQuery(t, query.Params{Category: "shoes"})

	if _, fromCache, err := svc.Search(context.Background(), q); err != nil || fromCache {
		t.Fatalf("first search: fromCache=%v err=%v", fromCache, err)
	}
	page, fromCache, err := svc.Search(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fromCache {
		t.Fatal("second identical search must hit the cache")
	}
	if repo.broadCalls != 1 {
		t.Errorf("repository must not be queried on a cache hit, got %d calls", repo.broadCalls)
	}
	if len(page.Products) != 1 {
		t.Errorf("unexpected cached page: %+v", page)
	}
}

func TestSearch_CacheKeySensitivity(t *testing.T) {
	repo := &mockRepo{broad: products("p1"), broadCount: 1}
	svc := newTestService(repo, newMockCache())

	if _, _, err := svc.Search(context.Background(), planQuery(t, query.Params{Category: "shoes"})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, fromCache, err := svc.Search(context.Background(), planQuery(t, query.Params{Category: "hats"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fromCache {
		t.Error("a different category must not reuse the cached page")
	}
	if repo.broadCalls != 2 {
		t.Errorf("expected 2 repository calls, got %d", repo.broadCalls)
	}
}

func TestSearch_CancelledContextSkipsCaching(t *testing.T) {
	repo := &mockRepo{broad: products("p1"), broadCount: 1}
	cache := newMockCache()
	svc := newTestService(repo, cache)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The mock repo ignores the context, so the fetch itself succeeds.
	if _, _, err := svc.Search(ctx, planQuery(t, query.Params{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 0 {
		t.Errorf("a cancelled request must not populate the cache, got %d sets", cache.sets)
	}
}

func TestSearch_RepositoryErrorPropagates(t *testing.T) {
	wantErr := errors.New("boom")
	repo := &mockRepo{countErr: wantErr}
	svc := newTestService(repo, newMockCache())

	_, _, err := svc.Search(context.Background(), planQuery(t, query.Params{}))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected the count error to propagate, got %v", err)
	}
}

func TestSuggest_RankedAndUncached(t *testing.T) {
	repo := &mockRepo{broad: []domain.ProductSummary{
		{ID: "hat", Name: "Blue Hat"},
		{ID: "sneaker", Name: "Red Sneaker"},
	}}
	cache := newMockCache()
	svc := newTestService(repo, cache)

	got, err := svc.Suggest(context.Background(), planQuery(t, query.Params{Text: "sneaker"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "sneaker" {
		t.Fatalf("expected the matching product only, got %+v", got)
	}
	if cache.sets != 0 {
		t.Errorf("suggestions must not be cached, got %d sets", cache.sets)
	}
}

func TestSuggest_FallbackForUnmatchedKeyword(t *testing.T) {
	repo := &mockRepo{text: products("p1")}
	svc := newTestService(repo, newMockCache())

	got, err := svc.Suggest(context.Background(), planQuery(t, query.Params{Text: "sneaker"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.textCalls != 1 {
		t.Fatalf("expected one fallback call, got %d", repo.textCalls)
	}
	if len(got) != 1 {
		t.Errorf("expected one suggestion, got %+v", got)
	}
}

func TestUpsertProducts_PurgesCache(t *testing.T) {
	repo := &mockRepo{broad: products("p1"), broadCount: 1}
	cache := newMockCache()
	ingest := &mockIngestor{}
	svc := New(repo, &mockCatalog{}, ingest, cache, newTestRanker(), time.Minute)

	if _, _, err := svc.Search(context.Background(), planQuery(t, query.Params{})); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UpsertProducts(context.Background(), products("p2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cache.purged {
		t.Error("upsert must purge the result cache")
	}
	if len(ingest.upserted) != 1 || ingest.upserted[0].ID != "p2" {
		t.Errorf("unexpected ingested products: %+v", ingest.upserted)
	}
}

func TestDeleteProduct_PurgesCache(t *testing.T) {
	cache := newMockCache()
	ingest := &mockIngestor{}
	svc := New(&mockRepo{}, &mockCatalog{}, ingest, cache, newTestRanker(), time.Minute)

	if err := svc.DeleteProduct(context.Background(), "p1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ingest.deleted != "p1" {
		t.Errorf("expected p1 to be deleted, got %q", ingest.deleted)
	}
	if !cache.purged {
		t.Error("delete must purge the result cache")
	}
}

func TestDeleteProduct_ErrorSkipsPurge(t *testing.T) {
	cache := newMockCache()
	ingest := &mockIngestor{err: domain.ErrNotFound}
	svc := New(&mockRepo{}, &mockCatalog{}, ingest, cache, newTestRanker(), time.Minute)

	err := svc.DeleteProduct(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if cache.purged {
		t.Error("a failed delete must not purge the cache")
	}
}

func TestInvalidateCache(t *testing.T) {
	cache := newMockCache()
	svc := newTestService(&mockRepo{}, cache)

	svc.InvalidateCache()
	if !cache.purged {
		t.Error("expected a purge")
	}
}
