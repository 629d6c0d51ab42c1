package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	searchCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopdex",
		Name:      "search_cache_hits_total",
		Help:      "Result pages served from the in-process cache",
	})

	searchCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopdex",
		Name:      "search_cache_misses_total",
		Help:      "Searches that had to hit the repository",
	})

	searchTextFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shopdex",
		Name:      "search_text_fallbacks_total",
		Help:      "Searches that fell back to full-text matching",
	})
)

func init() {
	prometheus.MustRegister(searchCacheHits)
	prometheus.MustRegister(searchCacheMisses)
	prometheus.MustRegister(searchTextFallbacks)
}

// SearchObserver feeds search service events into Prometheus counters.
// It satisfies the search usecase Observer interface.
type SearchObserver struct{}

// CacheHit counts a page served from cache.
func (SearchObserver) CacheHit() { searchCacheHits.Inc() }

// CacheMiss counts a search that reached the repository.
func (SearchObserver) CacheMiss() { searchCacheMisses.Inc() }

// TextFallback counts a broad browse that fell back to text search.
func (SearchObserver) TextFallback() { searchTextFallbacks.Inc() }
