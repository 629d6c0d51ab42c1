package result

import "github.com/kailas-cloud/shopdex/internal/domain"

// Page is one paginated slice of a search result set.
// Invariants: TotalPages == ceil(TotalProducts/pageSize) and
// To-From+1 == len(Products); From and To are both zero for an empty page.
type Page struct {
	Products      []domain.ProductSummary
	TotalProducts int
	TotalPages    int
	From          int
	To            int
}

// NewPage assembles a Page for the given 1-based page number, computing
// the totals and the 1-based inclusive From/To index range.
func NewPage(products []domain.ProductSummary, total, page, pageSize int) Page {
	p := Page{
		Products:      products,
		TotalProducts: total,
		TotalPages:    (total + pageSize - 1) / pageSize,
	}
	if len(products) > 0 {
		p.From = (page-1)*pageSize + 1
		p.To = (page-1)*pageSize + len(products)
	}
	return p
}

// Suggestion is a single typed-ahead hit: a lightweight product
// reference plus the ranker's score.
type Suggestion struct {
	ID    string
	Name  string
	Image string
	Score float64
}
