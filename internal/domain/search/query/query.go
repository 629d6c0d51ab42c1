// Package query turns raw, possibly malformed user-supplied search
// parameters into a validated, strongly-typed query. It is the single
// source of truth for parameter normalization and never touches the
// repository or cache.
package query

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/sortkey"
)

// Normalization limits.
const (
	// Wildcard marks a string parameter as "no filter".
	Wildcard = "all"
	// MinTextLength is the shortest text term that triggers keyword
	// matching; anything shorter is treated as a broad browse.
	MinTextLength   = 3
	DefaultPageSize = 12
	MaxPageSize     = 60
	MaxRating       = 5
)

// Params holds the raw request parameters exactly as supplied by the
// caller. Empty strings mean "not provided".
type Params struct {
	Text     string
	Category string
	Tag      string
	Price    string // "<min>-<max>"
	Rating   string
	Sort     string
	Page     string
	PageSize string
}

// PriceRange is an inclusive price band.
type PriceRange struct {
	Min float64
	Max float64
}

// Query is a validated search query.
// Invariants: Page() >= 1, PageSize() >= 1, and when a price range is
// present, Min <= Max.
type Query struct {
	text       string
	category   string
	tag        string
	priceRange *PriceRange
	minRating  *float64
	sort       sortkey.Key
	page       int
	pageSize   int
}

// Plan validates and normalizes raw parameters into a Query.
// Missing or "all" string fields become wildcards; malformed price and
// rating values are rejected with domain.ErrInvalidQuery rather than
// silently corrected. The only documented clamps are page (minimum 1)
// and page size (default/maximum bounds).
func Plan(p Params) (Query, error) {
	q := Query{
		text:     strings.TrimSpace(p.Text),
		category: normalizeField(p.Category),
		tag:      normalizeField(p.Tag),
		sort:     sortkey.Parse(strings.TrimSpace(p.Sort)),
		pageSize: DefaultPageSize,
		page:     1,
	}
	if strings.EqualFold(q.text, Wildcard) {
		q.text = ""
	}

	pr, err := parsePrice(p.Price)
	if err != nil {
		return Query{}, err
	}
	q.priceRange = pr

	mr, err := parseRating(p.Rating)
	if err != nil {
		return Query{}, err
	}
	q.minRating = mr

	if raw := strings.TrimSpace(p.Page); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Query{}, domain.NewInvalidQuery("page", "must be an integer, got %q", raw)
		}
		if n > 1 {
			q.page = n
		}
	}

	if raw := strings.TrimSpace(p.PageSize); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Query{}, domain.NewInvalidQuery("pageSize", "must be an integer, got %q", raw)
		}
		switch {
		case n < 1:
			q.pageSize = DefaultPageSize
		case n > MaxPageSize:
			q.pageSize = MaxPageSize
		default:
			q.pageSize = n
		}
	}

	return q, nil
}

func normalizeField(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, Wildcard) {
		return ""
	}
	return s
}

func parsePrice(raw string) (*PriceRange, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, Wildcard) {
		return nil, nil
	}

	lo, hi, ok := strings.Cut(raw, "-")
	if !ok {
		return nil, domain.NewInvalidQuery("price", "must be of the form <min>-<max>, got %q", raw)
	}
	minVal, err := strconv.ParseFloat(strings.TrimSpace(lo), 64)
	if err != nil {
		return nil, domain.NewInvalidQuery("price", "minimum %q is not numeric", lo)
	}
	maxVal, err := strconv.ParseFloat(strings.TrimSpace(hi), 64)
	if err != nil {
		return nil, domain.NewInvalidQuery("price", "maximum %q is not numeric", hi)
	}
	if minVal > maxVal {
		return nil, domain.NewInvalidQuery("price", "minimum %g exceeds maximum %g", minVal, maxVal)
	}
	return &PriceRange{Min: minVal, Max: maxVal}, nil
}

func parseRating(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, Wildcard) {
		return nil, nil
	}

	r, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, domain.NewInvalidQuery("rating", "%q is not numeric", raw)
	}
	if r < 0 || r > MaxRating {
		return nil, domain.NewInvalidQuery("rating", "must be between 0 and %d, got %g", MaxRating, r)
	}
	return &r, nil
}

// Text returns the trimmed free-text term ("" when absent).
func (q *Query) Text() string { return q.text }

// Category returns the category filter ("" = unfiltered).
func (q *Query) Category() string { return q.category }

// Tag returns the tag filter ("" = unfiltered).
func (q *Query) Tag() string { return q.tag }

// PriceRange returns the inclusive price band (nil = unfiltered).
func (q *Query) PriceRange() *PriceRange { return q.priceRange }

// MinRating returns the rating floor (nil = unfiltered).
func (q *Query) MinRating() *float64 { return q.minRating }

// Sort returns the sort order.
func (q *Query) Sort() sortkey.Key { return q.sort }

// Page returns the 1-based page number.
func (q *Query) Page() int { return q.page }

// PageSize returns the page size.
func (q *Query) PageSize() int { return q.pageSize }

// Offset returns the number of products to skip for this page.
func (q *Query) Offset() int { return (q.page - 1) * q.pageSize }

// HasTextQuery reports whether the text term is substantial enough for
// keyword matching. Blank or sub-threshold terms drive a broad browse
// over structured filters only.
func (q *Query) HasTextQuery() bool {
	return len([]rune(q.text)) >= MinTextLength
}
