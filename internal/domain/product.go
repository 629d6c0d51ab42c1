package domain

import "time"

// ProductSummary is the read-only catalog snapshot served by search.
// The search core never mutates it; the catalog repository owns the data.
type ProductSummary struct {
	ID          string
	Name        string
	Images      []string
	Price       float64
	Category    string
	Tags        []string
	Description string
	NumSales    int
	AvgRating   float64
	CreatedAt   time.Time
}

// FirstImage returns the primary thumbnail URL, or "" when the product
// has no images.
func (p *ProductSummary) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}
