package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/kailas-cloud/shopdex/internal/domain"
)

// Hash field names; these double as FT schema attribute names.
const (
	fieldName        = "name"
	fieldDescription = "description"
	fieldCategory    = "category"
	fieldTags        = "tags"
	fieldImages      = "images"
	fieldPrice       = "price"
	fieldNumSales    = "num_sales"
	fieldAvgRating   = "avg_rating"
	fieldCreatedAt   = "created_at"
)

// imageSep joins image URLs in a single hash field. Commas appear in
// data URLs, so a pipe is used instead.
const imageSep = "|"

func encodeProduct(p *domain.ProductSummary) map[string]string {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return map[string]string{
		fieldName:        p.Name,
		fieldDescription: p.Description,
		fieldCategory:    p.Category,
		fieldTags:        strings.Join(p.Tags, ","),
		fieldImages:      strings.Join(p.Images, imageSep),
		fieldPrice:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		fieldNumSales:    strconv.Itoa(p.NumSales),
		fieldAvgRating:   strconv.FormatFloat(p.AvgRating, 'f', -1, 64),
		fieldCreatedAt:   strconv.FormatInt(created.Unix(), 10),
	}
}

func decodeProduct(id string, fields map[string]string) domain.ProductSummary {
	p := domain.ProductSummary{
		ID:          id,
		Name:        fields[fieldName],
		Description: fields[fieldDescription],
		Category:    fields[fieldCategory],
	}
	if v := fields[fieldTags]; v != "" {
		p.Tags = strings.Split(v, ",")
	}
	if v := fields[fieldImages]; v != "" {
		p.Images = strings.Split(v, imageSep)
	}
	if f, err := strconv.ParseFloat(fields[fieldPrice], 64); err == nil {
		p.Price = f
	}
	if n, err := strconv.Atoi(fields[fieldNumSales]); err == nil {
		p.NumSales = n
	}
	if f, err := strconv.ParseFloat(fields[fieldAvgRating], 64); err == nil {
		p.AvgRating = f
	}
	if sec, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64); err == nil {
		p.CreatedAt = time.Unix(sec, 0).UTC()
	}
	return p
}
