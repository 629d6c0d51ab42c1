package sortkey

// Key is the catalog sort order.
type Key string

// Supported sort orders.
const (
	PriceAsc    Key = "price-asc"
	PriceDesc   Key = "price-desc"
	Newest      Key = "newest"
	BestSelling Key = "best-selling"
)

// Default is the sort order used when the caller supplies nothing
// recognizable.
const Default = Newest

// IsValid checks if the key is one of the supported values.
func (k Key) IsValid() bool {
	return k == PriceAsc || k == PriceDesc || k == Newest || k == BestSelling
}

// Parse maps a raw sort parameter to a Key, falling back to Default for
// blank or unrecognized input.
func Parse(raw string) Key {
	k := Key(raw)
	if !k.IsValid() {
		return Default
	}
	return k
}
