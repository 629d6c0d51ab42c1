package db

// SearchQuery is the input for a filtered, sorted, paginated FT.SEARCH.
// Query is a complete FT query string; callers are responsible for
// escaping user input via EscapeTag/EscapeQuery.
type SearchQuery struct {
	Index        string
	Query        string
	SortBy       string // field name for SORTBY; "" keeps score order
	SortDesc     bool
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
