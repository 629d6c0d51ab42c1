package search

import (
	"sort"
	"strings"

	"github.com/kailas-cloud/shopdex/internal/domain"
	"github.com/kailas-cloud/shopdex/internal/domain/search/result"
	"github.com/kailas-cloud/shopdex/internal/lexical"
)

// Weights holds the suggestion scoring constants. The values are
// empirically tuned; keeping them here lets deployments adjust ranking
// without touching the algorithm.
type Weights struct {
	// Substring is added when the product name contains the term.
	Substring float64 `yaml:"substring"`
	// Prefix is added when the product name starts with the term.
	Prefix float64 `yaml:"prefix"`
	// TokenPrefix is added when any whitespace-delimited word of the
	// name starts with the term.
	TokenPrefix float64 `yaml:"token_prefix"`
	// Fuzzy is added when the edit distance between name and term is
	// at most FuzzyMaxDistance.
	Fuzzy            float64 `yaml:"fuzzy"`
	FuzzyMaxDistance int     `yaml:"fuzzy_max_distance"`
	// SalesCap/SalesDivisor shape the popularity bonus:
	// min(numSales, SalesCap) / SalesDivisor.
	SalesCap     float64 `yaml:"sales_cap"`
	SalesDivisor float64 `yaml:"sales_divisor"`
	// RatingFactor scales the average rating into a bonus.
	RatingFactor float64 `yaml:"rating_factor"`
	// MaxSuggestions truncates the ranked list.
	MaxSuggestions int `yaml:"max_suggestions"`
}

// DefaultWeights returns the production scoring constants.
func DefaultWeights() Weights {
	return Weights{
		Substring:        5,
		Prefix:           3,
		TokenPrefix:      2,
		Fuzzy:            1,
		FuzzyMaxDistance: 2,
		SalesCap:         100,
		SalesDivisor:     50,
		RatingFactor:     0.5,
		MaxSuggestions:   10,
	}
}

// Ranker scores candidate products against a typed-ahead query.
// Marketplace-style bias: exact and near-exact name matches first,
// popularity and rating breaking ties toward better-selling products.
type Ranker struct {
	weights  Weights
	synonyms map[string][]string
}

// NewRanker creates a ranker. synonyms maps an exact query string to
// alternative terms that expand it (e.g. "shoes" -> ["sneaker"]).
func NewRanker(w Weights, synonyms map[string][]string) *Ranker {
	return &Ranker{weights: w, synonyms: synonyms}
}

// Rank scores and orders candidates against the query, dropping
// non-matches (score <= 0) and truncating to MaxSuggestions. The sort
// is stable: ties keep the candidates' original order. A blank query
// yields no suggestions.
func (r *Ranker) Rank(rawQuery string, candidates []domain.ProductSummary) []result.Suggestion {
	q := strings.ToLower(strings.TrimSpace(rawQuery))
	if q == "" {
		return nil
	}

	terms := r.expand(q)

	scored := make([]result.Suggestion, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		score := r.scoreName(strings.ToLower(p.Name), terms)
		score += min(float64(p.NumSales), r.weights.SalesCap) / r.weights.SalesDivisor
		score += p.AvgRating * r.weights.RatingFactor

		if score <= 0 {
			continue
		}
		scored = append(scored, result.Suggestion{
			ID:    p.ID,
			Name:  p.Name,
			Image: p.FirstImage(),
			Score: score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > r.weights.MaxSuggestions {
		scored = scored[:r.weights.MaxSuggestions]
	}
	return scored
}

// expand builds the term expansion set: the query itself, its singular
// form when it ends in 's', and any registered synonyms.
func (r *Ranker) expand(q string) []string {
	seen := map[string]struct{}{q: {}}
	terms := []string{q}

	add := func(t string) {
		if _, ok := seen[t]; ok || t == "" {
			return
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}

	if strings.HasSuffix(q, "s") {
		add(strings.TrimSuffix(q, "s"))
	}
	for _, syn := range r.synonyms[q] {
		add(strings.ToLower(syn))
	}
	return terms
}

// scoreName sums the lexical bonuses over every expansion term. The
// four bonuses are independent: a name can collect all of them for one
// term.
func (r *Ranker) scoreName(name string, terms []string) float64 {
	var score float64
	for _, term := range terms {
		if strings.Contains(name, term) {
			score += r.weights.Substring
		}
		if strings.HasPrefix(name, term) {
			score += r.weights.Prefix
		}
		for _, word := range strings.Fields(name) {
			if strings.HasPrefix(word, term) {
				score += r.weights.TokenPrefix
				break
			}
		}
		if lexical.Distance(name, term) <= r.weights.FuzzyMaxDistance {
			score += r.weights.Fuzzy
		}
	}
	return score
}
