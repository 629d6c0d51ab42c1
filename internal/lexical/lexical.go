// Package lexical provides string-similarity primitives for suggestion
// ranking.
package lexical

// Distance computes the Levenshtein edit distance between a and b:
// the minimum number of single-rune insertions, deletions and
// substitutions (unit cost each) turning a into b. Comparison is
// case-sensitive; callers pre-lowercase their inputs.
//
// Standard O(len(a)*len(b)) dynamic-programming table. Product names
// are short, so no banded variant is needed.
func Distance(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)

	dp := make([][]int, len(ra)+1)
	for i := range dp {
		dp[i] = make([]int, len(rb)+1)
		dp[i][0] = i
	}
	for j := 0; j <= len(rb); j++ {
		dp[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			dp[i][j] = min(dp[i-1][j]+1, dp[i][j-1]+1, dp[i-1][j-1]+cost)
		}
	}
	return dp[len(ra)][len(rb)]
}
