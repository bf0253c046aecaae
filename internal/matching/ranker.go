package matching

import "sort"

// Candidate is a vector to rank against a query.
type Candidate struct {
	ID     string
	Vector []float32
}

// Ranked is a scored candidate. Index is the candidate's position in the
// input slice.
type Ranked struct {
	ID    string
	Index int
	Score float64
}

// Rank scores every candidate against query, sorts by score descending with
// ties kept in input order, and returns at most k entries. k <= 0 returns all.
func Rank(query []float32, candidates []Candidate, k int) []Ranked {
	ranked := make([]Ranked, len(candidates))
	for i, c := range candidates {
		ranked[i] = Ranked{ID: c.ID, Index: i, Score: Score(Cosine(query, c.Vector))}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
