package search

import "sort"

// DefaultRRFK is the standard RRF damping constant. k=60 keeps rank
// differences among top results more significant than the long tail of
// lower-ranked candidates.
const DefaultRRFK = 60

// FusionWeights holds the per-signal weights used when fusing exactly two
// lists (semantic, keyword).
type FusionWeights struct {
	Semantic float64
	Keyword  float64
}

// DefaultFusionWeights favors the semantic signal 60/40.
func DefaultFusionWeights() FusionWeights {
	return FusionWeights{Semantic: 0.6, Keyword: 0.4}
}

// FusedResult is one entry in the combined ranking produced by FuseRRF.
type FusedResult struct {
	ContractID string
	Score      float64 // Combined RRF score
	BestRank   int     // Lowest (best) rank across the input lists
}

// FuseRRF merges ranked lists into a single ranking using Reciprocal Rank
// Fusion:
//
//	score(d) = Σ over lists containing d of weight_i / (k + rank_i)
//
// A record missing from a list simply contributes nothing for that list.
// If k is not positive it defaults to DefaultRRFK. weights must be the same
// length as lists; a nil weights slice means every list weighs 1.0.
//
// Output ordering is fully deterministic: combined score descending, then
// best single-list rank ascending, then contract ID ascending. FuseRRF is a
// pure function with no I/O.
func FuseRRF(lists []RankedList, weights []float64, k int) []FusedResult {
	if k <= 0 {
		k = DefaultRRFK
	}

	merged := make(map[string]*FusedResult, 16)
	for i, list := range lists {
		weight := 1.0
		if weights != nil && i < len(weights) {
			weight = weights[i]
		}
		for _, item := range list {
			entry, ok := merged[item.ContractID]
			if !ok {
				entry = &FusedResult{
					ContractID: item.ContractID,
					BestRank:   item.Rank,
				}
				merged[item.ContractID] = entry
			}
			entry.Score += weight / float64(k+item.Rank)
			if item.Rank < entry.BestRank {
				entry.BestRank = item.Rank
			}
		}
	}

	results := make([]FusedResult, 0, len(merged))
	for _, entry := range merged {
		results = append(results, *entry)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].BestRank != results[j].BestRank {
			return results[i].BestRank < results[j].BestRank
		}
		return results[i].ContractID < results[j].ContractID
	})

	return results
}
