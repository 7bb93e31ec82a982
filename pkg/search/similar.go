package search

import (
	"context"
	"errors"
)

// FindSimilar returns the contracts most similar to an existing contract,
// using its stored embedding as the query vector. The source contract itself
// is never part of the result list.
//
// Returns an error wrapping ErrRecordNotFound when the contract does not
// exist or has no embedding yet; that case is user-visible and distinct from
// an empty result set.
func (s *Searcher) FindSimilar(ctx context.Context, tenantID, contractID string, limit int) ([]Result, error) {
	limit = clampLimit(limit)

	emb, err := s.vector.store.GetEmbedding(ctx, tenantID, contractID)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			return nil, &Error{Op: "FindSimilar", Err: ErrRecordNotFound, Msg: contractID}
		}
		return nil, &Error{Op: "FindSimilar", Err: ErrStoreUnavailable, Msg: err.Error()}
	}

	// One extra candidate to absorb the source contract, which always
	// scores 1.0 against itself.
	ranked, err := s.vector.Search(ctx, tenantID, emb.Vector, limit+1)
	if err != nil {
		return nil, err
	}

	filtered := make(RankedList, 0, len(ranked))
	for _, item := range ranked {
		if item.ContractID == contractID {
			continue
		}
		filtered = append(filtered, item)
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	results, err := s.materialize(ctx, Request{TenantID: tenantID, Limit: limit},
		filtered, MatchSemantic, rawScores(filtered))
	if err != nil {
		return nil, err
	}

	s.logger.Debug("similarity lookup completed",
		"tenant_id", tenantID,
		"contract_id", contractID,
		"results", len(results),
	)

	return results, nil
}
