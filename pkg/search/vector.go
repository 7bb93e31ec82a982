package search

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// VectorSearch ranks a tenant's stored contract embeddings by cosine
// similarity to a query vector.
type VectorSearch struct {
	store  EmbeddingStore
	model  string
	logger hclog.Logger
}

// VectorSearchConfig holds configuration for vector search.
type VectorSearchConfig struct {
	Store  EmbeddingStore
	Model  string // Embedding model identifier stored vectors must match
	Logger hclog.Logger
}

// NewVectorSearch creates a new vector search instance.
func NewVectorSearch(config VectorSearchConfig) (*VectorSearch, error) {
	if config.Store == nil {
		return nil, fmt.Errorf("embedding store is required")
	}
	if config.Model == "" {
		return nil, fmt.Errorf("embedding model is required")
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	return &VectorSearch{
		store:  config.Store,
		model:  config.Model,
		logger: config.Logger.Named("vector-search"),
	}, nil
}

// Search scores every stored embedding in the tenant scope against the query
// vector and returns the topK most similar, best-first. Contracts without an
// embedding are absent from the list, not scored as zero. Embeddings tagged
// with a different model than the query-time model are skipped: cosine
// similarity across model versions is meaningless.
func (v *VectorSearch) Search(ctx context.Context, tenantID string, queryVec []float32, topK int) (RankedList, error) {
	if len(queryVec) == 0 {
		return nil, &Error{Op: "VectorSearch", Err: ErrInvalidInput, Msg: "empty query vector"}
	}
	if topK <= 0 {
		topK = 100
	}

	stored, err := v.store.ListEmbeddings(ctx, tenantID)
	if err != nil {
		return nil, &Error{Op: "VectorSearch", Err: ErrStoreUnavailable, Msg: err.Error()}
	}

	type scored struct {
		id    string
		score float64
	}
	candidates := make([]scored, 0, len(stored))
	skippedModel := 0
	for _, emb := range stored {
		if emb.Model != v.model {
			skippedModel++
			continue
		}
		if len(emb.Vector) != len(queryVec) {
			continue
		}
		sim, ok := Cosine(queryVec, emb.Vector)
		if !ok {
			// Zero-magnitude vector; exclude rather than divide by zero.
			continue
		}
		candidates = append(candidates, scored{id: emb.ContractID, score: sim})
	}

	if skippedModel > 0 {
		v.logger.Warn("skipped embeddings from a different model version",
			"tenant_id", tenantID,
			"expected_model", v.model,
			"skipped", skippedModel,
		)
	}

	// Stable keeps first-seen order for equal similarities.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	ranked := make(RankedList, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedItem{ContractID: c.id, Rank: i + 1, Score: c.score}
	}

	v.logger.Debug("vector search completed",
		"tenant_id", tenantID,
		"candidates", len(stored),
		"ranked", len(ranked),
	)

	return ranked, nil
}

// Cosine returns the cosine similarity dot(a,b)/(|a|*|b|) of two vectors.
// The second return value is false when either vector has zero magnitude or
// the dimensions differ, in which case no similarity is defined.
func Cosine(a, b []float32) (float64, bool) {
	if len(a) != len(b) || len(a) == 0 {
		return 0, false
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, false
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), true
}
