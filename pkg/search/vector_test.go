package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEmbeddingStore serves canned embeddings keyed by tenant.
type fakeEmbeddingStore struct {
	embeddings map[string][]StoredEmbedding
	err        error
}

func (f *fakeEmbeddingStore) ListEmbeddings(ctx context.Context, tenantID string) ([]StoredEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.embeddings[tenantID], nil
}

func (f *fakeEmbeddingStore) GetEmbedding(ctx context.Context, tenantID, contractID string) (*StoredEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, emb := range f.embeddings[tenantID] {
		if emb.ContractID == contractID {
			e := emb
			return &e, nil
		}
	}
	return nil, &Error{Op: "GetEmbedding", Err: ErrRecordNotFound, Msg: contractID}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float64
		ok       bool
	}{
		{
			name:     "identical vectors",
			a:        []float32{1, 2, 3},
			b:        []float32{1, 2, 3},
			expected: 1.0,
			ok:       true,
		},
		{
			name:     "orthogonal vectors",
			a:        []float32{1, 0},
			b:        []float32{0, 1},
			expected: 0.0,
			ok:       true,
		},
		{
			name:     "opposite vectors",
			a:        []float32{1, 0},
			b:        []float32{-1, 0},
			expected: -1.0,
			ok:       true,
		},
		{
			name: "zero vector undefined",
			a:    []float32{0, 0},
			b:    []float32{1, 1},
			ok:   false,
		},
		{
			name: "dimension mismatch undefined",
			a:    []float32{1, 2},
			b:    []float32{1, 2, 3},
			ok:   false,
		},
		{
			name: "empty vectors undefined",
			a:    []float32{},
			b:    []float32{},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim, ok := Cosine(tt.a, tt.b)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.expected, sim, 1e-9)
			}
		})
	}
}

func TestVectorSearch_RanksBySimilarity(t *testing.T) {
	store := &fakeEmbeddingStore{embeddings: map[string][]StoredEmbedding{
		"tenant-1": {
			{ContractID: "far", Vector: []float32{0, 1}, Model: "m1"},
			{ContractID: "near", Vector: []float32{1, 0.1}, Model: "m1"},
			{ContractID: "exact", Vector: []float32{1, 0}, Model: "m1"},
		},
	}}

	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m1"})
	require.NoError(t, err)

	ranked, err := vs.Search(context.Background(), "tenant-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "exact", ranked[0].ContractID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.InDelta(t, 1.0, ranked[0].Score, 1e-6)
	assert.Equal(t, "near", ranked[1].ContractID)
	assert.Equal(t, "far", ranked[2].ContractID)
}

func TestVectorSearch_MissingEmbeddingsAbsentNotZero(t *testing.T) {
	// Only one contract has an embedding; the result list has one entry,
	// rather than padding other contracts with zero scores.
	store := &fakeEmbeddingStore{embeddings: map[string][]StoredEmbedding{
		"tenant-1": {
			{ContractID: "embedded", Vector: []float32{1, 0}, Model: "m1"},
		},
	}}

	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m1"})
	require.NoError(t, err)

	ranked, err := vs.Search(context.Background(), "tenant-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "embedded", ranked[0].ContractID)
}

func TestVectorSearch_SkipsOtherModelVersions(t *testing.T) {
	store := &fakeEmbeddingStore{embeddings: map[string][]StoredEmbedding{
		"tenant-1": {
			{ContractID: "current", Vector: []float32{1, 0}, Model: "m2"},
			{ContractID: "stale", Vector: []float32{1, 0}, Model: "m1"},
		},
	}}

	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m2"})
	require.NoError(t, err)

	ranked, err := vs.Search(context.Background(), "tenant-1", []float32{1, 0}, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "current", ranked[0].ContractID)
}

func TestVectorSearch_ExcludesZeroAndMismatchedVectors(t *testing.T) {
	store := &fakeEmbeddingStore{embeddings: map[string][]StoredEmbedding{
		"tenant-1": {
			{ContractID: "zero", Vector: []float32{0, 0}, Model: "m1"},
			{ContractID: "wrong-dim", Vector: []float32{1, 0, 0}, Model: "m1"},
			{ContractID: "good", Vector: []float32{0.5, 0.5}, Model: "m1"},
		},
	}}

	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m1"})
	require.NoError(t, err)

	ranked, err := vs.Search(context.Background(), "tenant-1", []float32{1, 1}, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "good", ranked[0].ContractID)
}

func TestVectorSearch_TopKTruncation(t *testing.T) {
	embeddings := make([]StoredEmbedding, 10)
	for i := range embeddings {
		embeddings[i] = StoredEmbedding{
			ContractID: string(rune('a' + i)),
			Vector:     []float32{1, float32(i)},
			Model:      "m1",
		}
	}
	store := &fakeEmbeddingStore{embeddings: map[string][]StoredEmbedding{
		"tenant-1": embeddings,
	}}

	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m1"})
	require.NoError(t, err)

	ranked, err := vs.Search(context.Background(), "tenant-1", []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].ContractID)
}

func TestVectorSearch_EmptyQueryVector(t *testing.T) {
	store := &fakeEmbeddingStore{}
	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m1"})
	require.NoError(t, err)

	_, err = vs.Search(context.Background(), "tenant-1", nil, 10)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestVectorSearch_StoreFailure(t *testing.T) {
	store := &fakeEmbeddingStore{err: assert.AnError}
	vs, err := NewVectorSearch(VectorSearchConfig{Store: store, Model: "m1"})
	require.NoError(t, err)

	_, err = vs.Search(context.Background(), "tenant-1", []float32{1}, 10)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
