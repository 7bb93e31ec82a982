package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeKeywordIndex serves canned ranked lists per query and counts calls.
type fakeKeywordIndex struct {
	results map[string]RankedList
	err     error
	calls   int
}

func (f *fakeKeywordIndex) Index(ctx context.Context, doc *Document) error { return nil }

func (f *fakeKeywordIndex) Delete(ctx context.Context, tenantID, contractID string) error {
	return nil
}

func (f *fakeKeywordIndex) Search(ctx context.Context, tenantID, query string, limit int) (RankedList, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeKeywordIndex) Name() string { return "fake" }

// fakeRecordStore serves summaries and title suggestions from a fixed map.
type fakeRecordStore struct {
	summaries map[string]RecordSummary
	titles    []Suggestion
	err       error
}

func (f *fakeRecordStore) GetSummaries(ctx context.Context, tenantID string, ids []string) (map[string]RecordSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]RecordSummary)
	for _, id := range ids {
		if rec, ok := f.summaries[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (f *fakeRecordStore) SuggestTitles(ctx context.Context, tenantID, prefix string, limit int) ([]Suggestion, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.titles) > limit {
		return f.titles[:limit], nil
	}
	return f.titles, nil
}

// fakeEmbedder encodes queries from a fixed map and counts calls.
type fakeEmbedder struct {
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if vec, ok := f.vectors[query]; ok {
		return vec, nil
	}
	return []float32{1, 0}, nil
}

// testCorpus is the three-contract fixture: an MSA, an NDA, and a SaaS
// agreement, with 2-dimension embeddings chosen so similarity relationships
// are obvious.
type testCorpus struct {
	keyword  *fakeKeywordIndex
	embStore *fakeEmbeddingStore
	records  *fakeRecordStore
	embedder *fakeEmbedder
}

const (
	msaID  = "11111111-0000-0000-0000-000000000001"
	ndaID  = "11111111-0000-0000-0000-000000000002"
	saasID = "11111111-0000-0000-0000-000000000003"
)

func newTestCorpus() *testCorpus {
	return &testCorpus{
		keyword: &fakeKeywordIndex{results: map[string]RankedList{
			"software development": {
				{ContractID: msaID, Rank: 1, Score: 2.4},
				{ContractID: saasID, Rank: 2, Score: 0.7},
			},
			"agreement": {
				{ContractID: saasID, Rank: 1, Score: 1.9},
				{ContractID: ndaID, Rank: 2, Score: 1.1},
				{ContractID: msaID, Rank: 3, Score: 0.8},
			},
		}},
		embStore: &fakeEmbeddingStore{embeddings: map[string][]StoredEmbedding{
			"tenant-1": {
				{ContractID: msaID, Vector: []float32{1, 0}, Model: "mock-embed-v1"},
				{ContractID: ndaID, Vector: []float32{0, 1}, Model: "mock-embed-v1"},
				{ContractID: saasID, Vector: []float32{0.7, 0.7}, Model: "mock-embed-v1"},
			},
		}},
		records: &fakeRecordStore{summaries: map[string]RecordSummary{
			msaID:  {ContractID: msaID, Title: "Software Development MSA", ContractType: "msa", Status: "active"},
			ndaID:  {ContractID: ndaID, Title: "Mutual NDA", ContractType: "nda", Status: "active"},
			saasID: {ContractID: saasID, Title: "SaaS Subscription Agreement", ContractType: "saas", Status: "draft"},
		}},
		embedder: &fakeEmbedder{vectors: map[string][]float32{
			// Close to the NDA's embedding.
			"confidentiality obligations": {0.1, 1},
			// Closest to the MSA, then the SaaS agreement.
			"agreement": {1, 0.2},
		}},
	}
}

func (c *testCorpus) newSearcher(t *testing.T, opts ...func(*SearcherConfig)) *Searcher {
	t.Helper()

	vector, err := NewVectorSearch(VectorSearchConfig{Store: c.embStore, Model: "mock-embed-v1"})
	require.NoError(t, err)

	cfg := SearcherConfig{
		Keyword:  c.keyword,
		Vector:   vector,
		Records:  c.records,
		Embedder: c.embedder,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s, err := NewSearcher(cfg)
	require.NoError(t, err)
	return s
}

func TestSearch_KeywordMode(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "software development",
		Mode:     ModeKeyword,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Software Development MSA", resp.Results[0].Title)
	assert.Equal(t, MatchKeyword, resp.Results[0].MatchType)
	assert.Equal(t, ModeKeyword, resp.Mode)
	assert.False(t, resp.Degraded)

	// Keyword mode never consults the embedding provider.
	assert.Zero(t, corpus.embedder.calls)
}

func TestSearch_SemanticMode(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "confidentiality obligations",
		Mode:     ModeSemantic,
	})
	require.NoError(t, err)

	// The query embedding is closest to the NDA even though those words do
	// not appear in its title.
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "Mutual NDA", resp.Results[0].Title)
	assert.Equal(t, MatchSemantic, resp.Results[0].MatchType)

	// Semantic mode never consults the keyword index.
	assert.Zero(t, corpus.keyword.calls)
}

func TestSearch_HybridMode(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
	})
	require.NoError(t, err)

	require.Len(t, resp.Results, 3)
	for _, r := range resp.Results {
		assert.Equal(t, MatchHybridRRF, r.MatchType)
	}

	// Semantic ranking for the "agreement" embedding is MSA, SaaS, NDA;
	// keyword ranking is SaaS, NDA, MSA. The fused order matches neither
	// single signal.
	gotIDs := []string{
		resp.Results[0].ContractID,
		resp.Results[1].ContractID,
		resp.Results[2].ContractID,
	}
	assert.NotEqual(t, []string{msaID, saasID, ndaID}, gotIDs)
	assert.NotEqual(t, []string{saasID, ndaID, msaID}, gotIDs)
	assert.Equal(t, []string{saasID, msaID, ndaID}, gotIDs)

	// Scores strictly non-increasing.
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, resp.Results[i-1].Score, resp.Results[i].Score)
	}
}

func TestSearch_DefaultsToHybrid(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
	})
	require.NoError(t, err)
	assert.Equal(t, ModeHybrid, resp.Mode)
}

func TestSearch_UnknownModeRejected(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	_, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     "fuzzy",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, corpus.keyword.calls)
	assert.Zero(t, corpus.embedder.calls)
}

func TestSearch_EmptyQueryShortCircuits(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	for _, query := range []string{"", "   ", "\t\n"} {
		resp, err := s.Search(context.Background(), Request{
			TenantID: "tenant-1",
			Query:    query,
			Mode:     ModeHybrid,
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Results)
		assert.Zero(t, resp.Total)
	}

	assert.Zero(t, corpus.keyword.calls)
	assert.Zero(t, corpus.embedder.calls)
}

func TestSearch_LimitClamping(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{"zero uses default", 0, DefaultLimit},
		{"negative uses default", -5, DefaultLimit},
		{"in range preserved", 10, 10},
		{"above max clamped", 10000, MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clampLimit(tt.limit))
		})
	}
}

func TestSearch_LimitTruncatesResults(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
		Limit:    2,
	})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
}

func TestSearch_HybridDegradesWhenEmbedderFails(t *testing.T) {
	corpus := newTestCorpus()
	corpus.embedder.err = assert.AnError
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
	})
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	require.Len(t, resp.Results, 3)
	// Keyword ordering, keyword match type: SaaS first.
	assert.Equal(t, saasID, resp.Results[0].ContractID)
	assert.Equal(t, MatchKeyword, resp.Results[0].MatchType)
}

func TestSearch_SemanticDegradesToEmptyWhenEmbedderFails(t *testing.T) {
	corpus := newTestCorpus()
	corpus.embedder.err = assert.AnError
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeSemantic,
	})
	require.NoError(t, err)

	assert.True(t, resp.Degraded)
	assert.Empty(t, resp.Results)
}

func TestSearch_EmbedderTimeoutDegrades(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t, func(cfg *SearcherConfig) {
		cfg.EmbedTimeout = 10 * time.Millisecond
		cfg.Embedder = slowEmbedder{delay: 200 * time.Millisecond}
	})

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
	})
	require.NoError(t, err)
	assert.True(t, resp.Degraded)
}

type slowEmbedder struct {
	delay time.Duration
}

func (s slowEmbedder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	select {
	case <-time.After(s.delay):
		return []float32{1, 0}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestSearch_HybridFailsWhenKeywordIndexDown(t *testing.T) {
	corpus := newTestCorpus()
	corpus.keyword.err = assert.AnError
	s := corpus.newSearcher(t)

	_, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSearch_HybridFailsWhenBothSignalsDown(t *testing.T) {
	corpus := newTestCorpus()
	corpus.keyword.err = assert.AnError
	corpus.embedder.err = assert.AnError
	s := corpus.newSearcher(t)

	_, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
	})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSearch_FiltersApplyAfterRanking(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeHybrid,
		Filters:  []Filter{{Field: "status", Op: OpEq, Value: "active"}},
	})
	require.NoError(t, err)

	// The SaaS agreement is the top fused hit but is in draft status, so
	// it is filtered out and the remaining order is preserved.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, msaID, resp.Results[0].ContractID)
	assert.Equal(t, ndaID, resp.Results[1].ContractID)
}

func TestSearch_InvalidFilterRejectedBeforeIO(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t)

	_, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Filters:  []Filter{{Field: "secret", Op: OpEq, Value: "x"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, corpus.keyword.calls)
}

func TestSearch_VanishedRecordsDropped(t *testing.T) {
	corpus := newTestCorpus()
	// The record behind the top keyword hit is gone from the store.
	delete(corpus.records.summaries, saasID)
	s := corpus.newSearcher(t)

	resp, err := s.Search(context.Background(), Request{
		TenantID: "tenant-1",
		Query:    "agreement",
		Mode:     ModeKeyword,
	})
	require.NoError(t, err)

	for _, r := range resp.Results {
		assert.NotEqual(t, saasID, r.ContractID)
	}
}

func TestSearch_CacheServesRepeatQueries(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t, func(cfg *SearcherConfig) {
		cfg.CacheTTL = time.Minute
	})

	req := Request{TenantID: "tenant-1", Query: "agreement", Mode: ModeKeyword}

	first, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.keyword.calls)

	second, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, corpus.keyword.calls, "repeat query should be served from cache")
	assert.Equal(t, first.Results, second.Results)

	// Mutating a cached response must not poison the cache.
	second.Results[0].Title = "mutated"
	third, err := s.Search(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", third.Results[0].Title)
}

func TestSearch_CacheIsTenantScoped(t *testing.T) {
	corpus := newTestCorpus()
	s := corpus.newSearcher(t, func(cfg *SearcherConfig) {
		cfg.CacheTTL = time.Minute
	})

	_, err := s.Search(context.Background(), Request{TenantID: "tenant-1", Query: "agreement", Mode: ModeKeyword})
	require.NoError(t, err)
	_, err = s.Search(context.Background(), Request{TenantID: "tenant-2", Query: "agreement", Mode: ModeKeyword})
	require.NoError(t, err)

	assert.Equal(t, 2, corpus.keyword.calls, "different tenants must not share cache entries")
}

func TestNewSearcher_RequiredFields(t *testing.T) {
	corpus := newTestCorpus()
	vector, err := NewVectorSearch(VectorSearchConfig{Store: corpus.embStore, Model: "mock-embed-v1"})
	require.NoError(t, err)

	_, err = NewSearcher(SearcherConfig{})
	assert.Error(t, err)

	_, err = NewSearcher(SearcherConfig{Keyword: corpus.keyword, Vector: vector, Records: corpus.records})
	assert.Error(t, err)

	s, err := NewSearcher(SearcherConfig{
		Keyword:  corpus.keyword,
		Vector:   vector,
		Records:  corpus.records,
		Embedder: corpus.embedder,
	})
	require.NoError(t, err)
	assert.Equal(t, DefaultFusionWeights(), s.weights)
	assert.Equal(t, DefaultRRFK, s.rrfK)
}
