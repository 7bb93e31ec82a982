package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultLimit is used when a request leaves the limit unset or
	// non-positive.
	DefaultLimit = 20

	// MaxLimit is the documented ceiling; larger requests are clamped.
	MaxLimit = 100

	// candidateLimit is how many candidates each signal contributes before
	// fusion. Larger than any result limit so fusion has material to work
	// with.
	candidateLimit = 100

	// defaultEmbedTimeout bounds the query-embedding call. Past it the
	// orchestrator treats the embedding provider as failed and degrades
	// instead of hanging the request.
	defaultEmbedTimeout = 5 * time.Second
)

// QueryEmbedder encodes query text into an embedding vector. Implemented by
// pkg/embed providers via a thin adapter.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, query string) ([]float32, error)
}

// Searcher is the hybrid search orchestrator: the public entry point for
// keyword, semantic, and hybrid contract search, plus similarity lookup and
// title suggestions.
type Searcher struct {
	keyword  KeywordIndex
	vector   *VectorSearch
	records  RecordStore
	embedder QueryEmbedder

	weights      FusionWeights
	rrfK         int
	embedTimeout time.Duration
	cache        *resultCache
	logger       hclog.Logger
}

// SearcherConfig holds configuration for the orchestrator.
type SearcherConfig struct {
	Keyword  KeywordIndex
	Vector   *VectorSearch
	Records  RecordStore
	Embedder QueryEmbedder

	Weights      FusionWeights // Zero value means DefaultFusionWeights
	RRFK         int           // Zero means DefaultRRFK
	EmbedTimeout time.Duration // Zero means defaultEmbedTimeout
	CacheTTL     time.Duration // Zero disables the result cache
	CacheSize    int           // Entries; defaults to 512 when caching is on
	Logger       hclog.Logger
}

// NewSearcher creates a new hybrid search orchestrator.
func NewSearcher(config SearcherConfig) (*Searcher, error) {
	if config.Keyword == nil {
		return nil, fmt.Errorf("keyword index is required")
	}
	if config.Vector == nil {
		return nil, fmt.Errorf("vector search is required")
	}
	if config.Records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if config.Embedder == nil {
		return nil, fmt.Errorf("query embedder is required")
	}
	if config.Weights == (FusionWeights{}) {
		config.Weights = DefaultFusionWeights()
	}
	if config.RRFK <= 0 {
		config.RRFK = DefaultRRFK
	}
	if config.EmbedTimeout <= 0 {
		config.EmbedTimeout = defaultEmbedTimeout
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	s := &Searcher{
		keyword:      config.Keyword,
		vector:       config.Vector,
		records:      config.Records,
		embedder:     config.Embedder,
		weights:      config.Weights,
		rrfK:         config.RRFK,
		embedTimeout: config.EmbedTimeout,
		logger:       config.Logger.Named("hybrid-search"),
	}

	if config.CacheTTL > 0 {
		size := config.CacheSize
		if size <= 0 {
			size = 512
		}
		s.cache = newResultCache(size, config.CacheTTL)
	}

	return s, nil
}

// Request is one search call. TenantID must come from an authenticated
// context; every store query the orchestrator issues is scoped to it.
type Request struct {
	TenantID string
	Query    string
	Mode     Mode
	Filters  []Filter
	Limit    int
}

// Response is the bounded, ordered result set for one search call.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Mode    Mode     `json:"mode"`

	// Degraded is set when semantic ranking was requested but unavailable.
	// In hybrid mode the results are then keyword-only; in semantic mode
	// the result set is empty.
	Degraded bool `json:"degraded,omitempty"`
}

// Search validates the request, dispatches to one or both search signals,
// fuses rankings in hybrid mode, applies post-ranking filters, and truncates
// to the clamped limit.
//
// An empty (or all-whitespace) query returns zero results without touching
// any backend. Non-positive limits fall back to DefaultLimit; limits above
// MaxLimit are clamped to it.
func (s *Searcher) Search(ctx context.Context, req Request) (*Response, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Limit = clampLimit(req.Limit)

	switch req.Mode {
	case ModeKeyword, ModeSemantic, ModeHybrid:
	case "":
		req.Mode = ModeHybrid
	default:
		return nil, &Error{Op: "Search", Err: ErrInvalidInput,
			Msg: fmt.Sprintf("unknown mode %q", req.Mode)}
	}
	if err := ValidateFilters(req.Filters); err != nil {
		return nil, err
	}

	if req.Query == "" {
		return &Response{Results: []Result{}, Mode: req.Mode}, nil
	}

	if resp, ok := s.cacheGet(req); ok {
		return resp, nil
	}

	s.logger.Debug("performing search",
		"tenant_id", req.TenantID,
		"mode", req.Mode,
		"limit", req.Limit,
	)

	var (
		resp *Response
		err  error
	)
	switch req.Mode {
	case ModeKeyword:
		resp, err = s.searchKeyword(ctx, req)
	case ModeSemantic:
		resp, err = s.searchSemantic(ctx, req)
	default:
		resp, err = s.searchHybrid(ctx, req)
	}
	if err != nil {
		return nil, err
	}

	s.cachePut(req, resp)

	s.logger.Info("search completed",
		"tenant_id", req.TenantID,
		"mode", req.Mode,
		"results", len(resp.Results),
		"degraded", resp.Degraded,
	)

	return resp, nil
}

func (s *Searcher) searchKeyword(ctx context.Context, req Request) (*Response, error) {
	ranked, err := s.keyword.Search(ctx, req.TenantID, req.Query, candidateLimit)
	if err != nil {
		return nil, &Error{Op: "Search", Err: ErrStoreUnavailable, Msg: err.Error()}
	}

	results, err := s.materialize(ctx, req, ranked, MatchKeyword, rawScores(ranked))
	if err != nil {
		return nil, err
	}
	return &Response{Results: results, Total: len(results), Mode: ModeKeyword}, nil
}

func (s *Searcher) searchSemantic(ctx context.Context, req Request) (*Response, error) {
	ranked, err := s.semanticRanked(ctx, req)
	if err != nil {
		if errors.Is(err, ErrEmbeddingUnavailable) {
			// Explicit unavailable status, not a generic failure: the
			// caller sees an empty, degraded response it can retry.
			s.logger.Warn("semantic search unavailable",
				"tenant_id", req.TenantID, "error", err)
			return &Response{Results: []Result{}, Mode: ModeSemantic, Degraded: true}, nil
		}
		return nil, err
	}

	results, err := s.materialize(ctx, req, ranked, MatchSemantic, rawScores(ranked))
	if err != nil {
		return nil, err
	}
	return &Response{Results: results, Total: len(results), Mode: ModeSemantic}, nil
}

func (s *Searcher) searchHybrid(ctx context.Context, req Request) (*Response, error) {
	// The two branches have no data dependency; run them concurrently so a
	// slow branch does not serialize the other.
	var (
		keywordList RankedList
		keywordErr  error
		vectorList  RankedList
		vectorErr   error
	)

	done := make(chan struct{}, 2)
	go func() {
		defer func() { done <- struct{}{} }()
		keywordList, keywordErr = s.keyword.Search(ctx, req.TenantID, req.Query, candidateLimit)
	}()
	go func() {
		defer func() { done <- struct{}{} }()
		vectorList, vectorErr = s.semanticRanked(ctx, req)
	}()
	<-done
	<-done

	if keywordErr != nil && vectorErr != nil {
		combined := multierror.Append(keywordErr, vectorErr)
		return nil, &Error{Op: "Search", Err: ErrStoreUnavailable,
			Msg: combined.Error()}
	}
	if keywordErr != nil {
		// The keyword index is the fallback signal; without it hybrid
		// search cannot honor its degradation contract.
		return nil, &Error{Op: "Search", Err: ErrStoreUnavailable, Msg: keywordErr.Error()}
	}

	if vectorErr != nil {
		if !errors.Is(vectorErr, ErrEmbeddingUnavailable) {
			return nil, vectorErr
		}
		// Degrade to keyword-only; never hard-fail just because the
		// embedding provider is down.
		s.logger.Warn("embedding unavailable, degrading to keyword-only",
			"tenant_id", req.TenantID, "error", vectorErr)
		results, err := s.materialize(ctx, req, keywordList, MatchKeyword, rawScores(keywordList))
		if err != nil {
			return nil, err
		}
		return &Response{Results: results, Total: len(results), Mode: ModeHybrid, Degraded: true}, nil
	}

	fused := FuseRRF(
		[]RankedList{vectorList, keywordList},
		[]float64{s.weights.Semantic, s.weights.Keyword},
		s.rrfK,
	)

	ranked := make(RankedList, len(fused))
	scores := make(map[string]float64, len(fused))
	for i, f := range fused {
		ranked[i] = RankedItem{ContractID: f.ContractID, Rank: i + 1, Score: f.Score}
		scores[f.ContractID] = f.Score
	}

	results, err := s.materialize(ctx, req, ranked, MatchHybridRRF, scores)
	if err != nil {
		return nil, err
	}
	return &Response{Results: results, Total: len(results), Mode: ModeHybrid}, nil
}

// semanticRanked encodes the query and runs vector search. Embedding
// failures (including timeout) come back wrapping ErrEmbeddingUnavailable so
// callers can degrade.
func (s *Searcher) semanticRanked(ctx context.Context, req Request) (RankedList, error) {
	embedCtx, cancel := context.WithTimeout(ctx, s.embedTimeout)
	defer cancel()

	queryVec, err := s.embedder.EmbedQuery(embedCtx, req.Query)
	if err != nil {
		return nil, &Error{Op: "Search", Err: ErrEmbeddingUnavailable, Msg: err.Error()}
	}

	return s.vector.Search(ctx, req.TenantID, queryVec, candidateLimit)
}

// materialize loads record summaries for the ranked candidates, applies
// post-ranking filters, and truncates to the request limit. Candidates whose
// record has vanished from the store are dropped.
func (s *Searcher) materialize(ctx context.Context, req Request, ranked RankedList, matchType MatchType, scores map[string]float64) ([]Result, error) {
	if len(ranked) == 0 {
		return []Result{}, nil
	}

	ids := make([]string, len(ranked))
	for i, item := range ranked {
		ids[i] = item.ContractID
	}

	summaries, err := s.records.GetSummaries(ctx, req.TenantID, ids)
	if err != nil {
		return nil, &Error{Op: "Search", Err: ErrStoreUnavailable, Msg: err.Error()}
	}

	results := make([]Result, 0, req.Limit)
	for _, item := range ranked {
		rec, ok := summaries[item.ContractID]
		if !ok {
			continue
		}
		if !matchesFilters(rec, req.Filters) {
			continue
		}
		results = append(results, Result{
			ContractID:   rec.ContractID,
			Title:        rec.Title,
			ContractType: rec.ContractType,
			Status:       rec.Status,
			Score:        scores[item.ContractID],
			MatchType:    matchType,
		})
		if len(results) == req.Limit {
			break
		}
	}

	return results, nil
}

func rawScores(ranked RankedList) map[string]float64 {
	scores := make(map[string]float64, len(ranked))
	for _, item := range ranked {
		scores[item.ContractID] = item.Score
	}
	return scores
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
