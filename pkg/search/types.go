// Package search implements hybrid contract search: vector similarity over
// stored embeddings, keyword full-text search, and Reciprocal Rank Fusion to
// merge the two ranked lists. It also provides similarity lookup ("related
// contracts") and title autocomplete on top of the same record store.
package search

import (
	"context"
	"time"
)

// Mode selects which ranking signals a search uses.
type Mode string

const (
	ModeKeyword  Mode = "keyword"
	ModeSemantic Mode = "semantic"
	ModeHybrid   Mode = "hybrid"
)

// MatchType tags a result with the signal that produced its score.
type MatchType string

const (
	MatchKeyword   MatchType = "keyword"
	MatchSemantic  MatchType = "semantic"
	MatchHybridRRF MatchType = "hybrid_rrf"
)

// Result is one ranked search hit. Score semantics depend on the mode that
// produced it: raw relevance for keyword, cosine similarity for semantic, and
// an RRF score for hybrid.
type Result struct {
	ContractID   string    `json:"id"`
	Title        string    `json:"title"`
	ContractType string    `json:"contractType,omitempty"`
	Status       string    `json:"status,omitempty"`
	Score        float64   `json:"score"`
	MatchType    MatchType `json:"matchType"`
}

// RankedItem is one entry in a per-signal ranked list. Rank is 1-based.
type RankedItem struct {
	ContractID string
	Rank       int
	Score      float64
}

// RankedList is an ordered candidate list from a single search signal,
// best-first.
type RankedList []RankedItem

// Suggestion is a typeahead match on a contract title.
type Suggestion struct {
	ContractID string `json:"id"`
	Title      string `json:"title"`
}

// RecordSummary is the slice of a contract record the search core needs to
// render a result row and evaluate post-fusion filters. The core only ever
// reads contract records.
type RecordSummary struct {
	ContractID   string
	Title        string
	ContractType string
	Status       string
	Value        *float64
	CreatedAt    time.Time
}

// StoredEmbedding is a contract's precomputed document embedding. Model
// records the embedding model that produced the vector; vectors from a
// different model are not comparable and are skipped at query time.
type StoredEmbedding struct {
	ContractID string
	Vector     []float32
	Model      string
}

// KeywordIndex is the full-text search backend (Bleve, Meilisearch, ...).
// Implementations must scope every query to the given tenant.
type KeywordIndex interface {
	// Index adds or replaces a contract document in the index.
	Index(ctx context.Context, doc *Document) error

	// Delete removes a contract document from the index.
	Delete(ctx context.Context, tenantID, contractID string) error

	// Search runs a relevance-ranked full-text query over title and body.
	Search(ctx context.Context, tenantID, query string, limit int) (RankedList, error)

	// Name returns the backend name (e.g. "bleve", "meilisearch").
	Name() string
}

// Document is the denormalized contract representation sent to the keyword
// index.
type Document struct {
	ContractID   string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	ContractType string    `json:"contractType"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// EmbeddingStore reads stored contract embeddings, scoped by tenant.
type EmbeddingStore interface {
	// ListEmbeddings returns every stored embedding for the tenant.
	ListEmbeddings(ctx context.Context, tenantID string) ([]StoredEmbedding, error)

	// GetEmbedding returns a single contract's embedding. Returns an error
	// wrapping ErrRecordNotFound when the contract does not exist or has no
	// embedding yet.
	GetEmbedding(ctx context.Context, tenantID, contractID string) (*StoredEmbedding, error)
}

// RecordStore reads contract summaries and titles, scoped by tenant.
type RecordStore interface {
	// GetSummaries returns summaries for the given contract IDs, keyed by ID.
	// Missing IDs are simply absent from the map.
	GetSummaries(ctx context.Context, tenantID string, ids []string) (map[string]RecordSummary, error)

	// SuggestTitles returns contracts whose title starts with the given
	// prefix, case-insensitively, in title order.
	SuggestTitles(ctx context.Context, tenantID, prefix string, limit int) ([]Suggestion, error)
}
