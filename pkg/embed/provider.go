// Package embed provides embedding providers for contract search: clients
// that turn text into fixed-length vectors for indexing (document mode) and
// query-time encoding (query mode).
package embed

import "context"

// TaskType tells providers which side of retrieval the text is on. Some
// providers bias the vector space differently for documents vs queries.
type TaskType string

const (
	TaskDocument TaskType = "document"
	TaskQuery    TaskType = "query"
)

// MaxInputChars is the truncation point applied to input text before any
// provider call. Longer inputs are cut, not rejected.
const MaxInputChars = 2000

// Provider generates embeddings for text.
type Provider interface {
	// Embed returns the embedding vector for a single text.
	Embed(ctx context.Context, text string, task TaskType) ([]float32, error)

	// EmbedBatch returns one vector per input text, in order.
	EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error)

	// Name returns the provider name (e.g. "voyage", "gemini", "mock").
	Name() string

	// Model returns the model identifier stored alongside every vector.
	// Vectors from different models are never compared at query time.
	Model() string

	// Dimensions returns the vector length the model produces.
	Dimensions() int
}

// QueryEncoder adapts a Provider to query-side encoding. It satisfies the
// search orchestrator's QueryEmbedder interface.
type QueryEncoder struct {
	Provider Provider
}

// EmbedQuery encodes query text with the query task type.
func (q QueryEncoder) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	return q.Provider.Embed(ctx, query, TaskQuery)
}

// truncate caps text at MaxInputChars.
func truncate(text string) string {
	if len(text) > MaxInputChars {
		return text[:MaxInputChars]
	}
	return text
}
