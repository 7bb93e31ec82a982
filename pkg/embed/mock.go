package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"time"
)

// MockProvider is an embedding provider for tests. It generates
// deterministic vectors without calling external APIs, and can simulate
// failures and latency.
type MockProvider struct {
	name           string
	model          string
	dimensions     int
	simulateErrors bool
	delay          time.Duration

	// fixed maps exact input text to a canned vector, overriding the
	// derived one. Lets tests pin specific similarity relationships.
	fixed map[string][]float32
}

// NewMockProvider creates a mock provider producing 8-dimension vectors.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		name:       "mock",
		model:      "mock-embed-v1",
		dimensions: 8,
		fixed:      map[string][]float32{},
	}
}

// WithDimensions sets the vector length.
func (p *MockProvider) WithDimensions(n int) *MockProvider {
	p.dimensions = n
	return p
}

// WithSimulateErrors makes every call fail, for error-path testing.
func (p *MockProvider) WithSimulateErrors(enable bool) *MockProvider {
	p.simulateErrors = enable
	return p
}

// WithDelay adds artificial latency to simulate a network round trip.
func (p *MockProvider) WithDelay(d time.Duration) *MockProvider {
	p.delay = d
	return p
}

// WithVector pins the vector returned for an exact input text.
func (p *MockProvider) WithVector(text string, vec []float32) *MockProvider {
	p.fixed[text] = vec
	return p
}

// Name returns the provider name.
func (p *MockProvider) Name() string { return p.name }

// Model returns the model identifier.
func (p *MockProvider) Model() string { return p.model }

// Dimensions returns the vector length.
func (p *MockProvider) Dimensions() int { return p.dimensions }

// Embed returns a deterministic vector derived from the input text.
func (p *MockProvider) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	if p.simulateErrors {
		return nil, fmt.Errorf("mock error: embedding failed")
	}
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if vec, ok := p.fixed[text]; ok {
		return vec, nil
	}
	return p.derive(text), nil
}

// EmbedBatch returns one vector per input text.
func (p *MockProvider) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := p.Embed(ctx, t, task)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// derive produces a unit-length vector seeded by the text hash.
func (p *MockProvider) derive(text string) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, p.dimensions)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		v := float64(int64(seed>>32)) / float64(math.MaxInt32)
		vec[i] = float32(v)
		norm += v * v
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}
	return vec
}
