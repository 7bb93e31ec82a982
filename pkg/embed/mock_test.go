package embed

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProvider_Deterministic(t *testing.T) {
	p := NewMockProvider()

	a, err := p.Embed(context.Background(), "non-compete clause", TaskDocument)
	require.NoError(t, err)
	b, err := p.Embed(context.Background(), "non-compete clause", TaskDocument)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := p.Embed(context.Background(), "different text", TaskDocument)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestMockProvider_UnitVectors(t *testing.T) {
	p := NewMockProvider().WithDimensions(16)

	vec, err := p.Embed(context.Background(), "some text", TaskQuery)
	require.NoError(t, err)
	require.Len(t, vec, 16)

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestMockProvider_PinnedVectors(t *testing.T) {
	p := NewMockProvider().WithVector("nda", []float32{0, 1})

	vec, err := p.Embed(context.Background(), "nda", TaskDocument)
	require.NoError(t, err)
	assert.Equal(t, []float32{0, 1}, vec)
}

func TestMockProvider_SimulatedErrors(t *testing.T) {
	p := NewMockProvider().WithSimulateErrors(true)

	_, err := p.Embed(context.Background(), "anything", TaskDocument)
	assert.Error(t, err)

	_, err = p.EmbedBatch(context.Background(), []string{"a", "b"}, TaskDocument)
	assert.Error(t, err)
}

func TestMockProvider_Batch(t *testing.T) {
	p := NewMockProvider()

	vecs, err := p.EmbedBatch(context.Background(), []string{"a", "b"}, TaskDocument)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.NotEqual(t, vecs[0], vecs[1])
}

func TestQueryEncoder(t *testing.T) {
	p := NewMockProvider().WithVector("lease renewal", []float32{0.5, 0.5})
	enc := QueryEncoder{Provider: p}

	vec, err := enc.EmbedQuery(context.Background(), "lease renewal")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 0.5}, vec)
}

func TestNewProvider_Factory(t *testing.T) {
	p, err := NewProvider(FactoryConfig{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.Name())

	p, err = NewProvider(FactoryConfig{Provider: "voyage", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "voyage", p.Name())

	p, err = NewProvider(FactoryConfig{Provider: "gemini", APIKey: "k", Model: "custom-model"})
	require.NoError(t, err)
	assert.Equal(t, "custom-model", p.Model())

	_, err = NewProvider(FactoryConfig{Provider: "unknown"})
	assert.Error(t, err)
}
