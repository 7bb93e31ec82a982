package embed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultVoyageBaseURL = "https://api.voyageai.com/v1"

	// DefaultVoyageModel is a legal-domain embedding model; contracts are
	// its home turf.
	DefaultVoyageModel      = "voyage-law-2"
	defaultVoyageDimensions = 1024

	// maxEmbedAttempts bounds retries on rate limiting and transient
	// server errors before the failure surfaces as a degraded-mode signal.
	maxEmbedAttempts = 3
)

// VoyageClient implements Provider for the Voyage AI embeddings API.
type VoyageClient struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
	logger     hclog.Logger
}

// VoyageConfig holds configuration for the Voyage client.
type VoyageConfig struct {
	APIKey     string        // Voyage AI API key
	BaseURL    string        // Base URL (default: https://api.voyageai.com/v1)
	Model      string        // Model (default: voyage-law-2)
	Dimensions int           // Vector length (default: 1024)
	Timeout    time.Duration // HTTP timeout (default: 30s)
	Logger     hclog.Logger  // Logger (optional)
}

// NewVoyageClient creates a new Voyage AI embeddings client.
func NewVoyageClient(config VoyageConfig) (*VoyageClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Voyage API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultVoyageBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultVoyageModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = defaultVoyageDimensions
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	return &VoyageClient{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		model:      config.Model,
		dimensions: config.Dimensions,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.Named("voyage-client"),
	}, nil
}

// Name returns the provider name.
func (c *VoyageClient) Name() string { return "voyage" }

// Model returns the model identifier.
func (c *VoyageClient) Model() string { return c.model }

// Dimensions returns the vector length.
func (c *VoyageClient) Dimensions() int { return c.dimensions }

// Embed returns the embedding for a single text.
func (c *VoyageClient) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return vectors[0], nil
}

// EmbedBatch embeds multiple texts in one API call. Inputs are truncated to
// MaxInputChars. Rate limiting (HTTP 429) and server errors are retried with
// exponential backoff, at most maxEmbedAttempts times.
func (c *VoyageClient) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts to embed")
	}

	inputs := make([]string, len(texts))
	for i, t := range texts {
		inputs[i] = truncate(t)
	}

	reqBody := voyageEmbedRequest{
		Input:     inputs,
		Model:     c.model,
		InputType: voyageInputType(task),
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var vectors [][]float32
	operation := func() error {
		vecs, err := c.doEmbedRequest(ctx, reqJSON)
		if err != nil {
			return err
		}
		vectors = vecs
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxEmbedAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("voyage embedding failed: %w", err)
	}

	c.logger.Debug("generated embeddings",
		"model", c.model,
		"input_type", voyageInputType(task),
		"count", len(vectors),
	)

	return vectors, nil
}

// doEmbedRequest performs one API call. Client-side errors (4xx other than
// 429) are permanent; 429 and 5xx are retryable.
func (c *VoyageClient) doEmbedRequest(ctx context.Context, reqJSON []byte) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/embeddings", bytes.NewReader(reqJSON))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		c.logger.Warn("retryable Voyage API error",
			"status", resp.StatusCode,
		)
		return nil, fmt.Errorf("Voyage API error (%d): %s", resp.StatusCode, string(respBody))
	default:
		return nil, backoff.Permanent(
			fmt.Errorf("Voyage API error (%d): %s", resp.StatusCode, string(respBody)))
	}

	var embedResp voyageEmbedResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	if len(embedResp.Data) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("no embeddings in response"))
	}

	vectors := make([][]float32, len(embedResp.Data))
	for _, d := range embedResp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, backoff.Permanent(fmt.Errorf("embedding index %d out of range", d.Index))
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func voyageInputType(task TaskType) string {
	if task == TaskQuery {
		return "query"
	}
	return "document"
}

// Voyage API types

type voyageEmbedRequest struct {
	Input     []string `json:"input"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type,omitempty"`
}

type voyageEmbedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}
