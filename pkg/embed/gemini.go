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
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	// DefaultGeminiModel is Google's general-purpose text embedding model.
	DefaultGeminiModel      = "text-embedding-004"
	defaultGeminiDimensions = 768
)

// GeminiClient implements Provider for the Gemini embedContent API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	model      string
	dimensions int
	httpClient *http.Client
	logger     hclog.Logger
}

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey     string        // Google AI API key
	BaseURL    string        // Base URL (default: Google AI endpoint)
	Model      string        // Model (default: text-embedding-004)
	Dimensions int           // Vector length (default: 768)
	Timeout    time.Duration // HTTP timeout (default: 30s)
	Logger     hclog.Logger  // Logger (optional)
}

// NewGeminiClient creates a new Gemini embeddings client.
func NewGeminiClient(config GeminiConfig) (*GeminiClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = defaultGeminiBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultGeminiModel
	}
	if config.Dimensions == 0 {
		config.Dimensions = defaultGeminiDimensions
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	return &GeminiClient{
		apiKey:     config.APIKey,
		baseURL:    config.BaseURL,
		model:      config.Model,
		dimensions: config.Dimensions,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: config.Logger.Named("gemini-client"),
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string { return "gemini" }

// Model returns the model identifier.
func (c *GeminiClient) Model() string { return c.model }

// Dimensions returns the vector length.
func (c *GeminiClient) Dimensions() int { return c.dimensions }

// Embed returns the embedding for a single text. Inputs are truncated to
// MaxInputChars; rate limiting and server errors are retried with
// exponential backoff, at most maxEmbedAttempts times.
func (c *GeminiClient) Embed(ctx context.Context, text string, task TaskType) ([]float32, error) {
	reqBody := geminiEmbedRequest{
		Content:  geminiContent{Parts: []geminiPart{{Text: truncate(text)}}},
		TaskType: geminiTaskType(task),
	}
	reqJSON, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var vector []float32
	operation := func() error {
		vec, err := c.doEmbedRequest(ctx, reqJSON)
		if err != nil {
			return err
		}
		vector = vec
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), maxEmbedAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, fmt.Errorf("gemini embedding failed: %w", err)
	}

	return vector, nil
}

// EmbedBatch embeds texts one call at a time; the embedContent endpoint is
// single-input.
func (c *GeminiClient) EmbedBatch(ctx context.Context, texts []string, task TaskType) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := c.Embed(ctx, t, task)
		if err != nil {
			return nil, fmt.Errorf("failed to embed text %d: %w", i, err)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (c *GeminiClient) doEmbedRequest(ctx context.Context, reqJSON []byte) ([]float32, error) {
	url := fmt.Sprintf("%s/models/%s:embedContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(reqJSON))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

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
		c.logger.Warn("retryable Gemini API error", "status", resp.StatusCode)
		return nil, fmt.Errorf("Gemini API error (%d): %s", resp.StatusCode, string(respBody))
	default:
		return nil, backoff.Permanent(
			fmt.Errorf("Gemini API error (%d): %s", resp.StatusCode, string(respBody)))
	}

	var embedResp geminiEmbedResponse
	if err := json.Unmarshal(respBody, &embedResp); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to parse response: %w", err))
	}
	if len(embedResp.Embedding.Values) == 0 {
		return nil, backoff.Permanent(fmt.Errorf("no embedding in response"))
	}

	return embedResp.Embedding.Values, nil
}

func geminiTaskType(task TaskType) string {
	if task == TaskQuery {
		return "RETRIEVAL_QUERY"
	}
	return "RETRIEVAL_DOCUMENT"
}

// Gemini API types

type geminiEmbedRequest struct {
	Content  geminiContent `json:"content"`
	TaskType string        `json:"taskType,omitempty"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiEmbedResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}
