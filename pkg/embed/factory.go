package embed

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// FactoryConfig holds configuration for provider construction.
type FactoryConfig struct {
	Provider   string // "voyage", "gemini", or "mock"
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Logger     hclog.Logger
}

// NewProvider creates an embedding provider by name.
func NewProvider(cfg FactoryConfig) (Provider, error) {
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	switch cfg.Provider {
	case "voyage":
		return NewVoyageClient(VoyageConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     cfg.Logger,
		})
	case "gemini":
		return NewGeminiClient(GeminiConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     cfg.Logger,
		})
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %q", cfg.Provider)
	}
}
