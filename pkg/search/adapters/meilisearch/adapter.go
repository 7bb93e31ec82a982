// Package meilisearch implements search.KeywordIndex against a Meilisearch
// server. Used in multi-node deployments where the keyword index must be
// shared; single-node deployments default to the embedded Bleve adapter.
package meilisearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/meilisearch/meilisearch-go"

	covsearch "github.com/covenant-forge/covenant/pkg/search"
)

// Adapter implements search.KeywordIndex for Meilisearch.
type Adapter struct {
	client    meilisearch.ServiceManager
	indexName string
}

// Config contains Meilisearch configuration.
type Config struct {
	Host      string // e.g. "http://meilisearch.local:7700"
	APIKey    string
	IndexName string // Defaults to "contracts"
}

// NewAdapter creates a Meilisearch adapter and configures the contracts
// index for tenant filtering and relevance-ranked title/body search.
func NewAdapter(cfg *Config) (*Adapter, error) {
	if cfg == nil || cfg.Host == "" {
		return nil, fmt.Errorf("meilisearch host required")
	}
	if cfg.IndexName == "" {
		cfg.IndexName = "contracts"
	}

	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))

	a := &Adapter{
		client:    client,
		indexName: cfg.IndexName,
	}

	if err := a.configureIndex(); err != nil {
		return nil, err
	}

	return a, nil
}

// configureIndex sets filterable and searchable attributes. Errors here are
// surfaced at startup rather than on the first query.
func (a *Adapter) configureIndex() error {
	idx := a.client.Index(a.indexName)

	filterable := []string{"tenantId", "contractType", "status"}
	if _, err := idx.UpdateFilterableAttributes(&filterable); err != nil {
		return fmt.Errorf("failed to configure filterable attributes: %w", err)
	}

	searchable := []string{"title", "body"}
	if _, err := idx.UpdateSearchableAttributes(&searchable); err != nil {
		return fmt.Errorf("failed to configure searchable attributes: %w", err)
	}

	return nil
}

// Name returns the backend name.
func (a *Adapter) Name() string {
	return "meilisearch"
}

// Index adds or replaces a contract document.
func (a *Adapter) Index(ctx context.Context, doc *covsearch.Document) error {
	if doc == nil || doc.ContractID == "" {
		return fmt.Errorf("document with contract ID required")
	}

	_, err := a.client.Index(a.indexName).AddDocumentsWithContext(ctx, []*covsearch.Document{doc}, "id")
	if err != nil {
		return fmt.Errorf("failed to index contract %s: %w", doc.ContractID, err)
	}
	return nil
}

// Delete removes a contract document.
func (a *Adapter) Delete(ctx context.Context, tenantID, contractID string) error {
	_, err := a.client.Index(a.indexName).DeleteDocumentWithContext(ctx, contractID)
	if err != nil {
		return fmt.Errorf("failed to delete contract %s from index: %w", contractID, err)
	}
	return nil
}

// Search runs a relevance-ranked full-text query restricted to the tenant.
func (a *Adapter) Search(ctx context.Context, tenantID, queryText string, limit int) (covsearch.RankedList, error) {
	if limit <= 0 {
		limit = 100
	}

	resp, err := a.client.Index(a.indexName).SearchWithContext(ctx, queryText, &meilisearch.SearchRequest{
		Limit:            int64(limit),
		Filter:           fmt.Sprintf("tenantId = %q", tenantID),
		ShowRankingScore: true,
	})
	if err != nil {
		return nil, fmt.Errorf("meilisearch search failed: %w", err)
	}

	ranked := make(covsearch.RankedList, 0, len(resp.Hits))
	for i, raw := range resp.Hits {
		var hit struct {
			ID           string  `json:"id"`
			RankingScore float64 `json:"_rankingScore"`
		}
		data, err := json.Marshal(raw)
		if err != nil {
			continue
		}
		if err := json.Unmarshal(data, &hit); err != nil || hit.ID == "" {
			continue
		}
		ranked = append(ranked, covsearch.RankedItem{
			ContractID: hit.ID,
			Rank:       i + 1,
			Score:      hit.RankingScore,
		})
	}
	return ranked, nil
}
