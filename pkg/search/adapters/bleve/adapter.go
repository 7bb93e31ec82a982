// Package bleve implements search.KeywordIndex with an embedded Bleve
// full-text index. No external search service is required, which makes it
// the default backend for single-node deployments and tests.
package bleve

import (
	"context"
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	covsearch "github.com/covenant-forge/covenant/pkg/search"
)

// Adapter implements search.KeywordIndex for Bleve.
type Adapter struct {
	index bleve.Index
	path  string
}

// Config contains Bleve configuration.
type Config struct {
	// IndexPath is the directory for the index. Empty means an in-memory
	// index, which is what tests use.
	IndexPath string
}

// NewAdapter opens or creates the contracts index.
func NewAdapter(cfg *Config) (*Adapter, error) {
	indexMapping := createContractMapping()

	var (
		idx bleve.Index
		err error
	)
	if cfg == nil || cfg.IndexPath == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.MkdirAll(cfg.IndexPath, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		idx, err = openOrCreateIndex(cfg.IndexPath, indexMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open contracts index: %w", err)
	}

	a := &Adapter{index: idx}
	if cfg != nil {
		a.path = cfg.IndexPath
	}
	return a, nil
}

// openOrCreateIndex opens an existing Bleve index or creates a new one.
func openOrCreateIndex(path string, indexMapping mapping.IndexMapping) (bleve.Index, error) {
	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		return bleve.New(path, indexMapping)
	}
	return idx, err
}

// createContractMapping creates the index mapping for contract documents.
func createContractMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "en" // English analyzer with stemming

	keywordFieldMapping := bleve.NewKeywordFieldMapping()

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("title", textFieldMapping)
	docMapping.AddFieldMappingsAt("body", textFieldMapping)
	docMapping.AddFieldMappingsAt("tenantId", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("contractType", keywordFieldMapping)
	docMapping.AddFieldMappingsAt("status", keywordFieldMapping)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// Name returns the backend name.
func (a *Adapter) Name() string {
	return "bleve"
}

// Index adds or replaces a contract document.
func (a *Adapter) Index(ctx context.Context, doc *covsearch.Document) error {
	if doc == nil || doc.ContractID == "" {
		return fmt.Errorf("document with contract ID required")
	}
	if err := a.index.Index(doc.ContractID, doc); err != nil {
		return fmt.Errorf("failed to index contract %s: %w", doc.ContractID, err)
	}
	return nil
}

// Delete removes a contract document.
func (a *Adapter) Delete(ctx context.Context, tenantID, contractID string) error {
	if err := a.index.Delete(contractID); err != nil {
		return fmt.Errorf("failed to delete contract %s from index: %w", contractID, err)
	}
	return nil
}

// Search runs a relevance-ranked full-text query over title and body,
// restricted to the tenant. Title matches are boosted over body matches.
func (a *Adapter) Search(ctx context.Context, tenantID, queryText string, limit int) (covsearch.RankedList, error) {
	if limit <= 0 {
		limit = 100
	}

	tenantQuery := bleve.NewTermQuery(tenantID)
	tenantQuery.SetField("tenantId")

	titleQuery := bleve.NewMatchQuery(queryText)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)

	bodyQuery := bleve.NewMatchQuery(queryText)
	bodyQuery.SetField("body")

	textQuery := bleve.NewDisjunctionQuery(titleQuery, bodyQuery)

	conjunction := bleve.NewConjunctionQuery([]query.Query{tenantQuery, textQuery}...)

	searchRequest := bleve.NewSearchRequest(conjunction)
	searchRequest.Size = limit

	searchResult, err := a.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search failed: %w", err)
	}

	ranked := make(covsearch.RankedList, 0, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		ranked = append(ranked, covsearch.RankedItem{
			ContractID: hit.ID,
			Rank:       i + 1,
			Score:      hit.Score,
		})
	}
	return ranked, nil
}

// Close releases the index.
func (a *Adapter) Close() error {
	return a.index.Close()
}
