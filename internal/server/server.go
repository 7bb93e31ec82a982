package server

import (
	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/covenant-forge/covenant/internal/config"
	"github.com/covenant-forge/covenant/internal/indexer"
	"github.com/covenant-forge/covenant/pkg/embed"
	"github.com/covenant-forge/covenant/pkg/search"
)

// Server contains the server configuration and shared services.
type Server struct {
	// Config is the config for the server.
	Config *config.Config

	// DB is the record store database.
	DB *gorm.DB

	// Searcher is the hybrid search orchestrator (keyword, semantic,
	// hybrid modes plus similarity lookup and suggestions).
	Searcher *search.Searcher

	// KeywordIndex is the full-text backend (Bleve or Meilisearch).
	KeywordIndex search.KeywordIndex

	// Embedder generates document and query embeddings.
	Embedder embed.Provider

	// Indexer is the background worker that keeps embeddings and the
	// keyword index in sync with contract writes.
	Indexer *indexer.Worker

	// Logger is the logger for the server.
	Logger hclog.Logger
}
