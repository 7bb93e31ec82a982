package server

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/covenant-forge/covenant/internal/api"
	"github.com/covenant-forge/covenant/internal/config"
	"github.com/covenant-forge/covenant/internal/db"
	"github.com/covenant-forge/covenant/internal/indexer"
	"github.com/covenant-forge/covenant/internal/server"
	"github.com/covenant-forge/covenant/pkg/embed"
	"github.com/covenant-forge/covenant/pkg/search"
	bleveadapter "github.com/covenant-forge/covenant/pkg/search/adapters/bleve"
	meiliadapter "github.com/covenant-forge/covenant/pkg/search/adapters/meilisearch"
)

type Command struct {
	Log hclog.Logger
	UI  cli.Ui

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Run the contract search server"
}

func (c *Command) Help() string {
	return `Usage: covenant server [-config=config.hcl]

  Run the contract lifecycle backend: record store, indexing worker, and
  the hybrid search API.

  Without -config the server starts in zero-config mode: SQLite record
  store, in-memory Bleve index, deterministic mock embeddings.
`
}

func (c *Command) flags() *flag.FlagSet {
	f := flag.NewFlagSet("server", flag.ContinueOnError)
	f.StringVar(&c.flagConfig, "config", "", "Path to the HCL configuration file")
	return f
}

func (c *Command) Run(args []string) int {
	f := c.flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	var (
		cfg *config.Config
		err error
	)
	if c.flagConfig != "" {
		cfg, err = config.NewConfig(c.flagConfig)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
			return 1
		}
	} else {
		c.UI.Info("no configuration file specified, using zero-config defaults")
		cfg = config.Default()
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "covenant",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	jwtSecret := cfg.JWTSecret()
	if jwtSecret == "" {
		c.UI.Error(fmt.Sprintf(
			"bearer token secret is not set (environment variable %s)",
			cfg.Auth.JWTSecretEnv))
		return 1
	}

	database, err := db.NewDB(cfg.Database)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	var keyword search.KeywordIndex
	switch cfg.Search.Provider {
	case "bleve":
		keyword, err = bleveadapter.NewAdapter(&bleveadapter.Config{
			IndexPath: cfg.Search.IndexPath,
		})
	case "meilisearch":
		keyword, err = meiliadapter.NewAdapter(&meiliadapter.Config{
			Host:   cfg.Search.MeilisearchHost,
			APIKey: cfg.Search.MeilisearchAPIKey,
		})
	default:
		err = fmt.Errorf("unknown search provider: %q", cfg.Search.Provider)
	}
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing keyword index: %v", err))
		return 1
	}

	embedder, err := embed.NewProvider(embed.FactoryConfig{
		Provider: cfg.Embeddings.Provider,
		APIKey:   cfg.EmbeddingAPIKey(),
		Model:    cfg.Embeddings.Model,
		Logger:   log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing embedding provider: %v", err))
		return 1
	}

	store, err := search.NewStore(database)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing search store: %v", err))
		return 1
	}

	vector, err := search.NewVectorSearch(search.VectorSearchConfig{
		Store:  store,
		Model:  embedder.Model(),
		Logger: log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing vector search: %v", err))
		return 1
	}

	searcher, err := search.NewSearcher(search.SearcherConfig{
		Keyword:  keyword,
		Vector:   vector,
		Records:  store,
		Embedder: embed.QueryEncoder{Provider: embedder},
		Weights: search.FusionWeights{
			Semantic: cfg.Search.SemanticWeight,
			Keyword:  cfg.Search.KeywordWeight,
		},
		RRFK:         cfg.Search.RRFK,
		EmbedTimeout: cfg.EmbedTimeout(),
		CacheTTL:     cfg.CacheTTL(),
		Logger:       log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing searcher: %v", err))
		return 1
	}

	worker, err := indexer.NewWorker(indexer.Config{
		DB:       database,
		Embedder: embedder,
		Keyword:  keyword,
		Logger:   log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing indexing worker: %v", err))
		return 1
	}

	srv := &server.Server{
		Config:       cfg,
		DB:           database,
		Searcher:     searcher,
		KeywordIndex: keyword,
		Embedder:     embedder,
		Indexer:      worker,
		Logger:       log,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(srv, jwtSecret),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()
	log.Info("server listening", "addr", cfg.Server.Addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		c.UI.Error(fmt.Sprintf("server error: %v", err))
		return 1
	case sig := <-sigCh:
		log.Info("shutting down", "signal", sig.String())
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
		return 1
	}

	return 0
}
