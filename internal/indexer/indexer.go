// Package indexer keeps the embedding store and the keyword index in sync
// with contract writes. The API enqueues contract IDs after every
// create/update; the worker embeds the content asynchronously so request
// handlers never wait on the embedding provider.
package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/covenant-forge/covenant/pkg/embed"
	"github.com/covenant-forge/covenant/pkg/models"
	"github.com/covenant-forge/covenant/pkg/search"
)

const defaultQueueSize = 256

// Worker embeds contract content and maintains the keyword index.
type Worker struct {
	db       *gorm.DB
	embedder embed.Provider
	keyword  search.KeywordIndex
	queue    chan uuid.UUID
	logger   hclog.Logger
}

// Config holds configuration for the worker.
type Config struct {
	DB        *gorm.DB
	Embedder  embed.Provider
	Keyword   search.KeywordIndex
	QueueSize int
	Logger    hclog.Logger
}

// NewWorker creates an indexing worker.
func NewWorker(config Config) (*Worker, error) {
	if config.DB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if config.Embedder == nil {
		return nil, fmt.Errorf("embedding provider is required")
	}
	if config.Keyword == nil {
		return nil, fmt.Errorf("keyword index is required")
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}
	if config.Logger == nil {
		config.Logger = hclog.NewNullLogger()
	}

	return &Worker{
		db:       config.DB,
		embedder: config.Embedder,
		keyword:  config.Keyword,
		queue:    make(chan uuid.UUID, config.QueueSize),
		logger:   config.Logger.Named("indexer"),
	}, nil
}

// Enqueue schedules a contract for (re)indexing. Non-blocking: when the
// queue is full the contract is skipped and picked up by the next full
// reindex instead of stalling the write path.
func (w *Worker) Enqueue(contractID uuid.UUID) {
	select {
	case w.queue <- contractID:
	default:
		w.logger.Warn("index queue full, skipping", "contract_id", contractID)
	}
}

// Run processes the queue until the context is canceled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("indexing worker started",
		"provider", w.embedder.Name(),
		"model", w.embedder.Model(),
	)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("indexing worker stopped")
			return
		case id := <-w.queue:
			if err := w.IndexContract(ctx, id); err != nil {
				w.logger.Error("failed to index contract",
					"contract_id", id,
					"error", err,
				)
			}
		}
	}
}

// IndexContract embeds one contract's content and updates the keyword
// index. Unchanged content (same hash, same model) is not re-embedded.
func (w *Worker) IndexContract(ctx context.Context, contractID uuid.UUID) error {
	var contract models.Contract
	err := w.db.WithContext(ctx).First(&contract, "id = ?", contractID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted before the worker got to it; drop the index entry.
			return w.keyword.Delete(ctx, "", contractID.String())
		}
		return fmt.Errorf("failed to load contract: %w", err)
	}

	if err := w.keyword.Index(ctx, &search.Document{
		ContractID:   contract.ID.String(),
		TenantID:     contract.TenantID.String(),
		Title:        contract.Title,
		Body:         contract.SearchBody(),
		ContractType: contract.ContractType,
		Status:       contract.Status,
		CreatedAt:    contract.CreatedAt,
	}); err != nil {
		return fmt.Errorf("failed to update keyword index: %w", err)
	}

	text := contract.Title + "\n\n" + contract.SearchBody()
	hash := contentHash(text)

	var existing models.ContractEmbedding
	err = w.db.WithContext(ctx).
		Where("contract_id = ? AND model = ?", contract.ID, w.embedder.Model()).
		First(&existing).Error
	if err == nil && existing.ContentHash == hash {
		w.logger.Debug("content unchanged, skipping embedding",
			"contract_id", contract.ID)
		return nil
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check existing embedding: %w", err)
	}

	vector, err := w.embedder.Embed(ctx, text, embed.TaskDocument)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}

	row := models.ContractEmbedding{
		ContractID:  contract.ID,
		TenantID:    contract.TenantID,
		Embedding:   models.Vector(vector),
		Model:       w.embedder.Model(),
		Provider:    w.embedder.Name(),
		Dimensions:  len(vector),
		ContentHash: hash,
		GeneratedAt: time.Now(),
	}
	err = w.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "contract_id"}, {Name: "model"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"embedding", "provider", "dimensions", "content_hash",
				"generated_at", "updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}

	w.logger.Debug("indexed contract",
		"contract_id", contract.ID,
		"dimensions", len(vector),
	)
	return nil
}

// ReindexTenant re-embeds every contract in a tenant, a bounded number at a
// time. Used after switching embedding models, when all stored vectors
// become incomparable to query vectors.
func (w *Worker) ReindexTenant(ctx context.Context, tenantID uuid.UUID, concurrency int) error {
	if concurrency <= 0 {
		concurrency = 4
	}

	var ids []uuid.UUID
	err := w.db.WithContext(ctx).
		Model(&models.Contract{}).
		Where("tenant_id = ?", tenantID).
		Pluck("id", &ids).Error
	if err != nil {
		return fmt.Errorf("failed to list tenant contracts: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return w.IndexContract(gctx, id)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("tenant reindex failed: %w", err)
	}

	w.logger.Info("tenant reindex completed",
		"tenant_id", tenantID,
		"contracts", len(ids),
	)
	return nil
}

// RemoveContract drops a deleted contract from the keyword index and the
// embedding store.
func (w *Worker) RemoveContract(ctx context.Context, tenantID, contractID uuid.UUID) error {
	if err := w.keyword.Delete(ctx, tenantID.String(), contractID.String()); err != nil {
		return fmt.Errorf("failed to delete from keyword index: %w", err)
	}
	err := w.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Delete(&models.ContractEmbedding{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete embeddings: %w", err)
	}
	return nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
