package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/covenant-forge/covenant/pkg/models"
)

// Store is the GORM-backed implementation of EmbeddingStore and RecordStore.
// Every query it issues is scoped by tenant; fusion only ever sees candidate
// lists that were already tenant-scoped here.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store over an existing database connection.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &Store{db: db}, nil
}

var (
	_ EmbeddingStore = (*Store)(nil)
	_ RecordStore    = (*Store)(nil)
)

// ListEmbeddings returns every stored embedding for the tenant.
func (s *Store) ListEmbeddings(ctx context.Context, tenantID string) ([]StoredEmbedding, error) {
	var rows []models.ContractEmbedding
	err := s.db.WithContext(ctx).
		Select("contract_id", "embedding", "model").
		Where("tenant_id = ?", tenantID).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list embeddings: %w", err)
	}

	out := make([]StoredEmbedding, len(rows))
	for i, r := range rows {
		out[i] = StoredEmbedding{
			ContractID: r.ContractID.String(),
			Vector:     []float32(r.Embedding),
			Model:      r.Model,
		}
	}
	return out, nil
}

// GetEmbedding returns a single contract's embedding, or an error wrapping
// ErrRecordNotFound when the contract has no embedding row.
func (s *Store) GetEmbedding(ctx context.Context, tenantID, contractID string) (*StoredEmbedding, error) {
	var row models.ContractEmbedding
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND contract_id = ?", tenantID, contractID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &Error{Op: "GetEmbedding", Err: ErrRecordNotFound, Msg: contractID}
		}
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}

	return &StoredEmbedding{
		ContractID: row.ContractID.String(),
		Vector:     []float32(row.Embedding),
		Model:      row.Model,
	}, nil
}

// GetSummaries returns summaries for the given contract IDs, keyed by ID.
func (s *Store) GetSummaries(ctx context.Context, tenantID string, ids []string) (map[string]RecordSummary, error) {
	if len(ids) == 0 {
		return map[string]RecordSummary{}, nil
	}

	var rows []models.Contract
	err := s.db.WithContext(ctx).
		Select("id", "title", "contract_type", "status", "value", "created_at").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load contract summaries: %w", err)
	}

	out := make(map[string]RecordSummary, len(rows))
	for _, r := range rows {
		out[r.ID.String()] = RecordSummary{
			ContractID:   r.ID.String(),
			Title:        r.Title,
			ContractType: r.ContractType,
			Status:       r.Status,
			Value:        r.Value,
			CreatedAt:    r.CreatedAt,
		}
	}
	return out, nil
}

// SuggestTitles returns contracts whose title starts with the prefix,
// case-insensitively, ordered by title. LIKE wildcards in the prefix are
// escaped so callers cannot widen the match.
func (s *Store) SuggestTitles(ctx context.Context, tenantID, prefix string, limit int) ([]Suggestion, error) {
	pattern := escapeLike(strings.ToLower(prefix)) + "%"

	var rows []models.Contract
	err := s.db.WithContext(ctx).
		Select("id", "title").
		Where("tenant_id = ?", tenantID).
		Where("LOWER(title) LIKE ? ESCAPE '\\'", pattern).
		Order("title").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query title suggestions: %w", err)
	}

	out := make([]Suggestion, len(rows))
	for i, r := range rows {
		out[i] = Suggestion{ContractID: r.ID.String(), Title: r.Title}
	}
	return out, nil
}

// escapeLike escapes LIKE wildcards in user input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
