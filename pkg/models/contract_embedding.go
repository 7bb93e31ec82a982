package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContractEmbedding stores a contract's precomputed document embedding.
// Model tags the embedding model that produced the vector so query-time
// comparisons never mix vectors across model versions.
type ContractEmbedding struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ContractID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_contract_embeddings_contract_model" json:"contractId"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;index:idx_contract_embeddings_tenant" json:"tenantId"`

	Embedding  Vector `gorm:"type:jsonb;not null" json:"-"`
	Model      string `gorm:"type:varchar(100);not null;uniqueIndex:idx_contract_embeddings_contract_model" json:"model"`
	Provider   string `gorm:"type:varchar(50);not null" json:"provider"`
	Dimensions int    `gorm:"type:integer;not null" json:"dimensions"`

	// ContentHash is the sha256 of the text that was embedded; the indexing
	// worker skips re-embedding unchanged content.
	ContentHash string `gorm:"type:varchar(64);index:idx_contract_embeddings_hash" json:"contentHash,omitempty"`

	GeneratedAt time.Time `gorm:"not null" json:"generatedAt"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name.
func (ContractEmbedding) TableName() string {
	return "contract_embeddings"
}

// BeforeCreate validates required fields.
func (e *ContractEmbedding) BeforeCreate(tx *gorm.DB) error {
	if e.GeneratedAt.IsZero() {
		e.GeneratedAt = time.Now()
	}
	if e.ContractID == uuid.Nil {
		return fmt.Errorf("contract_id is required")
	}
	if e.TenantID == uuid.Nil {
		return fmt.Errorf("tenant_id is required")
	}
	if len(e.Embedding) == 0 {
		return fmt.Errorf("embedding is required")
	}
	if e.Model == "" {
		return fmt.Errorf("model is required")
	}
	if e.Dimensions == 0 {
		e.Dimensions = len(e.Embedding)
	}
	return nil
}

// Vector stores a float32 embedding as a JSON array column. Works with both
// PostgreSQL JSONB and SQLite JSON columns.
type Vector []float32

// Scan implements the sql.Scanner interface.
func (v *Vector) Scan(value interface{}) error {
	if value == nil {
		*v = nil
		return nil
	}

	var bytes []byte
	switch raw := value.(type) {
	case []byte:
		bytes = raw
	case string:
		bytes = []byte(raw)
	default:
		return fmt.Errorf("failed to scan vector value: %v", value)
	}

	var vec []float32
	if err := json.Unmarshal(bytes, &vec); err != nil {
		return err
	}

	*v = Vector(vec)
	return nil
}

// Value implements the driver.Valuer interface.
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal([]float32(v))
}
