// Package models defines the GORM models for the contract record store.
// The search core only ever reads these; writes happen through the API's
// CRUD path and the indexing worker.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contract statuses follow the contract lifecycle.
const (
	StatusDraft           = "draft"
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusActive          = "active"
	StatusExpired         = "expired"
	StatusTerminated      = "terminated"
)

// ValidStatuses lists every accepted contract status.
var ValidStatuses = []string{
	StatusDraft,
	StatusPendingApproval,
	StatusApproved,
	StatusActive,
	StatusExpired,
	StatusTerminated,
}

// Contract is a tenant-scoped contract record.
type Contract struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID uuid.UUID `gorm:"type:uuid;not null;index:idx_contracts_tenant;index:idx_contracts_tenant_status;index:idx_contracts_tenant_type" json:"tenantId"`

	Title       string `gorm:"type:varchar(255);not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Content     string `gorm:"type:text" json:"content,omitempty"`

	ContractType string   `gorm:"type:varchar(100);index:idx_contracts_tenant_type" json:"contractType,omitempty"`
	Status       string   `gorm:"type:varchar(20);not null;default:draft;index:idx_contracts_tenant_status" json:"status"`
	Value        *float64 `gorm:"type:numeric(15,2)" json:"value,omitempty"`

	Metadata JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_contracts_tenant_created,sort:desc" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName specifies the table name.
func (Contract) TableName() string {
	return "contracts"
}

// BeforeCreate assigns an ID and validates required fields.
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.TenantID == uuid.Nil {
		return fmt.Errorf("tenant_id is required")
	}
	if c.Title == "" {
		return fmt.Errorf("title is required")
	}
	if c.Status == "" {
		c.Status = StatusDraft
	}
	return nil
}

// SearchBody returns the text the keyword index and the embedding step run
// over: the descriptive text concatenated with full content.
func (c *Contract) SearchBody() string {
	if c.Description == "" {
		return c.Content
	}
	if c.Content == "" {
		return c.Description
	}
	return c.Description + "\n\n" + c.Content
}
