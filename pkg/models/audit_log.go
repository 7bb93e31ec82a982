package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records who did what to a contract. Rows are append-only.
type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TenantID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_audit_logs_tenant" json:"tenantId"`
	ContractID *uuid.UUID `gorm:"type:uuid;index:idx_audit_logs_contract" json:"contractId,omitempty"`

	Actor  string `gorm:"type:varchar(255);not null" json:"actor"`
	Action string `gorm:"type:varchar(100);not null" json:"action"`

	Metadata JSON `gorm:"type:jsonb" json:"metadata,omitempty"`

	Timestamp time.Time `gorm:"not null;autoCreateTime;index:idx_audit_logs_timestamp,sort:desc" json:"timestamp"`
}

// TableName specifies the table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}

// BeforeCreate validates required fields.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.TenantID == uuid.Nil {
		return fmt.Errorf("tenant_id is required")
	}
	if a.Actor == "" {
		return fmt.Errorf("actor is required")
	}
	if a.Action == "" {
		return fmt.Errorf("action is required")
	}
	return nil
}
