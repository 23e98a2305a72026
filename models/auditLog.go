package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog rows are written by the admin CRUD endpoints; the reporting path only reads them.
type AuditLog struct {
	ID           string            `gorm:"primaryKey;size:36" json:"id"`
	Action       string            `gorm:"size:100;not null;index" json:"action"`
	ResourceType string            `gorm:"size:100" json:"resourceType"`
	ResourceId   string            `gorm:"size:36" json:"resourceId"`
	UserId       string            `gorm:"size:36;index" json:"userId"`
	UserName     string            `gorm:"size:100" json:"userName"`
	UserEmail    string            `gorm:"size:191" json:"userEmail"`
	Severity     AuditSeverity     `gorm:"type:varchar(20);not null;default:info" json:"severity"`
	Category     AuditCategory     `gorm:"type:varchar(30);not null;default:system" json:"category"`
	OldValues    datatypes.JSONMap `json:"oldValues,omitempty"`
	NewValues    datatypes.JSONMap `json:"newValues,omitempty"`
	CreatedAt    time.Time         `gorm:"autoCreateTime;index" json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	assignId(&a.ID)
	return nil
}
