package models

import (
	"time"
)

// AuditLog records operator actions on tickets for later review.
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Actor     string    `gorm:"size:255;index" json:"actor"` // operator identifier, may be empty
	Action    string    `gorm:"size:50;not null" json:"action"`
	EntityID  string    `gorm:"size:50" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"` // JSON description of the change
	Timestamp time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"timestamp"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
