package models

import (
	"time"
)

// AnonymousUser is the root entity: searches, clicks and tickets all hang off
// user_id. The user_id is generated once and never changes; last_active is the
// only timestamp mutated after creation.
type AnonymousUser struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"uniqueIndex;size:36;not null" json:"user_id"`
	DeviceType  string    `gorm:"size:20;index:idx_users_device_country" json:"device_type,omitempty"`
	DeviceID    string    `gorm:"size:255" json:"device_id,omitempty"`
	DeviceToken string    `gorm:"size:255" json:"-"`
	Country     string    `gorm:"size:100;index:idx_users_device_country" json:"country,omitempty"`
	FirstSeen   time.Time `gorm:"index" json:"first_seen"`
	LastActive  time.Time `gorm:"index" json:"last_active"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	// Opaque JSON blob owned entirely by the client.
	Preferences string `gorm:"type:text" json:"preferences,omitempty"`

	Searches []ImageSearch `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Clicks   []ClickEvent  `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tickets  []Ticket      `gorm:"foreignKey:UserID;references:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (AnonymousUser) TableName() string {
	return "anonymous_users"
}
