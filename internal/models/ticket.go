package models

import (
	"time"
)

// TicketStatus is a closed enumeration. Storing a free-form string let typos
// and unreachable states into the database; every status write goes through
// ParseTicketStatus instead.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
)

// ParseTicketStatus returns the matching status, or false for anything
// outside the enumeration.
func ParseTicketStatus(s string) (TicketStatus, bool) {
	switch TicketStatus(s) {
	case TicketOpen, TicketInProgress, TicketResolved, TicketClosed:
		return TicketStatus(s), true
	}
	return "", false
}

// Ticket is a user-submitted request for manual assistance. Status is
// operator-settable; resolved_at and resolved_by record the most recent
// resolution and survive reopening.
type Ticket struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UserID    string       `gorm:"size:36;not null;index:idx_tickets_user_created_at" json:"user_id"`
	SearchID  *uint        `gorm:"index" json:"search_id,omitempty"`
	CreatedAt time.Time    `gorm:"index;index:idx_tickets_user_created_at;index:idx_tickets_status_created_at" json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
	Status    TicketStatus `gorm:"size:20;default:'open';index:idx_tickets_status_created_at" json:"status"`

	// User submission, immutable after creation.
	UserNote         string `gorm:"type:text" json:"user_note,omitempty"`
	CropImageURL     string `gorm:"size:1024" json:"crop_image_url,omitempty"`
	OriginalImageURL string `gorm:"size:1024" json:"original_image_url,omitempty"`

	// Operator response.
	AdminNotes    string     `gorm:"type:text" json:"admin_notes,omitempty"`
	ManualResults string     `gorm:"type:text" json:"manual_results,omitempty"`
	ResolvedBy    string     `gorm:"size:255" json:"resolved_by,omitempty"`
	ResolvedAt    *time.Time `json:"resolved_at,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}
