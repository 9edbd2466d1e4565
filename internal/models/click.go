package models

import (
	"time"
)

// ClickEvent is one row per click on a search result. Partner, price and rank
// are snapshotted at click time so historical reports stay stable even if the
// result or partner record changes later.
type ClickEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"size:36;not null;index:idx_clicks_user_clicked_at" json:"user_id"`
	SearchID      *uint     `gorm:"index" json:"search_id,omitempty"`
	ResultID      *uint     `gorm:"index" json:"result_id,omitempty"`
	ClickedAt     time.Time `gorm:"index;index:idx_clicks_user_clicked_at" json:"clicked_at"`
	PartnerDomain string    `gorm:"size:255;index" json:"partner_domain,omitempty"`
	PartnerName   string    `gorm:"size:255;index" json:"partner_name,omitempty"`
	Brand         string    `gorm:"size:255;index" json:"brand,omitempty"`
	ItemTitle     string    `gorm:"size:512" json:"item_title,omitempty"`
	Price         string    `gorm:"size:50" json:"price,omitempty"`
	ResultRank    *int      `json:"result_rank,omitempty"`
	OriginalURL   string    `gorm:"size:1024" json:"original_url,omitempty"`
	AffiliateURL  string    `gorm:"size:1024" json:"affiliate_url,omitempty"`
	DeviceType    string    `gorm:"size:20" json:"device_type,omitempty"`
	Country       string    `gorm:"size:100" json:"country,omitempty"`
}

func (ClickEvent) TableName() string {
	return "click_events"
}
