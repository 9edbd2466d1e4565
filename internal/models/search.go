package models

import (
	"time"
)

// ImageSearch is one row per search request. Rows are immutable after
// creation; user_id may be empty for anonymous/unlinked searches.
type ImageSearch struct {
	ID                    uint      `gorm:"primaryKey" json:"id"`
	UserID                *string   `gorm:"size:36;index" json:"user_id,omitempty"`
	SearchTime            time.Time `gorm:"index" json:"search_time"`
	ImagePath             string    `gorm:"size:512" json:"image_path,omitempty"`
	OriginalImagePath     string    `gorm:"size:512" json:"original_image_path,omitempty"`
	IsClipped             bool      `json:"is_clipped"`
	CloudinaryURL         string    `gorm:"size:512" json:"cloudinary_url,omitempty"`
	OriginalCloudinaryURL string    `gorm:"size:512" json:"original_cloudinary_url,omitempty"`
	DeviceType            string    `gorm:"size:20" json:"device_type,omitempty"`
	Country               string    `gorm:"size:100" json:"country,omitempty"`

	Results []SearchResult `gorm:"foreignKey:SearchID;constraint:OnDelete:CASCADE" json:"results,omitempty"`
}

func (ImageSearch) TableName() string {
	return "image_searches"
}

// SearchResult rows are created with their parent search and never updated.
type SearchResult struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	SearchID     uint    `gorm:"not null;index" json:"search_id"`
	Title        string  `gorm:"size:512" json:"title,omitempty"`
	Link         string  `gorm:"size:1024" json:"link,omitempty"`
	ImageURL     string  `gorm:"size:1024" json:"image_url,omitempty"`
	Price        string  `gorm:"size:50" json:"price,omitempty"`
	Brand        string  `gorm:"size:255" json:"brand,omitempty"`
	Source       string  `gorm:"size:255;index" json:"source,omitempty"`
	Rating       float64 `json:"rating,omitempty"`
	ReviewsCount int     `json:"reviews_count,omitempty"`
}

func (SearchResult) TableName() string {
	return "search_results"
}
