package services

import (
	"time"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// ListFilters is the shared predicate set for every listing query. Omitted
// (zero) fields impose no constraint; set fields combine with AND.
type ListFilters struct {
	StartDate   *time.Time // inclusive
	EndDate     *time.Time // exclusive
	UserID      string
	DeviceType  string
	Country     string
	PartnerName string // click listings only
	Status      string // ticket listings only
}

// ParseDateRange turns calendar-day inputs into a half-open window: the start
// day at midnight, and the day after the end day. Either input may be empty.
func ParseDateRange(startStr, endStr string) (start, end *time.Time, err error) {
	if startStr != "" {
		t, perr := time.Parse(dateLayout, startStr)
		if perr != nil {
			return nil, nil, &ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
		}
		start = &t
	}
	if endStr != "" {
		t, perr := time.Parse(dateLayout, endStr)
		if perr != nil {
			return nil, nil, &ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
		}
		t = t.AddDate(0, 0, 1)
		end = &t
	}
	return start, end, nil
}

// Apply narrows q with every set filter. timeColumn names the table's event
// timestamp (search_time, clicked_at, created_at).
func (f ListFilters) Apply(q *gorm.DB, timeColumn string) *gorm.DB {
	if f.StartDate != nil {
		q = q.Where(timeColumn+" >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where(timeColumn+" < ?", *f.EndDate)
	}
	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.DeviceType != "" {
		q = q.Where("device_type = ?", f.DeviceType)
	}
	if f.Country != "" {
		q = q.Where("country = ?", f.Country)
	}
	if f.PartnerName != "" {
		q = q.Where("partner_name = ?", f.PartnerName)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

// Page is a validated 1-based page window.
type Page struct {
	Number  int
	PerPage int
}

func (p Page) Validate() error {
	if p.Number < 1 {
		return &ValidationError{Field: "page", Reason: "must be >= 1"}
	}
	if p.PerPage < 1 || p.PerPage > 100 {
		return &ValidationError{Field: "per_page", Reason: "must be between 1 and 100"}
	}
	return nil
}

func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// TotalPages is ceil(total/perPage), computed from the filtered count.
func TotalPages(total int64, perPage int) int {
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// Pagination is the metadata block attached to every listing response.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(total int64, p Page) Pagination {
	return Pagination{
		Total:      total,
		Page:       p.Number,
		PerPage:    p.PerPage,
		TotalPages: TotalPages(total, p.PerPage),
	}
}
