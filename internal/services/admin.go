package services

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/models"

	"gorm.io/gorm"
)

// AdminService computes the operator-facing reports: the dashboard snapshot
// and the filtered search/click/user listings.
type AdminService struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewAdminService(db *gorm.DB, logger *slog.Logger) *AdminService {
	return &AdminService{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type PartnerClicks struct {
	Name   string `json:"name"`
	Clicks int64  `json:"clicks"`
}

type SourceResults struct {
	Name    string `json:"name"`
	Results int64  `json:"results"`
}

// TrendBucket counts searches and clicks in one half-open time window.
// Date is set for daily buckets, Week for weekly ones.
type TrendBucket struct {
	Date     string `json:"date,omitempty"`
	Week     string `json:"week,omitempty"`
	Searches int64  `json:"searches"`
	Clicks   int64  `json:"clicks"`
}

type DashboardStats struct {
	TotalSearches   int64           `json:"total_searches"`
	TotalClicks     int64           `json:"total_clicks"`
	TotalUsers      int64           `json:"total_users"`
	NewUsers        int64           `json:"new_users"`
	ClicksPerSearch float64         `json:"clicks_per_search"`
	CTR             float64         `json:"ctr"`
	TopPartners     []PartnerClicks `json:"top_partners"`
	TopSources      []SourceResults `json:"top_sources"`
	SevenDayTrend   []TrendBucket   `json:"seven_day_trend"`
	ThirtyDayTrend  []TrendBucket   `json:"thirty_day_trend"`
}

// DashboardStats returns lifetime totals, period metrics over the last
// lookbackDays, top-10 rankings and the daily/weekly trends. Lifetime and
// period counts are computed independently so the lookback window can vary
// without re-deriving totals. CTR and clicks-per-search use the period
// denominator and are 0 when the period has no searches.
func (s *AdminService) DashboardStats(lookbackDays int) (*DashboardStats, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	now := s.now()
	since := now.AddDate(0, 0, -lookbackDays)

	stats := &DashboardStats{}

	if err := s.db.Model(&models.ImageSearch{}).Count(&stats.TotalSearches).Error; err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}
	if err := s.db.Model(&models.ClickEvent{}).Count(&stats.TotalClicks).Error; err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}
	if err := s.db.Model(&models.AnonymousUser{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := s.db.Model(&models.AnonymousUser{}).Where("first_seen >= ?", since).Count(&stats.NewUsers).Error; err != nil {
		return nil, fmt.Errorf("count new users: %w", err)
	}

	var periodSearches, periodClicks int64
	if err := s.db.Model(&models.ImageSearch{}).Where("search_time >= ?", since).Count(&periodSearches).Error; err != nil {
		return nil, fmt.Errorf("count period searches: %w", err)
	}
	if err := s.db.Model(&models.ClickEvent{}).Where("clicked_at >= ?", since).Count(&periodClicks).Error; err != nil {
		return nil, fmt.Errorf("count period clicks: %w", err)
	}
	if periodSearches > 0 {
		stats.CTR = round2(float64(periodClicks) / float64(periodSearches) * 100)
		stats.ClicksPerSearch = round2(float64(periodClicks) / float64(periodSearches))
	}

	// Ties in the rankings break on name ascending so repeated calls over the
	// same data return the same order.
	stats.TopPartners = []PartnerClicks{}
	if err := s.db.Model(&models.ClickEvent{}).
		Select("partner_name AS name, COUNT(*) AS clicks").
		Where("clicked_at >= ? AND partner_name <> ''", since).
		Group("partner_name").
		Order("clicks DESC, partner_name ASC").
		Limit(10).
		Scan(&stats.TopPartners).Error; err != nil {
		return nil, fmt.Errorf("top partners: %w", err)
	}

	stats.TopSources = []SourceResults{}
	if err := s.db.Model(&models.SearchResult{}).
		Select("search_results.source AS name, COUNT(*) AS results").
		Joins("JOIN image_searches ON image_searches.id = search_results.search_id").
		Where("image_searches.search_time >= ? AND search_results.source <> ''", since).
		Group("search_results.source").
		Order("results DESC, search_results.source ASC").
		Limit(10).
		Scan(&stats.TopSources).Error; err != nil {
		return nil, fmt.Errorf("top sources: %w", err)
	}

	var err error
	if stats.SevenDayTrend, err = s.trend(now, 7, 24*time.Hour, true); err != nil {
		return nil, err
	}
	if stats.ThirtyDayTrend, err = s.trend(now, 4, 7*24*time.Hour, false); err != nil {
		return nil, err
	}

	return stats, nil
}

// trend builds n consecutive half-open buckets of the given width ending at
// now, oldest first. The buckets tile [now - n*width, now) exactly.
func (s *AdminService) trend(now time.Time, n int, width time.Duration, daily bool) ([]TrendBucket, error) {
	buckets := make([]TrendBucket, 0, n)
	for i := n - 1; i >= 0; i-- {
		start := now.Add(-time.Duration(i+1) * width)
		end := now.Add(-time.Duration(i) * width)

		searches, err := s.countRange(&models.ImageSearch{}, "search_time", start, end)
		if err != nil {
			return nil, fmt.Errorf("trend searches: %w", err)
		}
		clicks, err := s.countRange(&models.ClickEvent{}, "clicked_at", start, end)
		if err != nil {
			return nil, fmt.Errorf("trend clicks: %w", err)
		}

		bucket := TrendBucket{Searches: searches, Clicks: clicks}
		if daily {
			bucket.Date = start.Format(dateLayout)
		} else {
			bucket.Week = fmt.Sprintf("Week %d", n-i)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, nil
}

func (s *AdminService) countRange(model interface{}, column string, start, end time.Time) (int64, error) {
	var n int64
	err := s.db.Model(model).
		Where(column+" >= ? AND "+column+" < ?", start, end).
		Count(&n).Error
	return n, err
}

// SearchRow is a listed search enriched with its child counts. The counts are
// computed against the unfiltered child tables: filtering the parent list
// never hides a search's true result or click count.
type SearchRow struct {
	models.ImageSearch
	ResultCount int64 `json:"result_count"`
	ClickCount  int64 `json:"click_count"`
}

type SearchList struct {
	Searches []SearchRow `json:"searches"`
	Pagination
}

func (s *AdminService) ListSearches(f ListFilters, p Page) (*SearchList, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var total int64
	if err := f.Apply(s.db.Model(&models.ImageSearch{}), "search_time").Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count searches: %w", err)
	}

	var searches []models.ImageSearch
	if err := f.Apply(s.db.Model(&models.ImageSearch{}), "search_time").
		Order("search_time DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&searches).Error; err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}

	ids := make([]uint, len(searches))
	for i, search := range searches {
		ids[i] = search.ID
	}

	// One grouped query per child table for the whole page, keyed by the
	// page's id set, instead of two counts per row.
	resultCounts, err := s.childCounts(&models.SearchResult{}, ids)
	if err != nil {
		return nil, fmt.Errorf("result counts: %w", err)
	}
	clickCounts, err := s.childCounts(&models.ClickEvent{}, ids)
	if err != nil {
		return nil, fmt.Errorf("click counts: %w", err)
	}

	rows := make([]SearchRow, len(searches))
	for i, search := range searches {
		rows[i] = SearchRow{
			ImageSearch: search,
			ResultCount: resultCounts[search.ID],
			ClickCount:  clickCounts[search.ID],
		}
	}

	return &SearchList{Searches: rows, Pagination: NewPagination(total, p)}, nil
}

func (s *AdminService) childCounts(model interface{}, searchIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(searchIDs))
	if len(searchIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		SearchID uint
		Count    int64
	}
	if err := s.db.Model(model).
		Select("search_id, COUNT(*) AS count").
		Where("search_id IN ?", searchIDs).
		Group("search_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		counts[r.SearchID] = r.Count
	}
	return counts, nil
}

type SearchDetails struct {
	Search  models.ImageSearch    `json:"search"`
	User    *models.AnonymousUser `json:"user"`
	Results []models.SearchResult `json:"results"`
	Clicks  []models.ClickEvent   `json:"clicks"`
}

func (s *AdminService) SearchDetails(searchID uint) (*SearchDetails, error) {
	var search models.ImageSearch
	if err := s.db.First(&search, searchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSearchNotFound
		}
		return nil, fmt.Errorf("load search %d: %w", searchID, err)
	}

	details := &SearchDetails{Search: search, Results: []models.SearchResult{}, Clicks: []models.ClickEvent{}}

	if err := s.db.Where("search_id = ?", searchID).Order("id").Find(&details.Results).Error; err != nil {
		return nil, fmt.Errorf("load results for search %d: %w", searchID, err)
	}
	if err := s.db.Where("search_id = ?", searchID).Order("clicked_at").Find(&details.Clicks).Error; err != nil {
		return nil, fmt.Errorf("load clicks for search %d: %w", searchID, err)
	}

	if search.UserID != nil {
		var user models.AnonymousUser
		if err := s.db.Where("user_id = ?", *search.UserID).First(&user).Error; err == nil {
			details.User = &user
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user for search %d: %w", searchID, err)
		}
	}

	return details, nil
}

// UserClickGroup is one grouped-mode row: a distinct user with its click
// rollup. searches_with_clicks counts distinct non-null search ids, so it
// never exceeds total_clicks.
type UserClickGroup struct {
	UserID             string    `json:"user_id"`
	TotalClicks        int64     `json:"total_clicks"`
	SearchesWithClicks int64     `json:"searches_with_clicks"`
	LastClick          time.Time `json:"last_click"`
}

type ClickList struct {
	Clicks        []models.ClickEvent `json:"clicks"`
	UserGroups    []UserClickGroup    `json:"user_groups"`
	GroupedByUser bool                `json:"grouped_by_user"`
	Pagination
}

// ListClicks returns either flat click rows (ordered clicked_at descending) or
// per-user rollups (ordered last_click descending) over the same filtered
// set. In grouped mode the unit of pagination is the distinct user, not the
// click row.
func (s *AdminService) ListClicks(f ListFilters, p Page, groupByUser bool) (*ClickList, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if groupByUser {
		var total int64
		if err := f.Apply(s.db.Model(&models.ClickEvent{}), "clicked_at").
			Distinct("user_id").
			Count(&total).Error; err != nil {
			return nil, fmt.Errorf("count click groups: %w", err)
		}

		groups := []UserClickGroup{}
		if err := f.Apply(s.db.Model(&models.ClickEvent{}), "clicked_at").
			Select("user_id, COUNT(*) AS total_clicks, COUNT(DISTINCT search_id) AS searches_with_clicks, MAX(clicked_at) AS last_click").
			Group("user_id").
			Order("last_click DESC").
			Offset(p.Offset()).
			Limit(p.PerPage).
			Scan(&groups).Error; err != nil {
			return nil, fmt.Errorf("list click groups: %w", err)
		}

		return &ClickList{
			UserGroups:    groups,
			GroupedByUser: true,
			Pagination:    NewPagination(total, p),
		}, nil
	}

	var total int64
	if err := f.Apply(s.db.Model(&models.ClickEvent{}), "clicked_at").Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}

	clicks := []models.ClickEvent{}
	if err := f.Apply(s.db.Model(&models.ClickEvent{}), "clicked_at").
		Order("clicked_at DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&clicks).Error; err != nil {
		return nil, fmt.Errorf("list clicks: %w", err)
	}

	return &ClickList{Clicks: clicks, Pagination: NewPagination(total, p)}, nil
}

type UserList struct {
	Users []models.AnonymousUser `json:"users"`
	Pagination
}

// ListUsers pages through users by last_active descending; date filters apply
// to first_seen.
func (s *AdminService) ListUsers(f ListFilters, p Page) (*UserList, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var total int64
	if err := f.Apply(s.db.Model(&models.AnonymousUser{}), "first_seen").Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	users := []models.AnonymousUser{}
	if err := f.Apply(s.db.Model(&models.AnonymousUser{}), "first_seen").
		Order("last_active DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserList{Users: users, Pagination: NewPagination(total, p)}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
