package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/models"
	"github.com/adamwyrzycki28-sudo/Snapped-final/pkg/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserService handles the anonymous-user lifecycle and click-event ingest.
type UserService struct {
	db     *gorm.DB
	logger *slog.Logger
	geo    *GeoIPService
	now    func() time.Time
}

func NewUserService(db *gorm.DB, logger *slog.Logger, geo *GeoIPService) *UserService {
	return &UserService{
		db:     db,
		logger: logger,
		geo:    geo,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type CreateUserDTO struct {
	DeviceType  string
	DeviceID    string
	DeviceToken string
	Country     string
	Preferences string // raw JSON, stored as-is
	UserAgent   string // fallback for device type
	IPAddress   string // fallback for country
}

func (s *UserService) Create(dto CreateUserDTO) (*models.AnonymousUser, error) {
	now := s.now()
	user := models.AnonymousUser{
		UserID:      uuid.NewString(),
		DeviceType:  s.deviceType(dto.DeviceType, dto.UserAgent),
		DeviceID:    dto.DeviceID,
		DeviceToken: dto.DeviceToken,
		Country:     s.country(dto.Country, dto.IPAddress),
		FirstSeen:   now,
		LastActive:  now,
		IsActive:    true,
		Preferences: dto.Preferences,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}

	s.logger.Info("Created anonymous user", "user_id", user.UserID)
	return &user, nil
}

// GetOrCreate returns the existing user after bumping last_active and
// refreshing device/country, or creates a fresh one when the id is empty or
// unknown.
func (s *UserService) GetOrCreate(userID string, dto CreateUserDTO) (*models.AnonymousUser, error) {
	if userID != "" {
		var user models.AnonymousUser
		err := s.db.Where("user_id = ?", userID).First(&user).Error
		if err == nil {
			user.LastActive = s.now()
			if dto.DeviceType != "" {
				user.DeviceType = dto.DeviceType
			}
			if dto.DeviceToken != "" {
				user.DeviceToken = dto.DeviceToken
			}
			if dto.Country != "" {
				user.Country = dto.Country
			}
			if err := s.db.Save(&user).Error; err != nil {
				return nil, fmt.Errorf("refresh user %s: %w", userID, err)
			}
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user %s: %w", userID, err)
		}
	}

	return s.Create(dto)
}

func (s *UserService) UpdatePreferences(userID string, preferences string) (*models.AnonymousUser, error) {
	var user models.AnonymousUser
	if err := s.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	user.Preferences = preferences
	user.LastActive = s.now()
	if err := s.db.Save(&user).Error; err != nil {
		return nil, fmt.Errorf("update preferences for %s: %w", userID, err)
	}

	return &user, nil
}

type ClickDTO struct {
	UserID        string
	SearchID      *uint
	ResultID      *uint
	PartnerDomain string
	PartnerName   string
	Brand         string
	ItemTitle     string
	Price         string
	ResultRank    *int
	OriginalURL   string
	AffiliateURL  string
	DeviceType    string
	Country       string
	UserAgent     string
	IPAddress     string
}

// RecordClick stores one click event. Device type and country fall back to
// User-Agent and GeoIP derivation when the client did not send them.
func (s *UserService) RecordClick(dto ClickDTO) (*models.ClickEvent, error) {
	click := models.ClickEvent{
		UserID:        dto.UserID,
		SearchID:      dto.SearchID,
		ResultID:      dto.ResultID,
		ClickedAt:     s.now(),
		PartnerDomain: dto.PartnerDomain,
		PartnerName:   dto.PartnerName,
		Brand:         dto.Brand,
		ItemTitle:     dto.ItemTitle,
		Price:         dto.Price,
		ResultRank:    dto.ResultRank,
		OriginalURL:   dto.OriginalURL,
		AffiliateURL:  dto.AffiliateURL,
		DeviceType:    s.deviceType(dto.DeviceType, dto.UserAgent),
		Country:       s.country(dto.Country, dto.IPAddress),
	}

	if err := s.db.Create(&click).Error; err != nil {
		return nil, fmt.Errorf("record click event: %w", err)
	}

	s.logger.Info("Recorded click event", "user_id", dto.UserID, "partner", dto.PartnerName)
	return &click, nil
}

type UserStats struct {
	UserID           string          `json:"user_id"`
	FirstSeen        time.Time       `json:"first_seen"`
	LastActive       time.Time       `json:"last_active"`
	DeviceType       string          `json:"device_type,omitempty"`
	Country          string          `json:"country,omitempty"`
	TotalSearches    int64           `json:"total_searches"`
	TotalClicks      int64           `json:"total_clicks"`
	ClicksPerSearch  float64         `json:"clicks_per_search"`
	FavoritePartners []PartnerClicks `json:"favorite_partners"`
}

func (s *UserService) Stats(userID string) (*UserStats, error) {
	var user models.AnonymousUser
	if err := s.db.Where("user_id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	stats := &UserStats{
		UserID:           user.UserID,
		FirstSeen:        user.FirstSeen,
		LastActive:       user.LastActive,
		DeviceType:       user.DeviceType,
		Country:          user.Country,
		FavoritePartners: []PartnerClicks{},
	}

	if err := s.db.Model(&models.ImageSearch{}).Where("user_id = ?", userID).Count(&stats.TotalSearches).Error; err != nil {
		return nil, fmt.Errorf("count user searches: %w", err)
	}
	if err := s.db.Model(&models.ClickEvent{}).Where("user_id = ?", userID).Count(&stats.TotalClicks).Error; err != nil {
		return nil, fmt.Errorf("count user clicks: %w", err)
	}
	if stats.TotalSearches > 0 {
		stats.ClicksPerSearch = round2(float64(stats.TotalClicks) / float64(stats.TotalSearches))
	}

	if err := s.db.Model(&models.ClickEvent{}).
		Select("partner_name AS name, COUNT(*) AS clicks").
		Where("user_id = ? AND partner_name <> ''", userID).
		Group("partner_name").
		Order("clicks DESC, partner_name ASC").
		Limit(3).
		Scan(&stats.FavoritePartners).Error; err != nil {
		return nil, fmt.Errorf("favorite partners: %w", err)
	}

	return stats, nil
}

func (s *UserService) deviceType(explicit, userAgent string) string {
	if explicit != "" {
		return explicit
	}
	return utils.DeviceTypeFromUserAgent(userAgent)
}

func (s *UserService) country(explicit, ip string) string {
	if explicit != "" {
		return explicit
	}
	if s.geo == nil || ip == "" {
		return ""
	}
	return s.geo.Country(ip)
}
