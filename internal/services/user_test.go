package services

import (
	"testing"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/models"

	"github.com/stretchr/testify/assert"
)

const iphoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15"

func TestCreateUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, testLogger(), nil)

	t.Run("Assigns a uuid and stamps activity", func(t *testing.T) {
		user, err := service.Create(CreateUserDTO{DeviceType: "Android", Country: "DE"})

		assert.NoError(t, err)
		assert.Len(t, user.UserID, 36)
		assert.Equal(t, "Android", user.DeviceType)
		assert.Equal(t, "DE", user.Country)
		assert.True(t, user.IsActive)
		assert.Equal(t, user.FirstSeen, user.LastActive)
	})

	t.Run("Falls back to the User-Agent for device type", func(t *testing.T) {
		user, err := service.Create(CreateUserDTO{UserAgent: iphoneUA})

		assert.NoError(t, err)
		assert.Equal(t, "iOS", user.DeviceType)
	})
}

func TestGetOrCreateUser(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, testLogger(), nil)
	first := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return first }

	existing, err := service.Create(CreateUserDTO{DeviceType: "Android"})
	assert.NoError(t, err)

	t.Run("Known id refreshes activity and device info", func(t *testing.T) {
		later := first.Add(48 * time.Hour)
		service.now = func() time.Time { return later }

		user, err := service.GetOrCreate(existing.UserID, CreateUserDTO{DeviceToken: "fresh-token"})

		assert.NoError(t, err)
		assert.Equal(t, existing.UserID, user.UserID)
		assert.True(t, user.LastActive.Equal(later))
		assert.True(t, user.FirstSeen.Equal(first))
		assert.Equal(t, "fresh-token", user.DeviceToken)
		assert.Equal(t, "Android", user.DeviceType)
	})

	t.Run("Unknown id creates a new user", func(t *testing.T) {
		user, err := service.GetOrCreate("missing-id", CreateUserDTO{DeviceType: "iOS"})

		assert.NoError(t, err)
		assert.NotEqual(t, "missing-id", user.UserID)
		assert.Equal(t, "iOS", user.DeviceType)
	})

	t.Run("Empty id creates a new user", func(t *testing.T) {
		user, err := service.GetOrCreate("", CreateUserDTO{})

		assert.NoError(t, err)
		assert.NotEmpty(t, user.UserID)
	})
}

func TestUpdatePreferences(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, testLogger(), nil)

	user, err := service.Create(CreateUserDTO{Preferences: `{"sizes":["M"]}`})
	assert.NoError(t, err)

	t.Run("Overwrites stored preferences", func(t *testing.T) {
		updated, err := service.UpdatePreferences(user.UserID, `{"sizes":["L"]}`)

		assert.NoError(t, err)
		assert.Equal(t, `{"sizes":["L"]}`, updated.Preferences)
	})

	t.Run("Unknown user is NotFound", func(t *testing.T) {
		_, err := service.UpdatePreferences("nope", `{}`)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestRecordClick(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, testLogger(), nil)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	t.Run("Stores the event with enrichment fallbacks", func(t *testing.T) {
		click, err := service.RecordClick(ClickDTO{
			UserID:      "u1",
			PartnerName: "Amazon",
			ItemTitle:   "red dress",
			UserAgent:   iphoneUA,
		})

		assert.NoError(t, err)
		assert.NotZero(t, click.ID)
		assert.True(t, click.ClickedAt.Equal(now))
		assert.Equal(t, "iOS", click.DeviceType)

		var stored models.ClickEvent
		assert.NoError(t, db.First(&stored, click.ID).Error)
		assert.Equal(t, "Amazon", stored.PartnerName)
	})

	t.Run("Explicit device type wins over the User-Agent", func(t *testing.T) {
		click, err := service.RecordClick(ClickDTO{UserID: "u1", DeviceType: "Android", UserAgent: iphoneUA})

		assert.NoError(t, err)
		assert.Equal(t, "Android", click.DeviceType)
	})
}

func TestUserStats(t *testing.T) {
	db := setupTestDB(t)
	service := NewUserService(db, testLogger(), nil)

	user, err := service.Create(CreateUserDTO{DeviceType: "iOS"})
	assert.NoError(t, err)

	now := time.Now().UTC()
	db.Create(&models.ImageSearch{UserID: &user.UserID, SearchTime: now})
	db.Create(&models.ImageSearch{UserID: &user.UserID, SearchTime: now})
	db.Create(&models.ClickEvent{UserID: user.UserID, ClickedAt: now, PartnerName: "Amazon"})
	db.Create(&models.ClickEvent{UserID: user.UserID, ClickedAt: now, PartnerName: "Amazon"})
	db.Create(&models.ClickEvent{UserID: user.UserID, ClickedAt: now, PartnerName: "eBay"})

	t.Run("Aggregates the user's activity", func(t *testing.T) {
		stats, err := service.Stats(user.UserID)

		assert.NoError(t, err)
		assert.Equal(t, int64(2), stats.TotalSearches)
		assert.Equal(t, int64(3), stats.TotalClicks)
		assert.Equal(t, 1.5, stats.ClicksPerSearch)
		assert.Equal(t, []PartnerClicks{
			{Name: "Amazon", Clicks: 2},
			{Name: "eBay", Clicks: 1},
		}, stats.FavoritePartners)
	})

	t.Run("Unknown user is NotFound", func(t *testing.T) {
		_, err := service.Stats("nope")
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
