package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/config"
	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/models"
	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.AnonymousUser{},
		&models.ImageSearch{},
		&models.SearchResult{},
		&models.ClickEvent{},
		&models.Ticket{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	dispatcher := services.NewDispatcher(logger, services.NewFCMProvider(config.Config{}, logger), services.NewAPNSProvider(config.Config{}, logger))

	h := NewHandler(
		config.Config{},
		logger,
		db,
		nil,
		services.NewAdminService(db, logger),
		services.NewTicketService(db, logger, dispatcher, nil),
		services.NewUserService(db, logger, nil),
	)
	return h.SetupRouter(nil), db
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := doJSON(router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestDashboardEndpoint(t *testing.T) {
	router, db := setupTestRouter(t)
	db.Create(&models.ImageSearch{SearchTime: time.Now().UTC()})

	t.Run("Returns the snapshot", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/dashboard", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(1), body["total_searches"])
		assert.Len(t, body["seven_day_trend"], 7)
	})

	t.Run("Rejects a bad lookback", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/dashboard?days=soon", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListEndpoints(t *testing.T) {
	router, db := setupTestRouter(t)
	db.Create(&models.ClickEvent{UserID: "u1", ClickedAt: time.Now().UTC(), PartnerName: "Amazon"})

	t.Run("Malformed date filter is a 400", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/searches?start_date=01-06-2025", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "start_date")
	})

	t.Run("Out-of-range per_page is a 400", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/clicks?per_page=500", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid group flag is a 400", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/clicks?group_by_user=maybe", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "group_by_user")
	})

	t.Run("Grouped clicks include the rollup", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/clicks?group_by_user=true", nil)

		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			GroupedByUser bool `json:"grouped_by_user"`
			UserGroups    []struct {
				UserID      string `json:"user_id"`
				TotalClicks int64  `json:"total_clicks"`
			} `json:"user_groups"`
			Total int64 `json:"total"`
		}
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.True(t, body.GroupedByUser)
		assert.Equal(t, int64(1), body.Total)
		assert.Len(t, body.UserGroups, 1)
		assert.Equal(t, "u1", body.UserGroups[0].UserID)
	})
}

func TestTicketEndpoints(t *testing.T) {
	router, db := setupTestRouter(t)
	db.Create(&models.AnonymousUser{UserID: "u1", FirstSeen: time.Now().UTC(), LastActive: time.Now().UTC()})

	t.Run("Submit, resolve and list a ticket", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/users/u1/tickets", map[string]interface{}{
			"user_note": "find this jacket",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var created models.Ticket
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.Equal(t, models.TicketOpen, created.Status)

		w = doJSON(router, http.MethodPut, "/api/v1/admin/tickets/1", map[string]interface{}{
			"status":      "resolved",
			"resolved_by": "admin1",
		})
		assert.Equal(t, http.StatusOK, w.Code)

		var resolved models.Ticket
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resolved))
		assert.Equal(t, models.TicketResolved, resolved.Status)
		assert.Equal(t, "admin1", resolved.ResolvedBy)
		assert.NotNil(t, resolved.ResolvedAt)

		w = doJSON(router, http.MethodGet, "/api/v1/users/u1/tickets", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "resolved")
	})

	t.Run("Unknown ticket is a 404", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/v1/admin/tickets/9999", map[string]interface{}{
			"status": "resolved",
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid status is a 400", func(t *testing.T) {
		w := doJSON(router, http.MethodPut, "/api/v1/admin/tickets/1", map[string]interface{}{
			"status": "fixed",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "status")
	})

	t.Run("Non-numeric id is a 400", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/admin/tickets/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserEndpoints(t *testing.T) {
	router, _ := setupTestRouter(t)

	t.Run("Create returns the new user", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/users/create", map[string]interface{}{
			"device_type": "Android",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var user models.AnonymousUser
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.NotEmpty(t, user.UserID)
		assert.Equal(t, "Android", user.DeviceType)
	})

	t.Run("Stats for an unknown user is a 404", func(t *testing.T) {
		w := doJSON(router, http.MethodGet, "/api/v1/users/nope/stats", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Click ingest returns the stored event", func(t *testing.T) {
		w := doJSON(router, http.MethodPost, "/api/v1/users/u9/clicks", map[string]interface{}{
			"partner_name": "Amazon",
			"item_title":   "red dress",
		})
		assert.Equal(t, http.StatusCreated, w.Code)

		var click models.ClickEvent
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &click))
		assert.Equal(t, "u9", click.UserID)
		assert.Equal(t, "Amazon", click.PartnerName)
	})
}
