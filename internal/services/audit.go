package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/models"

	"gorm.io/gorm"
)

// AuditService writes operator-action records off the request path through a
// buffered channel. Entries are dropped rather than blocking a request when
// the buffer is full.
type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	entries chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		entries: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.entries:
			if err := s.db.Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

func (s *AuditService) Record(actor, action, entityID string, details interface{}) {
	detailBytes, _ := json.Marshal(details)

	entry := models.AuditLog{
		Actor:     actor,
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		Timestamp: time.Now().UTC(),
	}

	select {
	case s.entries <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping entry", "action", action)
	}
}
