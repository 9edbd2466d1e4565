package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TicketService owns the ticket lifecycle. Status is operator-settable; the
// one guarded edge is the transition into resolved, which stamps resolved_at
// and dispatches a single notification after the update commits.
type TicketService struct {
	db       *gorm.DB
	logger   *slog.Logger
	notifier Notifier
	audit    *AuditService
	now      func() time.Time
}

func NewTicketService(db *gorm.DB, logger *slog.Logger, notifier Notifier, audit *AuditService) *TicketService {
	return &TicketService{
		db:       db,
		logger:   logger,
		notifier: notifier,
		audit:    audit,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

type CreateTicketDTO struct {
	UserID           string
	SearchID         *uint
	UserNote         string
	CropImageURL     string
	OriginalImageURL string
}

func (s *TicketService) Create(dto CreateTicketDTO) (*models.Ticket, error) {
	now := s.now()
	ticket := models.Ticket{
		UserID:           dto.UserID,
		SearchID:         dto.SearchID,
		UserNote:         dto.UserNote,
		CropImageURL:     dto.CropImageURL,
		OriginalImageURL: dto.OriginalImageURL,
		Status:           models.TicketOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.db.Create(&ticket).Error; err != nil {
		return nil, fmt.Errorf("create ticket: %w", err)
	}

	s.logger.Info("Created ticket", "ticket_id", ticket.ID, "user_id", dto.UserID)
	return &ticket, nil
}

// UpdateTicketDTO carries the operator's changes. Nil pointers mean "leave
// the field alone"; non-nil values overwrite unconditionally.
type UpdateTicketDTO struct {
	Status        *string
	AdminNotes    *string
	ManualResults *string
	ResolvedBy    string
}

// Update applies an operator update inside one transaction covering the read
// of the current status and the write of the new one, so two concurrent
// resolves cannot both observe "not yet resolved". Setting status=resolved on
// an already-resolved ticket is a no-op for resolved_at, resolved_by and the
// notification. The notification is dispatched only after the commit and its
// outcome never affects the returned ticket.
func (s *TicketService) Update(ctx context.Context, ticketID uint, dto UpdateTicketDTO) (*models.Ticket, error) {
	var ticket models.Ticket
	var notify bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		q := tx
		if tx.Dialector.Name() == "postgres" {
			// sqlite serializes writers on its own; postgres needs the row lock.
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.First(&ticket, ticketID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTicketNotFound
			}
			return fmt.Errorf("load ticket %d: %w", ticketID, err)
		}

		if dto.Status != nil {
			status, ok := models.ParseTicketStatus(*dto.Status)
			if !ok {
				return &ValidationError{Field: "status", Reason: "must be one of open, in_progress, resolved, closed"}
			}
			previous := ticket.Status
			ticket.Status = status
			if status == models.TicketResolved && previous != models.TicketResolved {
				resolvedAt := s.now()
				ticket.ResolvedAt = &resolvedAt
				if dto.ResolvedBy != "" {
					ticket.ResolvedBy = dto.ResolvedBy
				}
				notify = true
			}
		}

		if dto.AdminNotes != nil {
			ticket.AdminNotes = *dto.AdminNotes
		}
		if dto.ManualResults != nil {
			ticket.ManualResults = *dto.ManualResults
		}
		ticket.UpdatedAt = s.now()

		if err := tx.Save(&ticket).Error; err != nil {
			return fmt.Errorf("save ticket %d: %w", ticketID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		s.audit.Record(dto.ResolvedBy, "UPDATE_TICKET", fmt.Sprint(ticket.ID), map[string]interface{}{
			"status": ticket.Status,
		})
	}

	if notify {
		s.dispatchResolved(ctx, &ticket)
	}

	s.logger.Info("Updated ticket", "ticket_id", ticketID, "status", ticket.Status)
	return &ticket, nil
}

// dispatchResolved is the single call site where notification failures are
// observed, logged and discarded. Ticket data integrity never depends on
// notification infrastructure being up.
func (s *TicketService) dispatchResolved(ctx context.Context, ticket *models.Ticket) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var user models.AnonymousUser
	if err := s.db.Where("user_id = ?", ticket.UserID).First(&user).Error; err != nil {
		s.logger.Warn("Resolved-ticket user lookup failed", "ticket_id", ticket.ID, "user_id", ticket.UserID, "error", err)
		return
	}

	delivered, err := s.notifier.Send(ctx, Notification{
		UserID: ticket.UserID,
		Title:  "Item found!",
		Body:   "One of our specialists sourced an item for you.",
		Data: map[string]interface{}{
			"type":      "ticket_resolved",
			"ticket_id": ticket.ID,
			"user_id":   ticket.UserID,
		},
		DeviceToken: user.DeviceToken,
		DeviceType:  user.DeviceType,
	})
	if err != nil {
		s.logger.Warn("Resolved-ticket notification failed", "ticket_id", ticket.ID, "user_id", ticket.UserID, "error", err)
		return
	}
	if !delivered {
		s.logger.Warn("Resolved-ticket notification not delivered", "ticket_id", ticket.ID, "user_id", ticket.UserID)
	}
}

type TicketList struct {
	Tickets []models.Ticket `json:"tickets"`
	Pagination
}

func (s *TicketService) List(f ListFilters, p Page) (*TicketList, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if f.Status != "" {
		if _, ok := models.ParseTicketStatus(f.Status); !ok {
			return nil, &ValidationError{Field: "status", Reason: "must be one of open, in_progress, resolved, closed"}
		}
	}

	var total int64
	if err := f.Apply(s.db.Model(&models.Ticket{}), "created_at").Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count tickets: %w", err)
	}

	tickets := []models.Ticket{}
	if err := f.Apply(s.db.Model(&models.Ticket{}), "created_at").
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	return &TicketList{Tickets: tickets, Pagination: NewPagination(total, p)}, nil
}

type TicketDetails struct {
	Ticket        models.Ticket         `json:"ticket"`
	Search        *models.ImageSearch   `json:"search"`
	SearchResults []models.SearchResult `json:"search_results"`
}

func (s *TicketService) Details(ticketID uint) (*TicketDetails, error) {
	var ticket models.Ticket
	if err := s.db.First(&ticket, ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("load ticket %d: %w", ticketID, err)
	}

	details := &TicketDetails{Ticket: ticket, SearchResults: []models.SearchResult{}}

	if ticket.SearchID != nil {
		var search models.ImageSearch
		err := s.db.First(&search, *ticket.SearchID).Error
		if err == nil {
			details.Search = &search
			if err := s.db.Where("search_id = ?", *ticket.SearchID).Find(&details.SearchResults).Error; err != nil {
				return nil, fmt.Errorf("load results for ticket %d: %w", ticketID, err)
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load search for ticket %d: %w", ticketID, err)
		}
	}

	return details, nil
}

func (s *TicketService) ListForUser(userID string, p Page) (*TicketList, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var total int64
	if err := s.db.Model(&models.Ticket{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count user tickets: %w", err)
	}

	tickets := []models.Ticket{}
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(p.Offset()).
		Limit(p.PerPage).
		Find(&tickets).Error; err != nil {
		return nil, fmt.Errorf("list user tickets: %w", err)
	}

	return &TicketList{Tickets: tickets, Pagination: NewPagination(total, p)}, nil
}
