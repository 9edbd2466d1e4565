package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/config"
	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Handler struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *gorm.DB
	rdb     *redis.Client
	admin   *services.AdminService
	tickets *services.TicketService
	users   *services.UserService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	db *gorm.DB,
	rdb *redis.Client,
	admin *services.AdminService,
	tickets *services.TicketService,
	users *services.UserService,
) *Handler {
	return &Handler{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		rdb:     rdb,
		admin:   admin,
		tickets: tickets,
		users:   users,
	}
}

// renderError maps the service error taxonomy onto status codes: validation
// faults are 400, missing ids 404, everything else a logged 500.
func (h *Handler) renderError(c *gin.Context, op string, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, services.ErrTicketNotFound),
		errors.Is(err, services.ErrSearchNotFound),
		errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Request failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func parsePage(c *gin.Context) (services.Page, error) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		return services.Page{}, &services.ValidationError{Field: "page", Reason: "must be an integer"}
	}
	perPage, err := strconv.Atoi(c.DefaultQuery("per_page", "50"))
	if err != nil {
		return services.Page{}, &services.ValidationError{Field: "per_page", Reason: "must be an integer"}
	}
	p := services.Page{Number: page, PerPage: perPage}
	return p, p.Validate()
}

func parseFilters(c *gin.Context) (services.ListFilters, error) {
	start, end, err := services.ParseDateRange(c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		return services.ListFilters{}, err
	}
	return services.ListFilters{
		StartDate:   start,
		EndDate:     end,
		UserID:      c.Query("user_id"),
		DeviceType:  c.Query("device_type"),
		Country:     c.Query("country"),
		PartnerName: c.Query("partner_name"),
		Status:      c.Query("status"),
	}, nil
}

func parseID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		return 0, &services.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return uint(id), nil
}
