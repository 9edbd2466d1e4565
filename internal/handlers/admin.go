package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/services"

	"github.com/gin-gonic/gin"
)

const dashboardCacheTTL = 60 * time.Second

// GetDashboard serves the aggregated dashboard snapshot. The response is
// cached in redis for a minute per lookback window; the engine itself stays
// stateless.
func (h *Handler) GetDashboard(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 {
		h.renderError(c, "dashboard", &services.ValidationError{Field: "days", Reason: "must be a positive integer"})
		return
	}

	cacheKey := "dashboard:" + strconv.Itoa(days)
	if h.rdb != nil {
		if cached, err := h.rdb.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json; charset=utf-8", cached)
			return
		}
	}

	stats, err := h.admin.DashboardStats(days)
	if err != nil {
		h.renderError(c, "dashboard", err)
		return
	}

	if h.rdb != nil {
		if body, err := json.Marshal(stats); err == nil {
			h.rdb.Set(c.Request.Context(), cacheKey, body, dashboardCacheTTL)
		}
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) ListSearches(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.renderError(c, "list searches", err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		h.renderError(c, "list searches", err)
		return
	}

	list, err := h.admin.ListSearches(filters, page)
	if err != nil {
		h.renderError(c, "list searches", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSearchDetails(c *gin.Context) {
	searchID, err := parseID(c, "search_id")
	if err != nil {
		h.renderError(c, "search details", err)
		return
	}

	details, err := h.admin.SearchDetails(searchID)
	if err != nil {
		h.renderError(c, "search details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) ListClicks(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.renderError(c, "list clicks", err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		h.renderError(c, "list clicks", err)
		return
	}

	groupByUser := false
	if raw := c.Query("group_by_user"); raw != "" {
		groupByUser, err = strconv.ParseBool(raw)
		if err != nil {
			h.renderError(c, "list clicks", &services.ValidationError{Field: "group_by_user", Reason: "must be a boolean"})
			return
		}
	}

	list, err := h.admin.ListClicks(filters, page, groupByUser)
	if err != nil {
		h.renderError(c, "list clicks", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListUsers(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.renderError(c, "list users", err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		h.renderError(c, "list users", err)
		return
	}

	list, err := h.admin.ListUsers(filters, page)
	if err != nil {
		h.renderError(c, "list users", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) ListTickets(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		h.renderError(c, "list tickets", err)
		return
	}
	page, err := parsePage(c)
	if err != nil {
		h.renderError(c, "list tickets", err)
		return
	}

	list, err := h.tickets.List(filters, page)
	if err != nil {
		h.renderError(c, "list tickets", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetTicketDetails(c *gin.Context) {
	ticketID, err := parseID(c, "ticket_id")
	if err != nil {
		h.renderError(c, "ticket details", err)
		return
	}

	details, err := h.tickets.Details(ticketID)
	if err != nil {
		h.renderError(c, "ticket details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

type updateTicketRequest struct {
	Status        *string `json:"status"`
	AdminNotes    *string `json:"admin_notes"`
	ManualResults *string `json:"manual_results"`
	ResolvedBy    string  `json:"resolved_by"`
}

func (h *Handler) UpdateTicket(c *gin.Context) {
	ticketID, err := parseID(c, "ticket_id")
	if err != nil {
		h.renderError(c, "update ticket", err)
		return
	}

	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.tickets.Update(c.Request.Context(), ticketID, services.UpdateTicketDTO{
		Status:        req.Status,
		AdminNotes:    req.AdminNotes,
		ManualResults: req.ManualResults,
		ResolvedBy:    req.ResolvedBy,
	})
	if err != nil {
		h.renderError(c, "update ticket", err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}
