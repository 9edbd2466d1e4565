package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/services"

	"github.com/gin-gonic/gin"
)

type createUserRequest struct {
	UserID      string          `json:"user_id,omitempty"`
	DeviceType  string          `json:"device_type,omitempty"`
	DeviceID    string          `json:"device_id,omitempty"`
	DeviceToken string          `json:"device_token,omitempty"`
	Country     string          `json:"country,omitempty"`
	Preferences json.RawMessage `json:"preferences,omitempty"`
}

func (r createUserRequest) toDTO(c *gin.Context) services.CreateUserDTO {
	return services.CreateUserDTO{
		DeviceType:  r.DeviceType,
		DeviceID:    r.DeviceID,
		DeviceToken: r.DeviceToken,
		Country:     r.Country,
		Preferences: string(r.Preferences),
		UserAgent:   c.GetHeader("User-Agent"),
		IPAddress:   c.ClientIP(),
	}
}

func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.Create(req.toDTO(c))
	if err != nil {
		h.renderError(c, "create user", err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *Handler) GetOrCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.GetOrCreate(req.UserID, req.toDTO(c))
	if err != nil {
		h.renderError(c, "get or create user", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) UpdatePreferences(c *gin.Context) {
	var req struct {
		Preferences json.RawMessage `json:"preferences" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdatePreferences(c.Param("user_id"), string(req.Preferences))
	if err != nil {
		h.renderError(c, "update preferences", err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) GetUserStats(c *gin.Context) {
	stats, err := h.users.Stats(c.Param("user_id"))
	if err != nil {
		h.renderError(c, "user stats", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type recordClickRequest struct {
	SearchID      *uint  `json:"search_id,omitempty"`
	ResultID      *uint  `json:"result_id,omitempty"`
	PartnerDomain string `json:"partner_domain,omitempty"`
	PartnerName   string `json:"partner_name,omitempty"`
	Brand         string `json:"brand,omitempty"`
	ItemTitle     string `json:"item_title,omitempty"`
	Price         string `json:"price,omitempty"`
	ResultRank    *int   `json:"result_rank,omitempty"`
	OriginalURL   string `json:"original_url,omitempty"`
	AffiliateURL  string `json:"affiliate_url,omitempty"`
	DeviceType    string `json:"device_type,omitempty"`
	Country       string `json:"country,omitempty"`
}

func (h *Handler) RecordClick(c *gin.Context) {
	var req recordClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	click, err := h.users.RecordClick(services.ClickDTO{
		UserID:        c.Param("user_id"),
		SearchID:      req.SearchID,
		ResultID:      req.ResultID,
		PartnerDomain: req.PartnerDomain,
		PartnerName:   req.PartnerName,
		Brand:         req.Brand,
		ItemTitle:     req.ItemTitle,
		Price:         req.Price,
		ResultRank:    req.ResultRank,
		OriginalURL:   req.OriginalURL,
		AffiliateURL:  req.AffiliateURL,
		DeviceType:    req.DeviceType,
		Country:       req.Country,
		UserAgent:     c.GetHeader("User-Agent"),
		IPAddress:     c.ClientIP(),
	})
	if err != nil {
		h.renderError(c, "record click", err)
		return
	}
	c.JSON(http.StatusCreated, click)
}

type submitTicketRequest struct {
	SearchID         *uint  `json:"search_id,omitempty"`
	UserNote         string `json:"user_note,omitempty"`
	CropImageURL     string `json:"crop_image_url,omitempty"`
	OriginalImageURL string `json:"original_image_url,omitempty"`
}

func (h *Handler) SubmitTicket(c *gin.Context) {
	var req submitTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.tickets.Create(services.CreateTicketDTO{
		UserID:           c.Param("user_id"),
		SearchID:         req.SearchID,
		UserNote:         req.UserNote,
		CropImageURL:     req.CropImageURL,
		OriginalImageURL: req.OriginalImageURL,
	})
	if err != nil {
		h.renderError(c, "submit ticket", err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *Handler) ListUserTickets(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		h.renderError(c, "list user tickets", err)
		return
	}

	list, err := h.tickets.ListForUser(c.Param("user_id"), page)
	if err != nil {
		h.renderError(c, "list user tickets", err)
		return
	}
	c.JSON(http.StatusOK, list)
}
