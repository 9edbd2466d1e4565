package handlers

import (
	"net/http"

	"github.com/adamwyrzycki28-sudo/Snapped-final/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the JSON API. Admin routes are expected to sit behind an
// external gate; the public user routes get per-IP rate limiting.
func (h *Handler) SetupRouter(rateLimiter *middleware.IPRateLimiter) *gin.Engine {
	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api/v1")

	users := api.Group("/users")
	if rateLimiter != nil {
		users.Use(middleware.RateLimit(rateLimiter))
	}
	{
		users.POST("/create", h.CreateUser)
		users.POST("/get-or-create", h.GetOrCreateUser)
		users.PUT("/:user_id/preferences", h.UpdatePreferences)
		users.GET("/:user_id/stats", h.GetUserStats)
		users.POST("/:user_id/clicks", h.RecordClick)
		users.POST("/:user_id/tickets", h.SubmitTicket)
		users.GET("/:user_id/tickets", h.ListUserTickets)
	}

	admin := api.Group("/admin")
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.GET("/searches", h.ListSearches)
		admin.GET("/searches/:search_id", h.GetSearchDetails)
		admin.GET("/clicks", h.ListClicks)
		admin.GET("/users", h.ListUsers)
		admin.GET("/tickets", h.ListTickets)
		admin.GET("/tickets/:ticket_id", h.GetTicketDetails)
		admin.PUT("/tickets/:ticket_id", h.UpdateTicket)
	}

	return r
}
