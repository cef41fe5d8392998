package tickets

import (
	"seatwave/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupTicketRoutes(router *gin.RouterGroup, controller Controller) {
	// User routes - ticket holders manage their own tickets
	userTickets := router.Group("/tickets")
	userTickets.Use(middleware.JWTAuth())
	{
		userTickets.GET("", controller.ListMyTickets)                  // GET /api/v1/tickets - List my tickets
		userTickets.GET("/:ticketId", controller.GetTicket)            // GET /api/v1/tickets/:ticketId - Ticket details
		userTickets.POST("/:ticketId/return", controller.ReturnTicket) // POST /api/v1/tickets/:ticketId/return - Return for partial refund
	}

	// Gate routes - staff scan tickets at entry
	gate := router.Group("/admin/tickets")
	gate.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleOrganizer))
	{
		gate.POST("/verify", controller.VerifyEntry) // POST /api/v1/admin/tickets/verify - Scan QR at the gate
	}
}
