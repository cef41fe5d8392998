package events

import (
	"seatwave/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupEventRoutes(router *gin.RouterGroup, controller Controller) {
	// Public routes - anyone can browse events and seat maps
	publicEvents := router.Group("/events")
	{
		publicEvents.GET("", controller.GetAllEvents)                           // GET /api/v1/events - Browse all events
		publicEvents.GET("/upcoming", controller.GetUpcomingEvents)             // GET /api/v1/events/upcoming - Browse upcoming events
		publicEvents.GET("/:eventId", controller.GetEvent)                      // GET /api/v1/events/:eventId - Event details
		publicEvents.GET("/:eventId/seating-map", controller.GetSeatingMap)     // GET /api/v1/events/:eventId/seating-map - Map with live statuses
		publicEvents.GET("/:eventId/availability", controller.GetAvailability)  // GET /api/v1/events/:eventId/availability - Per-tier counts
	}

	// Organizer routes - event and layout management
	organizerEvents := router.Group("/admin/events")
	organizerEvents.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleOrganizer))
	{
		organizerEvents.POST("", controller.CreateEvent) // POST /api/v1/admin/events - Create event
	}

	layouts := router.Group("/admin/layouts")
	layouts.Use(middleware.JWTAuth(), middleware.RequireRoles(middleware.RoleAdmin, middleware.RoleOrganizer))
	{
		layouts.POST("/preview", controller.PreviewLayout) // POST /api/v1/admin/layouts/preview - Generate without persisting
	}
}
