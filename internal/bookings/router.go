package bookings

import (
	"seatwave/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(router *gin.RouterGroup, controller Controller) {
	bookings := router.Group("/bookings")
	bookings.Use(middleware.JWTAuth())
	{
		bookings.POST("/hold", controller.HoldSeats)                  // POST /api/v1/bookings/hold - Hold seats for checkout
		bookings.POST("/confirm", controller.ConfirmBooking)          // POST /api/v1/bookings/confirm - Confirm a held booking
		bookings.POST("/release", controller.ReleaseHold)             // POST /api/v1/bookings/release - Abandon a hold
		bookings.GET("", controller.GetUserBookings)                  // GET /api/v1/bookings - List my bookings
		bookings.GET("/:bookingId", controller.GetBooking)            // GET /api/v1/bookings/:bookingId - Booking details
		bookings.POST("/:bookingId/cancel", controller.CancelBooking) // POST /api/v1/bookings/:bookingId/cancel - Cancel booking
	}

	// Gateway webhook, authenticated by the gateway's shared secret at
	// the edge rather than a user token
	payments := router.Group("/payments")
	{
		payments.POST("/callback", controller.PaymentCallback) // POST /api/v1/payments/callback - Payment gateway webhook
	}
}
