// api/routes/router.go
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"seatwave/internal/bookings"
	"seatwave/internal/events"
	"seatwave/internal/inventory"
	"seatwave/internal/shared/config"
	"seatwave/internal/shared/database"
	"seatwave/internal/tickets"
	"seatwave/pkg/cache"
	"seatwave/pkg/logger"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	registry  *inventory.Registry
	publisher bookings.Publisher
	log       *logger.Logger

	// Late-bound collaborators: tickets needs the event schedule and the
	// refund recorder, both of which are built after the ticket service.
	refs *serviceRefs

	eventService   events.Service
	ticketService  tickets.Service
	bookingService bookings.Service
}

// serviceRefs breaks the construction cycle between tickets, events, and
// bookings. The fields are filled once during SetupRoutes and never
// change afterwards.
type serviceRefs struct {
	events   events.Service
	bookings bookings.Service
}

func (s *serviceRefs) StartTime(ctx context.Context, eventID uuid.UUID) (time.Time, error) {
	return s.events.StartTime(ctx, eventID)
}

func (s *serviceRefs) RecordRefund(ctx context.Context, bookingID, ticketID uuid.UUID, amount float64) error {
	return s.bookings.RecordRefund(ctx, bookingID, ticketID, amount)
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, registry *inventory.Registry, publisher bookings.Publisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		registry:  registry,
		publisher: publisher,
		log:       logger.GetDefault(),
		refs:      &serviceRefs{},
	}
}

// EventService exposes the event service for startup rehydration and
// shutdown snapshots
func (r *Router) EventService() events.Service {
	return r.eventService
}

// BookingService exposes the booking service so the hold sweeper can
// cancel expired checkouts
func (r *Router) BookingService() bookings.Service {
	return r.bookingService
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.buildServices()

	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		events.SetupEventRoutes(api, events.NewController(r.eventService))
		bookings.SetupBookingRoutes(api, bookings.NewController(r.bookingService))
		tickets.SetupTicketRoutes(api, tickets.NewController(r.ticketService))
	}
}

// buildServices wires the feature services together. Order matters:
// tickets first against the late-bound refs, then events, then bookings,
// and finally the refs are filled.
func (r *Router) buildServices() {
	pg := r.db.GetPostgreSQL()
	cacheService := cache.NewService(r.db.GetRedis())

	ticketRepo := tickets.NewRepository(pg)
	r.ticketService = tickets.NewService(ticketRepo, r.refs, r.registry, r.refs, tickets.Config{
		ReturnWindow:     r.config.Inventory.ReturnWindow,
		ReturnRefundRate: r.config.Inventory.ReturnRefundRate,
		QRSecret:         r.config.Inventory.QRSecret,
	}, r.log)

	eventRepo := events.NewRepository(pg)
	r.eventService = events.NewService(eventRepo, r.ticketService, r.registry, cacheService, r.log)

	bookingRepo := bookings.NewRepository(pg)
	r.bookingService = bookings.NewService(bookingRepo, r.registry, r.eventService, r.ticketService, r.publisher, r.log)

	r.refs.events = r.eventService
	r.refs.bookings = r.bookingService
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "seatwave-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "seatwave-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}
