package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"seatwave/internal/events"
	"seatwave/internal/inventory"
	"seatwave/internal/shared/config"
	"seatwave/internal/shared/database"
	"seatwave/internal/tickets"
)

type Seeder struct {
	db     *database.DB
	events events.Service
}

// demoEvent drives one seeded event through the layout generator
type demoEvent struct {
	name      string
	venue     string
	archetype string
	seats     int
	sections  int
	daysOut   int
	types     []events.TicketTypeInput
}

func main() {
	fmt.Println("🌱 Starting Seatwave Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := NewSeeder(db, cfg)

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding demo events...")
	if err := seeder.SeedEvents(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

func NewSeeder(db *database.DB, cfg *config.Config) *Seeder {
	ticketService := tickets.NewService(
		tickets.NewRepository(db.GetPostgreSQL()),
		nil, nil, nil,
		tickets.Config{
			ReturnWindow:     cfg.Inventory.ReturnWindow,
			ReturnRefundRate: cfg.Inventory.ReturnRefundRate,
			QRSecret:         cfg.Inventory.QRSecret,
		},
		nil,
	)
	registry := inventory.NewRegistry(cfg.Inventory.HoldTTL, nil, nil, nil)
	eventService := events.NewService(
		events.NewRepository(db.GetPostgreSQL()),
		ticketService,
		registry,
		nil,
		nil,
	)
	return &Seeder{db: db, events: eventService}
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payments",
		"tickets",
		"bookings",
		"ticket_types",
		"events",
	}
	for _, table := range tables {
		if err := s.db.GetPostgreSQL().Exec("TRUNCATE TABLE " + table + " CASCADE").Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedEvents creates one published demo event per venue archetype, all
// through the layout generator so the seeded maps honor spacing bands
// and disjointness.
func (s *Seeder) SeedEvents() error {
	ctx := context.Background()
	organizer := uuid.New()

	demos := []demoEvent{
		{
			name: "A Midsummer Night's Dream", venue: "Royal Playhouse",
			archetype: "theater", seats: 480, sections: 6, daysOut: 14,
			types: []events.TicketTypeInput{
				{Name: "VIP Box", Role: "PREMIUM", Price: 180, Color: "#d4af37"},
				{Name: "Orchestra", Role: "STANDARD", Price: 90, Color: "#4682b4"},
			},
		},
		{
			name: "City Derby Final", venue: "Northbank Stadium",
			archetype: "footballStadium", seats: 4800, sections: 24, daysOut: 30,
			types: []events.TicketTypeInput{
				{Name: "Club Level", Role: "PREMIUM", Price: 250, Color: "#d4af37"},
				{Name: "Lower Bowl", Role: "STANDARD", Price: 120, Color: "#4682b4"},
				{Name: "Upper Deck", Role: "ECONOMY", Price: 55, Color: "#9acd32"},
			},
		},
		{
			name: "Midnight Frequencies Tour", venue: "Harbor Arena",
			archetype: "concert", seats: 2200, sections: 8, daysOut: 21,
			types: []events.TicketTypeInput{
				{Name: "Golden Circle", Role: "PREMIUM", Price: 320, Color: "#d4af37"},
				{Name: "General Admission", Role: "STANDARD", Price: 110, Color: "#4682b4"},
			},
		},
		{
			name: "Summer Lawn Sessions", venue: "Riverside Park",
			archetype: "outdoor", seats: 1500, sections: 10, daysOut: 45,
			types: []events.TicketTypeInput{
				{Name: "VIP Lawn", Role: "PREMIUM", Price: 140, Color: "#d4af37"},
				{Name: "Lawn", Role: "ECONOMY", Price: 45, Color: "#9acd32"},
			},
		},
		{
			name: "Conference Championship", venue: "Downtown Fieldhouse",
			archetype: "basketballArena", seats: 3600, sections: 18, daysOut: 10,
			types: []events.TicketTypeInput{
				{Name: "Courtside", Role: "PREMIUM", Price: 400, Color: "#d4af37"},
				{Name: "Lower Bowl", Role: "STANDARD", Price: 150, Color: "#4682b4"},
				{Name: "Balcony", Role: "ECONOMY", Price: 60, Color: "#9acd32"},
			},
		},
	}

	for _, demo := range demos {
		resp, err := s.events.CreateEvent(ctx, organizer, events.CreateEventRequest{
			Name:          demo.name,
			Description:   fmt.Sprintf("Demo event seeded at %s.", demo.venue),
			Venue:         demo.venue,
			StartTime:     time.Now().AddDate(0, 0, demo.daysOut),
			Archetype:     demo.archetype,
			TotalSeats:    demo.seats,
			TotalSections: demo.sections,
			TicketTypes:   demo.types,
			Publish:       true,
		})
		if err != nil {
			return fmt.Errorf("failed to seed %q: %w", demo.name, err)
		}
		fmt.Printf("  🎟  %-32s %-16s %5d seats / %2d sections  [%s]\n",
			demo.name, demo.archetype, resp.TotalSeats, resp.TotalSections, resp.ID)
	}
	return nil
}
