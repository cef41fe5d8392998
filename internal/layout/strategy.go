package layout

import "fmt"

// GenerateRequest is the input to layout generation
type GenerateRequest struct {
	Archetype     string
	TotalSeats    int
	TotalSections int
	TicketTypes   []TicketTypeRef
}

// generator builds a full seating map for one archetype. Sections must
// come out pairwise disjoint and hold exactly req.TotalSeats seats.
type generator func(req GenerateRequest, sp Spacing) (SeatingMap, error)

var generators = map[LayoutType]generator{
	LayoutTheater:         generateTheater,
	LayoutStadium:         generateStadium,
	LayoutFootballStadium: generateStadium,
	LayoutBasketballArena: generateStadium,
	LayoutConcert:         generateConcert,
	LayoutOutdoor:         generateOutdoor,
}

// Generate builds a seating map for the requested archetype. Unknown or
// custom archetype keys fall back to the theater strategy.
func Generate(req GenerateRequest) (SeatingMap, error) {
	sp, err := SpacingFor(req.TotalSeats, req.TotalSections)
	if err != nil {
		return SeatingMap{}, err
	}
	if len(req.TicketTypes) == 0 {
		return SeatingMap{}, ErrNoTicketTypes
	}

	lt := ParseLayoutType(req.Archetype)
	gen, ok := generators[lt]
	if !ok {
		lt = LayoutTheater
		gen = generators[lt]
	}

	m, err := gen(req, sp)
	if err != nil {
		return SeatingMap{}, fmt.Errorf("generating %s layout: %w", lt, err)
	}

	m.LayoutType = lt
	if len(m.VenueObjects) == 0 {
		m.VenueObjects = DefaultVenueObjects(&m)
	}

	if err := m.Validate(); err != nil {
		return SeatingMap{}, fmt.Errorf("generated %s layout failed validation: %w", lt, err)
	}
	if got := m.TotalSeats(); got != req.TotalSeats {
		return SeatingMap{}, fmt.Errorf("%w: generated %d seats, requested %d", ErrInvalidDimension, got, req.TotalSeats)
	}

	return m, nil
}
