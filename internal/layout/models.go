package layout

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// LayoutType identifies the venue archetype a seating map was generated from
type LayoutType string

const (
	LayoutTheater         LayoutType = "theater"
	LayoutStadium         LayoutType = "stadium"
	LayoutConcert         LayoutType = "concert"
	LayoutOutdoor         LayoutType = "outdoor"
	LayoutFootballStadium LayoutType = "footballStadium"
	LayoutBasketballArena LayoutType = "basketballArena"
	LayoutCustom          LayoutType = "custom"
)

// ParseLayoutType resolves an archetype key case-insensitively.
// Unknown keys fall back to theater.
func ParseLayoutType(key string) LayoutType {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "theater", "theatre":
		return LayoutTheater
	case "stadium":
		return LayoutStadium
	case "concert":
		return LayoutConcert
	case "outdoor":
		return LayoutOutdoor
	case "footballstadium", "football_stadium", "football":
		return LayoutFootballStadium
	case "basketballarena", "basketball_arena", "basketball":
		return LayoutBasketballArena
	case "custom":
		return LayoutCustom
	default:
		return LayoutTheater
	}
}

// SeatStatus is the canonical seat state set. The inventory ledger is the
// only component allowed to move a seat between these states after the
// first sale.
type SeatStatus string

const (
	SeatAvailable SeatStatus = "AVAILABLE"
	SeatHeld      SeatStatus = "HELD"
	SeatSold      SeatStatus = "SOLD"
	SeatReturned  SeatStatus = "RETURNED"
)

// IsValid checks if the seat status is part of the canonical set
func (s SeatStatus) IsValid() bool {
	switch s {
	case SeatAvailable, SeatHeld, SeatSold, SeatReturned:
		return true
	}
	return false
}

// Seat is a single sellable position. Coordinates are section-relative.
type Seat struct {
	Number        string     `json:"number"`
	Status        SeatStatus `json:"status"`
	X             float64    `json:"x"`
	Y             float64    `json:"y"`
	OverridePrice *float64   `json:"overridePrice,omitempty"`
}

// Row is an ordered sequence of seats, insertion order = left to right
type Row struct {
	Name  string `json:"name"`
	Seats []Seat `json:"seats"`
}

// Section is a named seat block. X/Y/Width/Height are map-absolute; a
// seat's absolute position is the section origin plus its relative offset.
type Section struct {
	Name       string  `json:"name"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	TicketTier string  `json:"ticketTier"`
	Rows       []Row   `json:"rows"`
}

// SeatCount returns the number of seats in the section
func (s *Section) SeatCount() int {
	count := 0
	for _, row := range s.Rows {
		count += len(row.Seats)
	}
	return count
}

// Overlaps reports whether two sections' axis-aligned bounding boxes intersect
func (s *Section) Overlaps(other *Section) bool {
	return s.X < other.X+other.Width &&
		other.X < s.X+s.Width &&
		s.Y < other.Y+other.Height &&
		other.Y < s.Y+s.Height
}

// Stage is the bounding box of the stage/field/court plus optional label
type Stage struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Label  string  `json:"label,omitempty"`
}

// VenueObject is a decorative/navigation marker (entrance, restroom, ...)
type VenueObject struct {
	Type   string  `json:"type"`
	Label  string  `json:"label"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SeatingMap is the canonical spatial + inventory document for one event.
// It is owned by the event and persisted as a single JSONB column; the
// JSON key shape is compatibility-relevant and must not change.
type SeatingMap struct {
	LayoutType   LayoutType    `json:"layoutType"`
	Stage        Stage         `json:"stage"`
	Sections     []Section     `json:"sections"`
	VenueObjects []VenueObject `json:"venueObjects"`
}

// TotalSeats returns the seat count across all sections
func (m *SeatingMap) TotalSeats() int {
	total := 0
	for i := range m.Sections {
		total += m.Sections[i].SeatCount()
	}
	return total
}

// SeatRef addresses one seat inside a seating map
type SeatRef struct {
	Section    string `json:"section"`
	Row        string `json:"row"`
	SeatNumber string `json:"seat_number"`
}

// String renders the reference as section/row/number, used in audit logs
// and Redis mirror keys.
func (r SeatRef) String() string {
	return r.Section + "/" + r.Row + "/" + r.SeatNumber
}

// FindSeat resolves a seat reference to the seat it addresses
func (m *SeatingMap) FindSeat(ref SeatRef) (*Seat, bool) {
	for i := range m.Sections {
		if m.Sections[i].Name != ref.Section {
			continue
		}
		for j := range m.Sections[i].Rows {
			if m.Sections[i].Rows[j].Name != ref.Row {
				continue
			}
			for k := range m.Sections[i].Rows[j].Seats {
				if m.Sections[i].Rows[j].Seats[k].Number == ref.SeatNumber {
					return &m.Sections[i].Rows[j].Seats[k], true
				}
			}
		}
	}
	return nil, false
}

// AllSeatRefs lists every seat reference in the map, section by section
func (m *SeatingMap) AllSeatRefs() []SeatRef {
	refs := make([]SeatRef, 0, m.TotalSeats())
	for i := range m.Sections {
		for j := range m.Sections[i].Rows {
			for k := range m.Sections[i].Rows[j].Seats {
				refs = append(refs, SeatRef{
					Section:    m.Sections[i].Name,
					Row:        m.Sections[i].Rows[j].Name,
					SeatNumber: m.Sections[i].Rows[j].Seats[k].Number,
				})
			}
		}
	}
	return refs
}

// Validate checks the structural invariants of a caller-supplied map:
// at least one seat, unique section names, unique seat numbers per row,
// valid statuses, and pairwise disjoint section bounding boxes.
func (m *SeatingMap) Validate() error {
	if len(m.Sections) == 0 {
		return fmt.Errorf("%w: seating map has no sections", ErrInvalidDimension)
	}

	sectionNames := make(map[string]bool, len(m.Sections))
	for i := range m.Sections {
		sec := &m.Sections[i]
		if sec.Name == "" {
			return fmt.Errorf("%w: section %d has no name", ErrInvalidDimension, i)
		}
		if sectionNames[sec.Name] {
			return fmt.Errorf("%w: duplicate section name %q", ErrInvalidDimension, sec.Name)
		}
		sectionNames[sec.Name] = true

		if sec.SeatCount() == 0 {
			return fmt.Errorf("%w: section %q has no seats", ErrInvalidDimension, sec.Name)
		}

		for j := range sec.Rows {
			row := &sec.Rows[j]
			seen := make(map[string]bool, len(row.Seats))
			for k := range row.Seats {
				seat := &row.Seats[k]
				if seen[seat.Number] {
					return fmt.Errorf("%w: duplicate seat %q in section %q row %q",
						ErrInvalidDimension, seat.Number, sec.Name, row.Name)
				}
				seen[seat.Number] = true
				if seat.Status != "" && !seat.Status.IsValid() {
					return fmt.Errorf("%w: seat %q has invalid status %q",
						ErrInvalidDimension, seat.Number, seat.Status)
				}
			}
		}
	}

	for i := range m.Sections {
		for j := i + 1; j < len(m.Sections); j++ {
			if m.Sections[i].Overlaps(&m.Sections[j]) {
				return fmt.Errorf("%w: sections %q and %q overlap",
					ErrInvalidDimension, m.Sections[i].Name, m.Sections[j].Name)
			}
		}
	}

	return nil
}

// Value implements driver.Valuer so the map persists as a JSONB column
func (m SeatingMap) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements sql.Scanner for the JSONB column
func (m *SeatingMap) Scan(value interface{}) error {
	if value == nil {
		*m = SeatingMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported seating map column type %T", value)
	}

	return json.Unmarshal(data, m)
}
