package layout

import "math"

const venueObjectSize = 40.0

// DefaultVenueObjects places the standard navigation markers around the
// generated sections: entrance and exit on the bottom edge, restrooms on
// the left, concessions on the right.
func DefaultVenueObjects(m *SeatingMap) []VenueObject {
	minX, minY := m.Stage.X, m.Stage.Y
	maxX, maxY := m.Stage.X+m.Stage.Width, m.Stage.Y+m.Stage.Height
	for i := range m.Sections {
		s := &m.Sections[i]
		minX = math.Min(minX, s.X)
		minY = math.Min(minY, s.Y)
		maxX = math.Max(maxX, s.X+s.Width)
		maxY = math.Max(maxY, s.Y+s.Height)
	}

	midY := (minY + maxY - venueObjectSize) / 2
	margin := venueObjectSize / 2

	return []VenueObject{
		{Type: "entrance", Label: "Main Entrance", X: minX, Y: maxY + margin, Width: venueObjectSize, Height: venueObjectSize},
		{Type: "exit", Label: "Exit", X: maxX - venueObjectSize, Y: maxY + margin, Width: venueObjectSize, Height: venueObjectSize},
		{Type: "restroom", Label: "Restrooms", X: minX - venueObjectSize - margin, Y: midY, Width: venueObjectSize, Height: venueObjectSize},
		{Type: "food", Label: "Concessions", X: maxX + margin, Y: midY, Width: venueObjectSize, Height: venueObjectSize},
	}
}
