package layout

import (
	"fmt"
	"math"
)

// Central playing areas per stadium archetype
var playingAreas = map[LayoutType]Stage{
	LayoutStadium:         {Width: 400, Height: 250, Label: "Field"},
	LayoutFootballStadium: {Width: 600, Height: 360, Label: "Field"},
	LayoutBasketballArena: {Width: 340, Height: 200, Label: "Court"},
}

var ringNames = []string{"Lower", "Club", "Upper"}

// generateStadium arranges sections on concentric rings around a central
// playing area. Up to three rings are used; the innermost ring carries the
// premium tier, the outermost the economy tier. Ring radii grow until
// adjacent sections on the same ring are at least a section diagonal plus
// a spacing gap apart, so bounding boxes stay disjoint by construction.
func generateStadium(req GenerateRequest, sp Spacing) (SeatingMap, error) {
	lt := ParseLayoutType(req.Archetype)
	field, ok := playingAreas[lt]
	if !ok {
		field = playingAreas[LayoutStadium]
	}
	field.X = -field.Width / 2
	field.Y = -field.Height / 2

	counts := DistributeSeats(req.TotalSeats, req.TotalSections)
	maxRows, maxSeatsPerRow := GridFor(counts[0])
	cellW, cellH := SectionExtent(maxRows, maxSeatsPerRow, sp)
	diag := math.Hypot(cellW, cellH)

	rings := len(ringNames)
	if req.TotalSections < rings {
		rings = req.TotalSections
	}
	perRing := DistributeSeats(req.TotalSections, rings)

	tiers := []TicketTypeRef{
		SelectTier(req.TicketTypes, RolePremium, "vip", "premium", "lower", "courtside"),
		SelectTier(req.TicketTypes, RoleStandard, "club", "standard", "general"),
		SelectTier(req.TicketTypes, RoleEconomy, "upper", "economy", "budget"),
	}

	fieldRadius := math.Hypot(field.Width/2, field.Height/2)

	sections := make([]Section, 0, req.TotalSections)
	next := 0
	radius := 0.0
	for ring := 0; ring < rings; ring++ {
		k := perRing[ring]
		if ring == 0 {
			radius = fieldRadius + diag/2 + sp.SectionSpacing
		} else {
			radius += diag + sp.SectionSpacing
		}
		if k > 1 {
			// Keep adjacent sections a full diagonal apart along the ring
			minRadius := (diag + sp.SectionSpacing) / (2 * math.Sin(math.Pi/float64(k)))
			radius = math.Max(radius, minRadius)
		}

		// Stagger rings so sections do not stack in radial lines
		offset := -math.Pi/2 + float64(ring)*math.Pi/float64(k*2)
		for j := 0; j < k; j++ {
			angle := offset + 2*math.Pi*float64(j)/float64(k)
			centerX := radius * math.Cos(angle)
			centerY := radius * math.Sin(angle)

			section, err := BuildSectionForCount(
				fmt.Sprintf("%s %d", ringNames[ring], j+1),
				tiers[ring].Name,
				counts[next],
				centerX-cellW/2,
				centerY-cellH/2,
				sp,
			)
			if err != nil {
				return SeatingMap{}, err
			}
			sections = append(sections, section)
			next++
		}
	}

	m := SeatingMap{Stage: field, Sections: sections}
	translateToPositive(&m, sp.SectionSpacing)
	return m, nil
}

// translateToPositive shifts the whole map so every element sits at
// non-negative coordinates with the given margin.
func translateToPositive(m *SeatingMap, margin float64) {
	minX, minY := m.Stage.X, m.Stage.Y
	for i := range m.Sections {
		minX = math.Min(minX, m.Sections[i].X)
		minY = math.Min(minY, m.Sections[i].Y)
	}
	for i := range m.VenueObjects {
		minX = math.Min(minX, m.VenueObjects[i].X)
		minY = math.Min(minY, m.VenueObjects[i].Y)
	}

	dx, dy := margin-minX, margin-minY
	m.Stage.X += dx
	m.Stage.Y += dy
	for i := range m.Sections {
		m.Sections[i].X += dx
		m.Sections[i].Y += dy
	}
	for i := range m.VenueObjects {
		m.VenueObjects[i].X += dx
		m.VenueObjects[i].Y += dy
	}
}
