package layout

import "math"

// generateTheater lays sections out as a grid of blocks facing a stage at
// the top of the map. The front row of blocks is assigned the premium
// tier, everything behind it the standard tier.
func generateTheater(req GenerateRequest, sp Spacing) (SeatingMap, error) {
	counts := DistributeSeats(req.TotalSeats, req.TotalSections)

	// Uniform grid cells sized for the largest section keep blocks
	// disjoint even when trailing sections come out smaller.
	maxRows, maxSeatsPerRow := GridFor(counts[0])
	cellW, cellH := SectionExtent(maxRows, maxSeatsPerRow, sp)

	cols := int(math.Ceil(math.Sqrt(float64(req.TotalSections))))
	totalWidth := float64(cols)*cellW + float64(cols-1)*sp.SectionSpacing

	stage := Stage{
		Width:  math.Max(totalWidth*0.6, 120),
		Height: 80,
		Label:  "Stage",
	}
	stage.X = (totalWidth - stage.Width) / 2

	premium := SelectTier(req.TicketTypes, RolePremium, "vip", "premium")
	standard := SelectTier(req.TicketTypes, RoleStandard, "general", "standard", "regular")

	startY := stage.Height + sp.SectionSpacing
	sections := make([]Section, 0, req.TotalSections)
	for i, count := range counts {
		col := i % cols
		blockRow := i / cols

		tier := standard
		if blockRow == 0 {
			tier = premium
		}

		section, err := BuildSectionForCount(
			"Section "+RowName(i),
			tier.Name,
			count,
			float64(col)*(cellW+sp.SectionSpacing),
			startY+float64(blockRow)*(cellH+sp.SectionSpacing),
			sp,
		)
		if err != nil {
			return SeatingMap{}, err
		}
		sections = append(sections, section)
	}

	return SeatingMap{Stage: stage, Sections: sections}, nil
}
