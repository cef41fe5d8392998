package layout

import (
	"fmt"
	"math"
)

// generateOutdoor builds a festival field: a VIP band of roughly 30% of
// seats in front of the stage and a wider general grid behind it.
func generateOutdoor(req GenerateRequest, sp Spacing) (SeatingMap, error) {
	vipBlocks := int(math.Round(float64(req.TotalSections) * 0.3))
	if vipBlocks < 1 {
		vipBlocks = 1
	}
	if vipBlocks >= req.TotalSections {
		vipBlocks = req.TotalSections - 1
	}
	gaBlocks := req.TotalSections - vipBlocks

	vipSeats := int(math.Round(float64(req.TotalSeats) * 0.3))
	if vipBlocks == 0 {
		vipSeats = 0
	} else if vipSeats < vipBlocks {
		vipSeats = vipBlocks
	}
	gaSeats := req.TotalSeats - vipSeats
	if gaSeats < gaBlocks {
		gaSeats = gaBlocks
		vipSeats = req.TotalSeats - gaSeats
	}

	vipCounts := DistributeSeats(vipSeats, vipBlocks)
	gaCounts := DistributeSeats(gaSeats, gaBlocks)

	// GA blocks are the larger ones; size every cell from the largest
	// block so both bands stay on one disjoint grid.
	largest := gaSeats
	if gaBlocks > 0 {
		largest = gaCounts[0]
	}
	if vipBlocks > 0 && vipCounts[0] > largest {
		largest = vipCounts[0]
	}
	maxRows, maxSeatsPerRow := GridFor(largest)
	cellW, cellH := SectionExtent(maxRows, maxSeatsPerRow, sp)

	vip := SelectTier(req.TicketTypes, RolePremium, "vip", "premium", "front")
	general := SelectTier(req.TicketTypes, RoleStandard, "general", "lawn", "standard")

	gaCols := 0
	if gaBlocks > 0 {
		gaCols = int(math.Ceil(math.Sqrt(float64(gaBlocks))))
	}

	vipWidth := float64(vipBlocks)*cellW + math.Max(float64(vipBlocks-1), 0)*sp.SectionSpacing
	gaWidth := float64(gaCols)*cellW + math.Max(float64(gaCols-1), 0)*sp.SectionSpacing
	totalWidth := math.Max(vipWidth, gaWidth)

	stage := Stage{
		Width:  math.Max(totalWidth*0.4, 150),
		Height: 100,
		Label:  "Main Stage",
	}
	stage.X = (totalWidth - stage.Width) / 2

	sections := make([]Section, 0, req.TotalSections)

	vipY := stage.Height + sp.SectionSpacing
	vipX := (totalWidth - vipWidth) / 2
	for i, count := range vipCounts {
		section, err := BuildSectionForCount(
			fmt.Sprintf("VIP %d", i+1),
			vip.Name,
			count,
			vipX+float64(i)*(cellW+sp.SectionSpacing),
			vipY,
			sp,
		)
		if err != nil {
			return SeatingMap{}, err
		}
		sections = append(sections, section)
	}

	gaY := vipY + cellH + sp.SectionSpacing
	gaX := (totalWidth - gaWidth) / 2
	for j, count := range gaCounts {
		col := j % gaCols
		row := j / gaCols
		section, err := BuildSectionForCount(
			fmt.Sprintf("Lawn %d", j+1),
			general.Name,
			count,
			gaX+float64(col)*(cellW+sp.SectionSpacing),
			gaY+float64(row)*(cellH+sp.SectionSpacing),
			sp,
		)
		if err != nil {
			return SeatingMap{}, err
		}
		sections = append(sections, section)
	}

	return SeatingMap{Stage: stage, Sections: sections}, nil
}
