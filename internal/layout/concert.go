package layout

import (
	"fmt"
	"math"
)

// generateConcert builds a stage-front layout: one golden circle section
// directly in front of the stage, flanked by symmetric premium blocks when
// enough sections are requested, with a general admission grid behind.
func generateConcert(req GenerateRequest, sp Spacing) (SeatingMap, error) {
	counts := DistributeSeats(req.TotalSeats, req.TotalSections)
	maxRows, maxSeatsPerRow := GridFor(counts[0])
	cellW, cellH := SectionExtent(maxRows, maxSeatsPerRow, sp)

	flanks := 0
	if req.TotalSections >= 4 {
		flanks = 2
	}
	frontBlocks := 1 + flanks
	gaBlocks := req.TotalSections - frontBlocks

	premium := SelectTier(req.TicketTypes, RolePremium, "golden", "vip", "premium")
	general := SelectTier(req.TicketTypes, RoleStandard, "general", "ga", "standard")

	gaCols := 0
	if gaBlocks > 0 {
		gaCols = int(math.Ceil(math.Sqrt(float64(gaBlocks))))
	}

	frontWidth := float64(frontBlocks)*cellW + float64(frontBlocks-1)*sp.SectionSpacing
	gaWidth := float64(gaCols)*cellW + math.Max(float64(gaCols-1), 0)*sp.SectionSpacing
	totalWidth := math.Max(frontWidth, gaWidth)

	stage := Stage{
		Width:  math.Max(totalWidth*0.5, 150),
		Height: 90,
		Label:  "Stage",
	}
	stage.X = (totalWidth - stage.Width) / 2

	frontY := stage.Height + sp.SectionSpacing
	frontX := (totalWidth - frontWidth) / 2

	frontNames := []string{"Golden Circle"}
	if flanks == 2 {
		frontNames = []string{"VIP Left", "Golden Circle", "VIP Right"}
	}

	sections := make([]Section, 0, req.TotalSections)
	next := 0
	for i, name := range frontNames {
		section, err := BuildSectionForCount(
			name,
			premium.Name,
			counts[next],
			frontX+float64(i)*(cellW+sp.SectionSpacing),
			frontY,
			sp,
		)
		if err != nil {
			return SeatingMap{}, err
		}
		sections = append(sections, section)
		next++
	}

	gaY := frontY + cellH + sp.SectionSpacing
	gaX := (totalWidth - gaWidth) / 2
	for j := 0; j < gaBlocks; j++ {
		col := j % gaCols
		row := j / gaCols
		section, err := BuildSectionForCount(
			fmt.Sprintf("GA %d", j+1),
			general.Name,
			counts[next],
			gaX+float64(col)*(cellW+sp.SectionSpacing),
			gaY+float64(row)*(cellH+sp.SectionSpacing),
			sp,
		)
		if err != nil {
			return SeatingMap{}, err
		}
		sections = append(sections, section)
		next++
	}

	return SeatingMap{Stage: stage, Sections: sections}, nil
}
