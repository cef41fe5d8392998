package layout

import (
	"fmt"
	"math"
	"strconv"
)

// RowName converts a zero-based row index into its display name. Rows run
// A..Z, then continue AA, AB, ... like spreadsheet columns.
func RowName(index int) string {
	if index < 0 {
		return ""
	}
	name := ""
	for {
		name = string(rune('A'+index%26)) + name
		index = index/26 - 1
		if index < 0 {
			break
		}
	}
	return name
}

// GridFor picks the squarest rows x seatsPerRow grid that holds the given
// seat count: rows = ceil(sqrt(n)), seatsPerRow = ceil(n / rows).
func GridFor(seatCount int) (rows, seatsPerRow int) {
	if seatCount <= 0 {
		return 0, 0
	}
	rows = int(math.Ceil(math.Sqrt(float64(seatCount))))
	seatsPerRow = int(math.Ceil(float64(seatCount) / float64(rows)))
	return rows, seatsPerRow
}

// BuildSection builds a full rows x seatsPerRow grid section at the given
// origin. Seats are numbered 1..seatsPerRow within each row; coordinates
// are section-relative with the first row closest to the stage.
func BuildSection(name, tier string, rows, seatsPerRow int, originX, originY float64, sp Spacing) (Section, error) {
	if rows <= 0 || seatsPerRow <= 0 {
		return Section{}, fmt.Errorf("%w: section %q needs positive grid dimensions, got %dx%d",
			ErrInvalidDimension, name, rows, seatsPerRow)
	}

	width, height := SectionExtent(rows, seatsPerRow, sp)
	section := Section{
		Name:       name,
		X:          originX,
		Y:          originY,
		Width:      width,
		Height:     height,
		TicketTier: tier,
		Rows:       make([]Row, 0, rows),
	}

	for r := 0; r < rows; r++ {
		row := Row{
			Name:  RowName(r),
			Seats: make([]Seat, 0, seatsPerRow),
		}
		for s := 0; s < seatsPerRow; s++ {
			row.Seats = append(row.Seats, Seat{
				Number: strconv.Itoa(s + 1),
				Status: SeatAvailable,
				X:      float64(s) * sp.SeatSpacing,
				Y:      float64(r) * sp.RowSpacing,
			})
		}
		section.Rows = append(section.Rows, row)
	}

	return section, nil
}

// BuildSectionForCount builds the squarest grid holding exactly seatCount
// seats, trimming the trailing seats of the last row so the section count
// matches exactly.
func BuildSectionForCount(name, tier string, seatCount int, originX, originY float64, sp Spacing) (Section, error) {
	rows, seatsPerRow := GridFor(seatCount)
	if rows == 0 {
		return Section{}, fmt.Errorf("%w: section %q needs at least one seat", ErrInvalidDimension, name)
	}

	section, err := BuildSection(name, tier, rows, seatsPerRow, originX, originY, sp)
	if err != nil {
		return Section{}, err
	}

	excess := rows*seatsPerRow - seatCount
	if excess > 0 {
		last := &section.Rows[len(section.Rows)-1]
		last.Seats = last.Seats[:len(last.Seats)-excess]
		if len(last.Seats) == 0 {
			section.Rows = section.Rows[:len(section.Rows)-1]
		}
	}

	return section, nil
}

// DistributeSeats splits totalSeats across buckets so that the sum is
// exactly totalSeats, with any remainder spread over the leading buckets.
func DistributeSeats(totalSeats, buckets int) []int {
	if buckets <= 0 {
		return nil
	}
	base := totalSeats / buckets
	remainder := totalSeats % buckets
	counts := make([]int, buckets)
	for i := range counts {
		counts[i] = base
		if i < remainder {
			counts[i]++
		}
	}
	return counts
}
