package layout

import "fmt"

// SeatFootprint is the rendered size of one seat. Every spacing band keeps
// both pitches above this value so adjacent seats never touch.
const SeatFootprint = 20.0

// Spacing carries the pitch values for one venue size band. SeatSpacing and
// RowSpacing are center-to-center pitches; SectionSpacing is the minimum gap
// between section bounding boxes.
type Spacing struct {
	SeatSpacing    float64
	RowSpacing     float64
	SectionSpacing float64
}

// Density bands. Larger venues pack tighter but never below the seat
// footprint, so generated sections cannot contain overlapping seats.
var (
	spacingIntimate = Spacing{SeatSpacing: 30, RowSpacing: 34, SectionSpacing: 80}
	spacingSmall    = Spacing{SeatSpacing: 27, RowSpacing: 31, SectionSpacing: 70}
	spacingMedium   = Spacing{SeatSpacing: 24, RowSpacing: 28, SectionSpacing: 60}
	spacingLarge    = Spacing{SeatSpacing: 22, RowSpacing: 26, SectionSpacing: 50}
)

// SpacingFor selects the density band for a venue size. Seat pitch shrinks
// as capacity grows: <=100, <=300, <=500, and above.
func SpacingFor(totalSeats, totalSections int) (Spacing, error) {
	if totalSeats <= 0 {
		return Spacing{}, fmt.Errorf("%w: total seats must be positive, got %d", ErrInvalidDimension, totalSeats)
	}
	if totalSections <= 0 {
		return Spacing{}, fmt.Errorf("%w: total sections must be positive, got %d", ErrInvalidDimension, totalSections)
	}
	if totalSections > totalSeats {
		return Spacing{}, fmt.Errorf("%w: %d sections cannot hold %d seats", ErrInvalidDimension, totalSections, totalSeats)
	}

	switch {
	case totalSeats <= 100:
		return spacingIntimate, nil
	case totalSeats <= 300:
		return spacingSmall, nil
	case totalSeats <= 500:
		return spacingMedium, nil
	default:
		return spacingLarge, nil
	}
}

// SectionExtent returns the bounding box size of a rows x seatsPerRow grid
// under the given spacing.
func SectionExtent(rows, seatsPerRow int, sp Spacing) (width, height float64) {
	if rows <= 0 || seatsPerRow <= 0 {
		return 0, 0
	}
	width = float64(seatsPerRow-1)*sp.SeatSpacing + SeatFootprint
	height = float64(rows-1)*sp.RowSpacing + SeatFootprint
	return width, height
}
