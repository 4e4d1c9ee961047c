package layout

import (
	"math"

	"github.com/harpa/backend/internal/domain"
)

// Board is the physical pegboard, 1 unit = 1 inch = 1 hole pitch.
type Board struct {
	WidthInches  float64
	HeightInches float64
}

// DefaultBoard spans columns 1-46 and rows 1-64.
var DefaultBoard = Board{WidthInches: 46, HeightInches: 64}

// FitPPI returns the pixels-per-inch scale that shows the whole board inside
// the available space without distortion. It is the smaller of the
// width-constrained and height-constrained scales, and 0 when either the
// space or the board is degenerate. A zero available height means "no
// height constraint".
func FitPPI(availableWidth, availableHeight float64, board Board) float64 {
	if availableWidth <= 0 || board.WidthInches <= 0 || board.HeightInches <= 0 {
		return 0
	}

	ppi := availableWidth / board.WidthInches
	if availableHeight > 0 {
		ppi = math.Min(ppi, availableHeight/board.HeightInches)
	}
	return ppi
}

// PixelSize returns the board size in pixels at the given scale.
func (b Board) PixelSize(ppi float64) (width, height float64) {
	return b.WidthInches * ppi, b.HeightInches * ppi
}

// Place converts a peg address and a product size into pixel geometry.
//
// The peg hole is the left leg of a two-pronged frog spanning columns col and
// col+1, so the frog center sits half an inch right of the hole. The product
// is centered on the frog and hangs down starting half an inch below the hole.
func Place(peg domain.PegAddress, widthInches, heightInches, ppi float64) domain.Geometry {
	holeX := float64(peg.Col-1)*ppi + ppi/2
	holeY := float64(peg.Row-1)*ppi + ppi/2
	frogCenterX := holeX + ppi/2

	widthPx := widthInches * ppi
	heightPx := heightInches * ppi

	return domain.Geometry{
		Hole:        domain.Point{X: holeX, Y: holeY},
		FrogCenterX: frogCenterX,
		Box: domain.BoundingBox{
			Left:   frogCenterX - widthPx/2,
			Top:    holeY + ppi*0.5,
			Width:  widthPx,
			Height: heightPx,
		},
	}
}

// PlaceRecord places a loaded record using its already-parsed peg and size.
func PlaceRecord(rec *domain.PlacementRecord, ppi float64) domain.Geometry {
	return Place(rec.PegAddress, rec.WidthInches, rec.HeightInches, ppi)
}
