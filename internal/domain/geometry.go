package domain

// Point is a pixel coordinate on the rendered board.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is a product rectangle in pixels, origin at the board's top-left.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the box.
func (b BoundingBox) CenterX() float64 {
	return b.Left + b.Width/2
}

// Geometry is everything a renderer needs to draw one placement.
type Geometry struct {
	// Hole is the center of the left-leg peg hole (the "frog dot").
	Hole        Point       `json:"hole"`
	FrogCenterX float64     `json:"frogCenterX"`
	Box         BoundingBox `json:"box"`
}

// Viewport is the render space available for the board, in pixels.
type Viewport struct {
	Width  float64 `json:"width" form:"width"`
	Height float64 `json:"height" form:"height"`
}

// Progress is the completion tally for a scope (one bay or a whole planogram).
type Progress struct {
	Done    int `json:"done"`
	Total   int `json:"total"`
	Percent int `json:"percent"`
}
