package domain

import "fmt"

// PlacementID identifies one PlacementRecord (one facing), never a bare UPC.
type PlacementID string

// PegAddress is the left-leg hole of a frog bracket on the pegboard.
type PegAddress struct {
	Row int `json:"row"`
	Col int `json:"col"`
	// Defaulted is set when the source token could not be parsed and the
	// address fell back to R1 C1.
	Defaulted bool `json:"defaulted,omitempty"`
}

// String renders the address in the same R<row> C<col> form the data uses.
func (p PegAddress) String() string {
	return fmt.Sprintf("R%02d C%02d", p.Row, p.Col)
}

// PlacementRecord is one validated row of planogram data.
// Records are created in bulk at load time and never mutated afterwards.
type PlacementRecord struct {
	ID          PlacementID `json:"id"`
	PlanogramID string      `json:"pog"`

	Bay       string `json:"bay"`
	BayNumber int    `json:"bayNumber"`
	BayValid  bool   `json:"bayValid"`

	Peg        string     `json:"peg"`
	PegAddress PegAddress `json:"pegAddress"`

	Position      string `json:"position"`
	PositionIndex int    `json:"positionIndex"`

	UPC          string `json:"upc"`
	CanonicalUPC string `json:"canonicalUpc"`

	WidthInches  float64 `json:"widthInches"`
	HeightInches float64 `json:"heightInches"`

	Description string `json:"description,omitempty"`

	// Line is the 1-based source line; zero when not read from a file.
	Line int `json:"line"`
}

// DeleteListEntry marks a UPC that must not be placed on a planogram.
type DeleteListEntry struct {
	PlanogramID  string `json:"pog"`
	UPC          string `json:"upc"`
	CanonicalUPC string `json:"canonicalUpc"`
	ProductName  string `json:"productName,omitempty"`
}

// StoreMapping maps a store number to the planogram it runs.
type StoreMapping struct {
	StoreID     string `json:"store"`
	PlanogramID string `json:"pog"`
}

// Dataset is everything the external loader supplies for one session.
type Dataset struct {
	Placements []PlacementRecord `json:"placements"`
	Stores     []StoreMapping    `json:"stores"`
	DeleteList []DeleteListEntry `json:"deleteList"`
	Files      []string          `json:"files"`
}

// PlanogramFor returns the planogram mapped to storeID.
func (d *Dataset) PlanogramFor(storeID string) (string, bool) {
	if d == nil {
		return "", false
	}
	for _, m := range d.Stores {
		if m.StoreID == storeID {
			return m.PlanogramID, true
		}
	}
	return "", false
}
