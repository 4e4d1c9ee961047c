package csvsource

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/layout"
	"github.com/harpa/backend/internal/upc"
)

// placementRow is one planogram line before defaults are applied.
type placementRow struct {
	POG         string `csv:"POG" validate:"required"`
	Bay         string `csv:"Bay"`
	Peg         string `csv:"Peg"`
	Position    string `csv:"Position"`
	UPC         string `csv:"UPC" validate:"required,upc"`
	Width       string `csv:"Width"`
	Height      string `csv:"Height"`
	Description string `csv:"ProductDescription"`
}

// storeRow is one store-to-planogram mapping line.
type storeRow struct {
	Store string `csv:"Store" validate:"required"`
	POG   string `csv:"POG" validate:"required"`
}

// deleteRow is one delete-list line.
type deleteRow struct {
	POG         string `csv:"POG" validate:"required"`
	UPC         string `csv:"UPC" validate:"required,upc"`
	ProductName string `csv:"ProductName"`
}

// rowMapper validates raw rows and converts them to domain records.
type rowMapper struct {
	validate *validator.Validate
}

func newRowMapper() *rowMapper {
	v := validator.New()

	// Report the CSV column name in rejection reasons
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("csv"); name != "" {
			return name
		}
		return fld.Name
	})

	// A UPC must contain something that normalizes to digits
	_ = v.RegisterValidation("upc", func(fl validator.FieldLevel) bool {
		return upc.HasDigits(fl.Field().String())
	})

	return &rowMapper{validate: v}
}

// check validates s and returns a human-readable reason, or "" when valid.
func (m *rowMapper) check(s any) string {
	err := m.validate.Struct(s)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}

	reasons := make([]string, 0, len(fieldErrs))
	for _, e := range fieldErrs {
		reasons = append(reasons, friendlyMessage(e))
	}
	return strings.Join(reasons, "; ")
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "upc":
		return e.Field() + " has no digits"
	default:
		return e.Field() + " is invalid"
	}
}

// toPlacement applies the parsing and default rules to a validated row.
func toPlacement(r placementRow, line int) domain.PlacementRecord {
	bay, bayOK := parseOrdinal(r.Bay)
	position, _ := parseOrdinal(r.Position)

	return domain.PlacementRecord{
		PlanogramID:   r.POG,
		Bay:           r.Bay,
		BayNumber:     bay,
		BayValid:      bayOK,
		Peg:           r.Peg,
		PegAddress:    layout.ParsePeg(r.Peg),
		Position:      r.Position,
		PositionIndex: position,
		UPC:           r.UPC,
		CanonicalUPC:  upc.Normalize(r.UPC),
		WidthInches:   layout.ParseWidth(r.Width),
		HeightInches:  layout.ParseHeight(r.Height),
		Description:   r.Description,
		Line:          line,
	}
}

func toDeleteEntry(r deleteRow) domain.DeleteListEntry {
	return domain.DeleteListEntry{
		PlanogramID:  r.POG,
		UPC:          r.UPC,
		CanonicalUPC: upc.Normalize(r.UPC),
		ProductName:  r.ProductName,
	}
}

// parseOrdinal reads the leading run of digits, so "3" and "3A" are both 3.
// Anything without a leading digit is unparseable.
func parseOrdinal(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
