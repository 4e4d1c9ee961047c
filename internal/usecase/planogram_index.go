package usecase

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/upc"
)

// PlanogramIndex is the read-only view of one planogram's placements.
// It is built once per store selection and replaced wholesale afterwards.
type PlanogramIndex struct {
	planogramID string

	records []*domain.PlacementRecord
	bays    []int
	byBay   map[int][]*domain.PlacementRecord
	byID    map[domain.PlacementID]*domain.PlacementRecord

	byUPC        map[string][]*domain.PlacementRecord
	byTrimmedUPC map[string][]*domain.PlacementRecord

	deleteByUPC        map[string]*domain.DeleteListEntry
	deleteByTrimmedUPC map[string]*domain.DeleteListEntry
}

// BuildIndex indexes the records and delete-list entries that belong to
// planogramID. Other planograms' rows are ignored. Records are copied, so
// the caller's slice is never touched.
func BuildIndex(planogramID string, records []domain.PlacementRecord, deleteList []domain.DeleteListEntry) *PlanogramIndex {
	idx := &PlanogramIndex{
		planogramID:        planogramID,
		byBay:              make(map[int][]*domain.PlacementRecord),
		byID:               make(map[domain.PlacementID]*domain.PlacementRecord),
		byUPC:              make(map[string][]*domain.PlacementRecord),
		byTrimmedUPC:       make(map[string][]*domain.PlacementRecord),
		deleteByUPC:        make(map[string]*domain.DeleteListEntry),
		deleteByTrimmedUPC: make(map[string]*domain.DeleteListEntry),
	}

	seen := make(map[domain.PlacementID]int)
	for i := range records {
		if records[i].PlanogramID != planogramID {
			continue
		}

		rec := records[i]
		if rec.CanonicalUPC == "" {
			rec.CanonicalUPC = upc.Normalize(rec.UPC)
		}
		rec.ID = placementID(rec, seen)

		idx.records = append(idx.records, &rec)
		idx.byID[rec.ID] = &rec
		idx.byUPC[rec.CanonicalUPC] = append(idx.byUPC[rec.CanonicalUPC], &rec)
		if trimmed, ok := upc.DropCheckDigit(rec.CanonicalUPC); ok {
			idx.byTrimmedUPC[trimmed] = append(idx.byTrimmedUPC[trimmed], &rec)
		}
		if rec.BayValid {
			idx.byBay[rec.BayNumber] = append(idx.byBay[rec.BayNumber], &rec)
		}
	}

	for bay, items := range idx.byBay {
		idx.bays = append(idx.bays, bay)
		slices.SortStableFunc(items, func(a, b *domain.PlacementRecord) int {
			return cmp.Compare(a.PositionIndex, b.PositionIndex)
		})
	}
	slices.Sort(idx.bays)

	for i := range deleteList {
		if deleteList[i].PlanogramID != planogramID {
			continue
		}
		entry := deleteList[i]
		if entry.CanonicalUPC == "" {
			entry.CanonicalUPC = upc.Normalize(entry.UPC)
		}
		if _, dup := idx.deleteByUPC[entry.CanonicalUPC]; !dup {
			idx.deleteByUPC[entry.CanonicalUPC] = &entry
		}
		if trimmed, ok := upc.DropCheckDigit(entry.CanonicalUPC); ok {
			if _, dup := idx.deleteByTrimmedUPC[trimmed]; !dup {
				idx.deleteByTrimmedUPC[trimmed] = &entry
			}
		}
	}

	return idx
}

// placementID builds pog:bay:position, with "?" standing in for a blank
// position. A repeated composite (two rows with the same bay and an
// unparseable position, say) gets a #n suffix in input order so every record
// keeps its own identity.
func placementID(rec domain.PlacementRecord, seen map[domain.PlacementID]int) domain.PlacementID {
	position := strings.TrimSpace(rec.Position)
	if position == "" {
		position = "?"
	}
	base := domain.PlacementID(fmt.Sprintf("%s:%s:%s", rec.PlanogramID, rec.Bay, position))
	n := seen[base]
	seen[base] = n + 1
	if n == 0 {
		return base
	}
	return domain.PlacementID(fmt.Sprintf("%s#%d", base, n+1))
}

// PlanogramID returns the planogram this index was built for.
func (x *PlanogramIndex) PlanogramID() string {
	return x.planogramID
}

// Records returns every record of the planogram in input order, including
// those whose bay could not be parsed.
func (x *PlanogramIndex) Records() []*domain.PlacementRecord {
	return x.records
}

// AllBays returns the distinct parseable bay numbers in ascending order.
func (x *PlanogramIndex) AllBays() []int {
	return slices.Clone(x.bays)
}

// HasBay reports whether bay belongs to the planogram.
func (x *PlanogramIndex) HasBay(bay int) bool {
	_, ok := x.byBay[bay]
	return ok
}

// ItemsInBay returns the bay's records ordered by position, ties kept in input order.
func (x *PlanogramIndex) ItemsInBay(bay int) []*domain.PlacementRecord {
	return x.byBay[bay]
}

// ItemsByCanonicalUPC returns every facing of a canonical UPC.
func (x *PlanogramIndex) ItemsByCanonicalUPC(canonical string) []*domain.PlacementRecord {
	return x.byUPC[canonical]
}

// itemsByTrimmedUPC returns records whose canonical UPC minus its last digit equals key.
func (x *PlanogramIndex) itemsByTrimmedUPC(key string) []*domain.PlacementRecord {
	return x.byTrimmedUPC[key]
}

// Placement looks up a record by its placement ID.
func (x *PlanogramIndex) Placement(id domain.PlacementID) (*domain.PlacementRecord, bool) {
	rec, ok := x.byID[id]
	return rec, ok
}

// NextInBay returns the record at position+1 in the same bay, if any.
func (x *PlanogramIndex) NextInBay(rec *domain.PlacementRecord) (*domain.PlacementRecord, bool) {
	if rec == nil || !rec.BayValid {
		return nil, false
	}
	for _, item := range x.byBay[rec.BayNumber] {
		if item.PositionIndex == rec.PositionIndex+1 {
			return item, true
		}
	}
	return nil, false
}

// Len returns the number of records in the planogram.
func (x *PlanogramIndex) Len() int {
	return len(x.records)
}

// sortKey orders candidates by bay then position; unparseable bays go last.
func sortKey(rec *domain.PlacementRecord) (int, int) {
	if !rec.BayValid {
		return math.MaxInt, rec.PositionIndex
	}
	return rec.BayNumber, rec.PositionIndex
}
