package usecase

import (
	"cmp"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/upc"
)

// defaultFuzzyMaxDigits is the longest typed query treated as a partial lookup.
const defaultFuzzyMaxDigits = 4

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	// FuzzyMaxDigits caps the canonical length of keyboard queries that use
	// suffix matching. Scanner input never does.
	FuzzyMaxDigits int
	Logger         *zap.Logger
}

// MatchingService resolves scanned or typed codes to planogram placements.
// It is a pure query over a PlanogramIndex: no state, no side effects.
type MatchingService struct {
	fuzzyMaxDigits int
	logger         *zap.Logger
}

// NewMatchingService creates a new matching service with the given configuration
func NewMatchingService(config MatchConfig) *MatchingService {
	maxDigits := config.FuzzyMaxDigits
	if maxDigits <= 0 {
		maxDigits = defaultFuzzyMaxDigits
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MatchingService{
		fuzzyMaxDigits: maxDigits,
		logger:         logger,
	}
}

// FindCandidates resolves query against idx. Strategies run in a fixed order
// and the first non-empty one wins; results are never merged:
//  1. Delete list (exact strategies only) short-circuits with OutcomeDelete
//  2. Suffix search, keyboard input of at most FuzzyMaxDigits digits only;
//     records on the delete list are skipped
//  3. Exact canonical match
//  4. Query minus its trailing check digit
//  5. Data minus its trailing check digit
//
// Every record matching the winning strategy is returned, sorted by bay then
// position. An empty candidate list is a normal "not found" outcome.
func (s *MatchingService) FindCandidates(query string, idx *PlanogramIndex, fromScanner bool) *domain.MatchResult {
	canonical := upc.Normalize(query)
	result := &domain.MatchResult{
		Query:        query,
		CanonicalUPC: canonical,
		Outcome:      domain.OutcomeNotFound,
	}

	// Input with no digit content would otherwise match on "0".
	if idx == nil || canonical == upc.Zero {
		return result
	}

	if entry := s.findDeleted(canonical, idx); entry != nil {
		s.logger.Debug("query hit delete list",
			zap.String("query", query),
			zap.String("canonical", canonical),
			zap.String("pog", idx.PlanogramID()))
		result.Outcome = domain.OutcomeDelete
		result.DeleteEntry = entry
		return result
	}

	strategy, candidates := s.match(canonical, idx, fromScanner)
	if len(candidates) == 0 {
		s.logger.Debug("query not found",
			zap.String("query", query),
			zap.String("canonical", canonical),
			zap.Bool("fromScanner", fromScanner))
		return result
	}

	candidates = slices.Clone(candidates)
	slices.SortStableFunc(candidates, func(a, b *domain.PlacementRecord) int {
		aBay, aPos := sortKey(a)
		bBay, bPos := sortKey(b)
		if c := cmp.Compare(aBay, bBay); c != 0 {
			return c
		}
		return cmp.Compare(aPos, bPos)
	})

	s.logger.Debug("query matched",
		zap.String("query", query),
		zap.String("canonical", canonical),
		zap.String("strategy", string(strategy)),
		zap.Int("candidates", len(candidates)))

	result.Outcome = domain.OutcomeFound
	result.Strategy = strategy
	result.Candidates = candidates
	return result
}

// match runs the placement strategies in precedence order.
func (s *MatchingService) match(canonical string, idx *PlanogramIndex, fromScanner bool) (domain.Strategy, []*domain.PlacementRecord) {
	if !fromScanner && len(canonical) <= s.fuzzyMaxDigits {
		if found := s.dropDeleted(suffixSearch(canonical, idx), idx); len(found) > 0 {
			return domain.StrategyFuzzySuffix, found
		}
	}

	if found := idx.ItemsByCanonicalUPC(canonical); len(found) > 0 {
		return domain.StrategyExact, found
	}

	if trimmed, ok := upc.DropCheckDigit(canonical); ok {
		if found := idx.ItemsByCanonicalUPC(trimmed); len(found) > 0 {
			return domain.StrategyNoCheckDigit, found
		}
	}

	if found := idx.itemsByTrimmedUPC(canonical); len(found) > 0 {
		return domain.StrategyDataCheckDigit, found
	}

	return domain.StrategyNone, nil
}

// findDeleted checks the planogram's delete list with the three exact strategies.
func (s *MatchingService) findDeleted(canonical string, idx *PlanogramIndex) *domain.DeleteListEntry {
	if entry, ok := idx.deleteByUPC[canonical]; ok {
		return entry
	}
	if trimmed, ok := upc.DropCheckDigit(canonical); ok {
		if entry, ok := idx.deleteByUPC[trimmed]; ok {
			return entry
		}
	}
	if entry, ok := idx.deleteByTrimmedUPC[canonical]; ok {
		return entry
	}
	return nil
}

// dropDeleted removes records that are themselves on the delete list, so a
// partial query never surfaces a discontinued product as a placement.
func (s *MatchingService) dropDeleted(records []*domain.PlacementRecord, idx *PlanogramIndex) []*domain.PlacementRecord {
	return slices.DeleteFunc(records, func(rec *domain.PlacementRecord) bool {
		return s.findDeleted(rec.CanonicalUPC, idx) != nil
	})
}

// suffixSearch returns records whose canonical UPC ends with the query, or
// with the query minus its last digit.
func suffixSearch(canonical string, idx *PlanogramIndex) []*domain.PlacementRecord {
	trimmed, hasTrimmed := upc.DropCheckDigit(canonical)

	var found []*domain.PlacementRecord
	for _, rec := range idx.Records() {
		if strings.HasSuffix(rec.CanonicalUPC, canonical) ||
			(hasTrimmed && strings.HasSuffix(rec.CanonicalUPC, trimmed)) {
			found = append(found, rec)
		}
	}
	return found
}
