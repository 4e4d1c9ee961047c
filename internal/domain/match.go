package domain

// Strategy names the matching rule that produced a candidate list.
type Strategy string

const (
	StrategyNone         Strategy = ""
	StrategyExact        Strategy = "exact"
	StrategyNoCheckDigit Strategy = "no_check_digit"
	// StrategyDataCheckDigit matches when the source data carries a check
	// digit that the scanned code lacks.
	StrategyDataCheckDigit Strategy = "data_check_digit"
	StrategyFuzzySuffix    Strategy = "fuzzy_suffix"
)

// Outcome is the top-level result of resolving one query.
type Outcome string

const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeDelete   Outcome = "delete"
)

// MatchResult is the ordered candidate list for one query.
type MatchResult struct {
	Query        string             `json:"query"`
	CanonicalUPC string             `json:"canonicalUpc"`
	Outcome      Outcome            `json:"outcome"`
	Strategy     Strategy           `json:"strategy,omitempty"`
	Candidates   []*PlacementRecord `json:"candidates"`
	DeleteEntry  *DeleteListEntry   `json:"deleteEntry,omitempty"`
}

// Found reports whether the query resolved to at least one placement.
func (r *MatchResult) Found() bool {
	return r != nil && r.Outcome == OutcomeFound && len(r.Candidates) > 0
}
