package usecase

import (
	"slices"

	"github.com/harpa/backend/internal/domain"
)

// NavState is the match-navigation state of a session.
type NavState string

const (
	NavIdle   NavState = "idle"
	NavSingle NavState = "single"
	NavMulti  NavState = "multi"
)

// Selection is what the renderer must do after a match is selected: switch
// bays first when BayChanged, then highlight Placement.
type Selection struct {
	Placement  *domain.PlacementRecord `json:"placement"`
	Index      int                     `json:"index"`
	Total      int                     `json:"total"`
	Bay        int                     `json:"bay"`
	BayChanged bool                    `json:"bayChanged"`
}

// Navigator sequences bays and the candidates of one match. It is a value
// owned by the session and can be discarded at any time.
type Navigator struct {
	bays   []int
	bayIdx int

	matches []*domain.PlacementRecord
	cursor  int
}

// NewNavigator starts on the first bay of the sorted bay list.
func NewNavigator(bays []int) *Navigator {
	return &Navigator{bays: slices.Clone(bays)}
}

// Bays returns the bay list.
func (n *Navigator) Bays() []int {
	return slices.Clone(n.bays)
}

// CurrentBay returns the displayed bay, or false when the planogram has none.
func (n *Navigator) CurrentBay() (int, bool) {
	if len(n.bays) == 0 {
		return 0, false
	}
	return n.bays[n.bayIdx], true
}

// BayPosition returns the 1-based position of the current bay and the bay count.
func (n *Navigator) BayPosition() (int, int) {
	if len(n.bays) == 0 {
		return 0, 0
	}
	return n.bayIdx + 1, len(n.bays)
}

// ChangeBay moves dir bays, clamped to the ends of the list. It reports
// whether the displayed bay changed.
func (n *Navigator) ChangeBay(dir int) bool {
	if len(n.bays) == 0 {
		return false
	}
	next := min(max(n.bayIdx+dir, 0), len(n.bays)-1)
	if next == n.bayIdx {
		return false
	}
	n.bayIdx = next
	return true
}

// GoToBay displays bay. It reports whether the displayed bay changed and
// returns ErrBayNotFound for a bay outside the planogram.
func (n *Navigator) GoToBay(bay int) (bool, error) {
	i := slices.Index(n.bays, bay)
	if i < 0 {
		return false, domain.ErrBayNotFound
	}
	changed := i != n.bayIdx
	n.bayIdx = i
	return changed, nil
}

// State reports the match-navigation state.
func (n *Navigator) State() NavState {
	switch len(n.matches) {
	case 0:
		return NavIdle
	case 1:
		return NavSingle
	default:
		return NavMulti
	}
}

// SetMatches replaces the active match set and selects its first candidate.
func (n *Navigator) SetMatches(candidates []*domain.PlacementRecord) (*Selection, error) {
	n.matches = slices.Clone(candidates)
	n.cursor = 0
	if len(n.matches) == 0 {
		return nil, domain.ErrNoActiveMatch
	}
	return n.selectCursor(), nil
}

// ClearMatches abandons the active match set.
func (n *Navigator) ClearMatches() {
	n.matches = nil
	n.cursor = 0
}

// AdvanceMatch moves the cursor dir steps, wrapping modulo the match count.
func (n *Navigator) AdvanceMatch(dir int) (*Selection, error) {
	if len(n.matches) == 0 {
		return nil, domain.ErrNoActiveMatch
	}
	count := len(n.matches)
	n.cursor = ((n.cursor+dir)%count + count) % count
	return n.selectCursor(), nil
}

// Current returns the selected match without moving.
func (n *Navigator) Current() (*Selection, bool) {
	if len(n.matches) == 0 {
		return nil, false
	}
	rec := n.matches[n.cursor]
	bay, _ := n.CurrentBay()
	return &Selection{Placement: rec, Index: n.cursor, Total: len(n.matches), Bay: bay}, true
}

// selectCursor switches to the selected record's bay when it is not the one
// on screen.
func (n *Navigator) selectCursor() *Selection {
	rec := n.matches[n.cursor]
	sel := &Selection{Placement: rec, Index: n.cursor, Total: len(n.matches)}

	if rec.BayValid {
		if changed, err := n.GoToBay(rec.BayNumber); err == nil {
			sel.BayChanged = changed
		}
	}
	sel.Bay, _ = n.CurrentBay()
	return sel
}
