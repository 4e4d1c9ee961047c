package usecase

import (
	"errors"
	"testing"

	"github.com/harpa/backend/internal/domain"
)

func TestNavigator_ChangeBayClamps(t *testing.T) {
	nav := NewNavigator([]int{1, 2, 4})

	if bay, _ := nav.CurrentBay(); bay != 1 {
		t.Fatalf("starts on bay %d, want 1", bay)
	}
	if nav.ChangeBay(-1) {
		t.Error("moving before the first bay should not change")
	}

	nav.ChangeBay(1)
	nav.ChangeBay(1)
	if bay, _ := nav.CurrentBay(); bay != 4 {
		t.Errorf("CurrentBay() = %d, want 4", bay)
	}
	if nav.ChangeBay(1) {
		t.Error("moving past the last bay should not change")
	}

	pos, count := nav.BayPosition()
	if pos != 3 || count != 3 {
		t.Errorf("BayPosition() = %d of %d, want 3 of 3", pos, count)
	}
}

func TestNavigator_GoToBay(t *testing.T) {
	nav := NewNavigator([]int{1, 2, 4})

	changed, err := nav.GoToBay(4)
	if err != nil || !changed {
		t.Errorf("GoToBay(4) = %v, %v", changed, err)
	}

	if _, err := nav.GoToBay(3); !errors.Is(err, domain.ErrBayNotFound) {
		t.Errorf("error = %v, want ErrBayNotFound", err)
	}
	if bay, _ := nav.CurrentBay(); bay != 4 {
		t.Errorf("failed GoToBay moved to %d", bay)
	}
}

func TestNavigator_EmptyPlanogram(t *testing.T) {
	nav := NewNavigator(nil)

	if _, ok := nav.CurrentBay(); ok {
		t.Error("CurrentBay() reported a bay for an empty planogram")
	}
	if nav.ChangeBay(1) {
		t.Error("ChangeBay changed on an empty planogram")
	}
}

func TestNavigator_MatchCycle(t *testing.T) {
	idx := matchFixture()
	nav := NewNavigator(idx.AllBays())
	candidates := idx.ItemsByCanonicalUPC("999")

	if nav.State() != NavIdle {
		t.Errorf("State() = %q, want idle", nav.State())
	}

	sel, err := nav.SetMatches(candidates)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.State() != NavMulti || sel.Index != 0 || sel.Total != 2 || sel.Bay != 1 {
		t.Errorf("first selection = %+v, state %q", sel, nav.State())
	}

	sel, _ = nav.AdvanceMatch(1)
	if sel.Index != 1 || sel.Bay != 2 || !sel.BayChanged {
		t.Errorf("after next = %+v, want index 1 on bay 2 with bay change", sel)
	}

	sel, _ = nav.AdvanceMatch(1)
	if sel.Index != 0 || sel.Bay != 1 {
		t.Errorf("next should wrap to index 0, got %+v", sel)
	}

	sel, _ = nav.AdvanceMatch(-1)
	if sel.Index != 1 {
		t.Errorf("previous should wrap to index 1, got %+v", sel)
	}

	nav.ClearMatches()
	if nav.State() != NavIdle {
		t.Errorf("State() after clear = %q, want idle", nav.State())
	}
	if _, err := nav.AdvanceMatch(1); !errors.Is(err, domain.ErrNoActiveMatch) {
		t.Errorf("error = %v, want ErrNoActiveMatch", err)
	}
}

func TestNavigator_SingleMatchStaysPut(t *testing.T) {
	idx := matchFixture()
	nav := NewNavigator(idx.AllBays())

	sel, err := nav.SetMatches(idx.ItemsByCanonicalUPC("70000000012"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if nav.State() != NavSingle || sel.Bay != 3 || !sel.BayChanged {
		t.Errorf("selection = %+v, state %q", sel, nav.State())
	}

	again, _ := nav.AdvanceMatch(1)
	if again.Placement != sel.Placement || again.BayChanged {
		t.Errorf("advancing a single match moved: %+v", again)
	}
}

func TestNavigator_SetMatchesEmpty(t *testing.T) {
	nav := NewNavigator([]int{1})
	if _, err := nav.SetMatches(nil); !errors.Is(err, domain.ErrNoActiveMatch) {
		t.Errorf("error = %v, want ErrNoActiveMatch", err)
	}
}
