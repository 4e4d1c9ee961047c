package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/harpa/backend/internal/domain"
)

func TestCompletionTracker_ToggleUpdatesProgress(t *testing.T) {
	ctx := context.Background()
	idx := matchFixture()
	tracker := NewCompletionTracker(NewMockKeyValueStore(), nil)

	before := tracker.Progress(idx, 3)
	if before.Done != 0 || before.Total != 4 {
		t.Fatalf("Progress(3) = %+v, want 0 of 4", before)
	}

	id := idx.ItemsInBay(3)[0].ID
	state, err := tracker.Toggle(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !state {
		t.Error("first toggle should mark complete")
	}
	if got := tracker.Progress(idx, 3); got.Done != before.Done+1 {
		t.Errorf("Done = %d, want %d", got.Done, before.Done+1)
	}

	state, err = tracker.Toggle(ctx, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state {
		t.Error("second toggle should clear")
	}
	if got := tracker.Progress(idx, 3); got.Done != before.Done {
		t.Errorf("Done = %d, want %d", got.Done, before.Done)
	}
}

func TestCompletionTracker_SiblingFacingsIndependent(t *testing.T) {
	ctx := context.Background()
	idx := matchFixture()
	tracker := NewCompletionTracker(NewMockKeyValueStore(), nil)

	facings := idx.ItemsByCanonicalUPC("999")
	if len(facings) != 2 {
		t.Fatalf("fixture has %d facings of 999, want 2", len(facings))
	}

	if err := tracker.SetComplete(ctx, facings[0].ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !tracker.IsComplete(facings[0].ID) {
		t.Error("completed facing not marked")
	}
	if tracker.IsComplete(facings[1].ID) {
		t.Error("sibling facing was marked too")
	}
}

func TestCompletionTracker_Percent(t *testing.T) {
	ctx := context.Background()
	idx := BuildIndex("P1", []domain.PlacementRecord{
		placementRow("P1", 1, 1, "R01 C01", "11"),
		placementRow("P1", 1, 2, "R01 C05", "12"),
		placementRow("P1", 1, 3, "R01 C09", "13"),
	}, nil)
	tracker := NewCompletionTracker(NewMockKeyValueStore(), nil)

	if got := tracker.Progress(idx, 1); got.Percent != 0 {
		t.Errorf("Percent = %d, want 0", got.Percent)
	}

	_ = tracker.SetComplete(ctx, "P1:1:1", true)
	if got := tracker.Progress(idx, 1); got.Percent != 33 {
		t.Errorf("Percent = %d, want 33", got.Percent)
	}

	_ = tracker.SetComplete(ctx, "P1:1:2", true)
	if got := tracker.OverallProgress(idx); got.Percent != 67 || got.Done != 2 || got.Total != 3 {
		t.Errorf("OverallProgress = %+v, want 2 of 3 at 67%%", got)
	}

	if got := tracker.Progress(idx, 9); got != (domain.Progress{}) {
		t.Errorf("unknown bay progress = %+v, want zero", got)
	}
}

func TestCompletionTracker_PersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	store := NewMockKeyValueStore()

	first := NewCompletionTracker(store, nil)
	if err := first.SetComplete(ctx, "P1:1:1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.data[CompletionKey] != `["P1:1:1"]` {
		t.Errorf("stored %q", store.data[CompletionKey])
	}

	second := NewCompletionTracker(store, nil)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.IsComplete("P1:1:1") {
		t.Error("completion was not restored")
	}
}

func TestCompletionTracker_Load(t *testing.T) {
	ctx := context.Background()

	t.Run("missing key yields empty set", func(t *testing.T) {
		tracker := NewCompletionTracker(NewMockKeyValueStore(), nil)
		if err := tracker.Load(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracker.Completed()) != 0 {
			t.Errorf("Completed() = %v, want empty", tracker.Completed())
		}
	})

	t.Run("malformed content yields empty set", func(t *testing.T) {
		store := NewMockKeyValueStore()
		store.data[CompletionKey] = "{not json"
		tracker := NewCompletionTracker(store, nil)
		if err := tracker.Load(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(tracker.Completed()) != 0 {
			t.Errorf("Completed() = %v, want empty", tracker.Completed())
		}
	})

	t.Run("store failure is an error", func(t *testing.T) {
		store := NewMockKeyValueStore()
		store.getError = errors.New("disk gone")
		tracker := NewCompletionTracker(store, nil)
		if err := tracker.Load(ctx); err == nil {
			t.Error("expected error from failing store")
		}
	})
}

func TestCompletionTracker_Reset(t *testing.T) {
	ctx := context.Background()
	store := NewMockKeyValueStore()
	tracker := NewCompletionTracker(store, nil)

	_ = tracker.SetComplete(ctx, "a", true)
	_ = tracker.SetComplete(ctx, "b", true)
	if err := tracker.Reset(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tracker.Completed()) != 0 {
		t.Errorf("Completed() = %v, want empty", tracker.Completed())
	}
	if store.data[CompletionKey] != "[]" {
		t.Errorf("stored %q, want []", store.data[CompletionKey])
	}
}
