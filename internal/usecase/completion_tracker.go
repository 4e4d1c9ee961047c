package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"

	"github.com/harpa/backend/internal/domain"
)

// CompletionKey is the persisted key for the serialized completion set.
const CompletionKey = "harpa_complete"

// CompletionTracker is the set of placements marked done. It is keyed by
// placement ID so sibling facings of one UPC stay independent. Every mutation
// is written back to the store.
type CompletionTracker struct {
	store  domain.KeyValueStore
	done   map[domain.PlacementID]struct{}
	logger *zap.Logger
}

// NewCompletionTracker creates an empty tracker persisted to store.
func NewCompletionTracker(store domain.KeyValueStore, logger *zap.Logger) *CompletionTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompletionTracker{
		store:  store,
		done:   make(map[domain.PlacementID]struct{}),
		logger: logger,
	}
}

// Load replaces the in-memory set with the persisted one. Absent or malformed
// content yields an empty set; only a failing store is an error.
func (t *CompletionTracker) Load(ctx context.Context) error {
	t.done = make(map[domain.PlacementID]struct{})

	raw, err := t.store.Get(ctx, CompletionKey)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load completion set: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		t.logger.Warn("discarding malformed completion set", zap.Error(err))
		return nil
	}
	for _, id := range ids {
		if id != "" {
			t.done[domain.PlacementID(id)] = struct{}{}
		}
	}
	return nil
}

// IsComplete reports whether a placement is marked done.
func (t *CompletionTracker) IsComplete(id domain.PlacementID) bool {
	_, ok := t.done[id]
	return ok
}

// Toggle flips a placement's membership and returns the new state.
func (t *CompletionTracker) Toggle(ctx context.Context, id domain.PlacementID) (bool, error) {
	state := !t.IsComplete(id)
	return state, t.SetComplete(ctx, id, state)
}

// SetComplete sets a placement's membership. Setting the current state again
// changes nothing but still rewrites the store.
func (t *CompletionTracker) SetComplete(ctx context.Context, id domain.PlacementID, complete bool) error {
	if complete {
		t.done[id] = struct{}{}
	} else {
		delete(t.done, id)
	}
	return t.save(ctx)
}

// Reset clears every placement.
func (t *CompletionTracker) Reset(ctx context.Context) error {
	t.done = make(map[domain.PlacementID]struct{})
	return t.save(ctx)
}

// Completed returns the done IDs in sorted order.
func (t *CompletionTracker) Completed() []domain.PlacementID {
	ids := make([]domain.PlacementID, 0, len(t.done))
	for id := range t.done {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Progress folds one bay of the index against the set.
func (t *CompletionTracker) Progress(idx *PlanogramIndex, bay int) domain.Progress {
	if idx == nil {
		return domain.Progress{}
	}
	return t.tally(idx.ItemsInBay(bay))
}

// OverallProgress folds the whole planogram against the set.
func (t *CompletionTracker) OverallProgress(idx *PlanogramIndex) domain.Progress {
	if idx == nil {
		return domain.Progress{}
	}
	return t.tally(idx.Records())
}

func (t *CompletionTracker) tally(items []*domain.PlacementRecord) domain.Progress {
	p := domain.Progress{Total: len(items)}
	for _, item := range items {
		if t.IsComplete(item.ID) {
			p.Done++
		}
	}
	if p.Total > 0 {
		p.Percent = int(math.Round(float64(p.Done) * 100 / float64(p.Total)))
	}
	return p
}

func (t *CompletionTracker) save(ctx context.Context) error {
	data, err := json.Marshal(t.Completed())
	if err != nil {
		return fmt.Errorf("encode completion set: %w", err)
	}
	if err := t.store.Set(ctx, CompletionKey, string(data)); err != nil {
		return fmt.Errorf("save completion set: %w", err)
	}
	return nil
}
