package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/layout"
)

const (
	// StoreKey is the persisted key for the active store.
	StoreKey = "harpa_store"
	// LastStoreKey remembers the most recent store across ResetStore, so a
	// later switch to another store still clears progress.
	LastStoreKey = "harpa_last_store"
)

// SessionConfig holds configuration for the session service
type SessionConfig struct {
	Board              layout.Board
	PaddingPx          float64
	FuzzyMaxDigits     int
	AutoCompleteOnScan bool
	ScanDebounce       time.Duration
}

// SessionStatus is a snapshot of what the associate is looking at.
type SessionStatus struct {
	StoreID     string          `json:"storeId,omitempty"`
	PlanogramID string          `json:"pog,omitempty"`
	Bays        []int           `json:"bays"`
	Bay         int             `json:"bay,omitempty"`
	BayPosition int             `json:"bayPosition"`
	BayCount    int             `json:"bayCount"`
	NavState    NavState        `json:"navState"`
	Match       *Selection      `json:"match,omitempty"`
	BayProgress domain.Progress `json:"bayProgress"`
	Progress    domain.Progress `json:"progress"`
}

// ScanOutcome is the result of one scanned or typed query.
type ScanOutcome struct {
	Result        *domain.MatchResult `json:"result"`
	Selection     *Selection          `json:"selection,omitempty"`
	AutoCompleted bool                `json:"autoCompleted"`
	BayProgress   domain.Progress     `json:"bayProgress"`
}

// ToggleResult reports a placement's new state and the affected tallies.
type ToggleResult struct {
	PlacementID domain.PlacementID `json:"placementId"`
	Complete    bool               `json:"complete"`
	BayProgress domain.Progress    `json:"bayProgress"`
	Progress    domain.Progress    `json:"progress"`
}

// AdvanceResult reports the item after a completed one. Next is nil when the
// bay has no following position.
type AdvanceResult struct {
	Completed domain.PlacementID `json:"completed"`
	Next      *Selection         `json:"next,omitempty"`
	Progress  domain.Progress    `json:"bayProgress"`
}

// PlacedItem is one product ready to draw.
type PlacedItem struct {
	Record   *domain.PlacementRecord `json:"record"`
	Geometry domain.Geometry         `json:"geometry"`
	Complete bool                    `json:"complete"`
	Image    string                  `json:"image,omitempty"`
}

// BayLayout is a bay's placements in pixel space.
type BayLayout struct {
	Bay           int             `json:"bay"`
	BayPosition   int             `json:"bayPosition"`
	BayCount      int             `json:"bayCount"`
	PPI           float64         `json:"ppi"`
	BoardWidthPx  float64         `json:"boardWidthPx"`
	BoardHeightPx float64         `json:"boardHeightPx"`
	Items         []PlacedItem    `json:"items"`
	Progress      domain.Progress `json:"progress"`
}

// SessionService owns the state of one associate's session: the selected
// store, its planogram index, bay and match navigation, and completion. It
// is not safe for concurrent use; callers serialize access.
type SessionService struct {
	dataset *domain.Dataset
	files   FileIndex
	store   domain.KeyValueStore
	matcher *MatchingService
	tracker *CompletionTracker
	guard   *ScanGuard
	cfg     SessionConfig
	logger  *zap.Logger

	loaded      bool
	storeID     string
	lastStoreID string
	index       *PlanogramIndex
	nav         *Navigator
}

// NewSessionService creates a session over dataset. Call Restore before use
// to pick up persisted state.
func NewSessionService(
	dataset *domain.Dataset,
	store domain.KeyValueStore,
	cache domain.CacheRepository,
	config SessionConfig,
	logger *zap.Logger,
) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dataset == nil {
		dataset = &domain.Dataset{}
	}
	if config.Board.WidthInches <= 0 || config.Board.HeightInches <= 0 {
		config.Board = layout.DefaultBoard
	}

	return &SessionService{
		dataset: dataset,
		files:   NewFileIndex(dataset.Files),
		store:   store,
		matcher: NewMatchingService(MatchConfig{FuzzyMaxDigits: config.FuzzyMaxDigits, Logger: logger}),
		tracker: NewCompletionTracker(store, logger),
		guard:   NewScanGuard(cache, config.ScanDebounce),
		cfg:     config,
		logger:  logger,
	}
}

// Restore loads the completion set and re-selects the last store, if any,
// without clearing progress. A remembered store that no longer maps is
// forgotten.
func (s *SessionService) Restore(ctx context.Context) (*SessionStatus, error) {
	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	storeID, err := s.store.Get(ctx, StoreKey)
	if errors.Is(err, domain.ErrKeyNotFound) || strings.TrimSpace(storeID) == "" {
		return s.Status(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("restore store: %w", err)
	}

	status, err := s.SelectStore(ctx, storeID)
	if errors.Is(err, domain.ErrStoreNotFound) {
		s.logger.Warn("remembered store no longer mapped", zap.String("store", storeID))
		if delErr := s.store.Delete(ctx, StoreKey); delErr != nil {
			return nil, fmt.Errorf("forget store: %w", delErr)
		}
		return s.Status(), nil
	}
	return status, err
}

// SelectStore activates the planogram mapped to storeID. Switching to a
// different store clears all completion progress.
func (s *SessionService) SelectStore(ctx context.Context, storeID string) (*SessionStatus, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, domain.ErrInvalidRequest
	}

	pog, ok := s.dataset.PlanogramFor(storeID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoreNotFound, storeID)
	}

	if err := s.ensureLoaded(ctx); err != nil {
		return nil, err
	}

	previous := s.lastStoreID
	if previous != "" && previous != storeID {
		if err := s.tracker.Reset(ctx); err != nil {
			return nil, err
		}
		s.logger.Info("store changed, progress cleared",
			zap.String("from", previous), zap.String("to", storeID))
	}

	if err := s.store.Set(ctx, StoreKey, storeID); err != nil {
		return nil, fmt.Errorf("save store: %w", err)
	}
	if err := s.store.Set(ctx, LastStoreKey, storeID); err != nil {
		return nil, fmt.Errorf("save last store: %w", err)
	}

	s.storeID = storeID
	s.lastStoreID = storeID
	s.index = BuildIndex(pog, s.dataset.Placements, s.dataset.DeleteList)
	s.nav = NewNavigator(s.index.AllBays())

	s.logger.Info("store selected",
		zap.String("store", storeID),
		zap.String("pog", pog),
		zap.Int("placements", s.index.Len()),
		zap.Int("bays", len(s.index.AllBays())))

	return s.Status(), nil
}

// ResetStore forgets the selected store. Progress is kept until a different
// store is chosen; the last store stays remembered so that switch is seen.
func (s *SessionService) ResetStore(ctx context.Context) error {
	if err := s.store.Delete(ctx, StoreKey); err != nil && !errors.Is(err, domain.ErrKeyNotFound) {
		return fmt.Errorf("forget store: %w", err)
	}
	s.storeID = ""
	s.index = nil
	s.nav = nil
	return nil
}

// ReplaceDataset swaps in freshly loaded data and rebuilds the active index.
// Placement IDs are derived from the data, so progress carries over for rows
// that did not move.
func (s *SessionService) ReplaceDataset(ds *domain.Dataset) {
	if ds == nil {
		ds = &domain.Dataset{}
	}
	s.dataset = ds
	s.files = NewFileIndex(ds.Files)

	if s.storeID == "" {
		return
	}

	pog, ok := ds.PlanogramFor(s.storeID)
	if !ok {
		s.logger.Warn("active store dropped from reloaded data", zap.String("store", s.storeID))
		s.storeID = ""
		s.index = nil
		s.nav = nil
		return
	}

	bay, hadBay := s.nav.CurrentBay()
	s.index = BuildIndex(pog, ds.Placements, ds.DeleteList)
	s.nav = NewNavigator(s.index.AllBays())
	if hadBay {
		_, _ = s.nav.GoToBay(bay)
	}
	s.logger.Info("dataset reloaded", zap.String("pog", pog), zap.Int("placements", s.index.Len()))
}

// HandleInput resolves one scanned or typed query. A found match becomes the
// active match set and its first candidate is selected; scanner hits are
// marked complete when auto-complete is on. Not-found and delete outcomes
// are returned as results, not errors.
func (s *SessionService) HandleInput(ctx context.Context, text string, fromScanner bool) (*ScanOutcome, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.index == nil {
		return nil, domain.ErrNoActiveStore
	}
	if fromScanner && !s.guard.Admit(ctx, text) {
		return nil, domain.ErrDuplicateScan
	}

	result := s.matcher.FindCandidates(text, s.index, fromScanner)
	out := &ScanOutcome{Result: result}

	if !result.Found() {
		s.nav.ClearMatches()
		out.BayProgress = s.currentBayProgress()
		return out, nil
	}

	sel, err := s.nav.SetMatches(result.Candidates)
	if err != nil {
		return nil, err
	}
	out.Selection = sel

	if fromScanner && s.cfg.AutoCompleteOnScan && !s.tracker.IsComplete(sel.Placement.ID) {
		if err := s.tracker.SetComplete(ctx, sel.Placement.ID, true); err != nil {
			return nil, err
		}
		out.AutoCompleted = true
	}

	out.BayProgress = s.currentBayProgress()
	return out, nil
}

// AdvanceMatch moves through the active match set, wrapping at either end.
func (s *SessionService) AdvanceMatch(dir int) (*Selection, error) {
	if s.nav == nil {
		return nil, domain.ErrNoActiveStore
	}
	return s.nav.AdvanceMatch(dir)
}

// ClearMatches abandons the active match set.
func (s *SessionService) ClearMatches() {
	if s.nav != nil {
		s.nav.ClearMatches()
	}
}

// ChangeBay steps dir bays, clamped at the first and last bay.
func (s *SessionService) ChangeBay(dir int) (*SessionStatus, error) {
	if s.nav == nil {
		return nil, domain.ErrNoActiveStore
	}
	s.nav.ChangeBay(dir)
	return s.Status(), nil
}

// GoToBay displays a specific bay.
func (s *SessionService) GoToBay(bay int) (*SessionStatus, error) {
	if s.nav == nil {
		return nil, domain.ErrNoActiveStore
	}
	if _, err := s.nav.GoToBay(bay); err != nil {
		return nil, err
	}
	return s.Status(), nil
}

// ToggleComplete flips one placement's completion.
func (s *SessionService) ToggleComplete(ctx context.Context, id domain.PlacementID) (*ToggleResult, error) {
	rec, err := s.placement(id)
	if err != nil {
		return nil, err
	}

	state, err := s.tracker.Toggle(ctx, rec.ID)
	if err != nil {
		return nil, err
	}

	return &ToggleResult{
		PlacementID: rec.ID,
		Complete:    state,
		BayProgress: s.tracker.Progress(s.index, rec.BayNumber),
		Progress:    s.tracker.OverallProgress(s.index),
	}, nil
}

// CompleteAndAdvance marks a placement complete and selects the item at the
// next position of the same bay. The sequence ends at the last position; it
// never wraps.
func (s *SessionService) CompleteAndAdvance(ctx context.Context, id domain.PlacementID) (*AdvanceResult, error) {
	rec, err := s.placement(id)
	if err != nil {
		return nil, err
	}

	if err := s.tracker.SetComplete(ctx, rec.ID, true); err != nil {
		return nil, err
	}

	out := &AdvanceResult{
		Completed: rec.ID,
		Progress:  s.tracker.Progress(s.index, rec.BayNumber),
	}

	next, ok := s.index.NextInBay(rec)
	if !ok {
		return out, nil
	}

	sel, err := s.nav.SetMatches([]*domain.PlacementRecord{next})
	if err != nil {
		return nil, err
	}
	out.Next = sel
	return out, nil
}

// Progress returns the completion tally for one bay.
func (s *SessionService) Progress(bay int) (domain.Progress, error) {
	if s.index == nil {
		return domain.Progress{}, domain.ErrNoActiveStore
	}
	if !s.index.HasBay(bay) {
		return domain.Progress{}, domain.ErrBayNotFound
	}
	return s.tracker.Progress(s.index, bay), nil
}

// OverallProgress returns the completion tally for the whole planogram.
func (s *SessionService) OverallProgress() (domain.Progress, error) {
	if s.index == nil {
		return domain.Progress{}, domain.ErrNoActiveStore
	}
	return s.tracker.OverallProgress(s.index), nil
}

// ClearProgress empties the completion set.
func (s *SessionService) ClearProgress(ctx context.Context) error {
	if err := s.ensureLoaded(ctx); err != nil {
		return err
	}
	return s.tracker.Reset(ctx)
}

// IsComplete reports whether a placement is marked done.
func (s *SessionService) IsComplete(id domain.PlacementID) bool {
	return s.tracker.IsComplete(id)
}

// BayLayout places every item of a bay for the given viewport. The scale is
// recomputed from the viewport on every call.
func (s *SessionService) BayLayout(bay int, viewport domain.Viewport) (*BayLayout, error) {
	if s.index == nil {
		return nil, domain.ErrNoActiveStore
	}
	if !s.index.HasBay(bay) {
		return nil, domain.ErrBayNotFound
	}

	width := viewport.Width - s.cfg.PaddingPx
	height := viewport.Height
	if height > 0 {
		height -= s.cfg.PaddingPx
	}
	ppi := layout.FitPPI(width, height, s.cfg.Board)
	if ppi <= 0 {
		return nil, fmt.Errorf("%w: viewport %.0fx%.0f too small", domain.ErrInvalidRequest, viewport.Width, viewport.Height)
	}

	items := s.index.ItemsInBay(bay)
	out := &BayLayout{
		Bay:      bay,
		PPI:      ppi,
		Items:    make([]PlacedItem, 0, len(items)),
		Progress: s.tracker.Progress(s.index, bay),
	}
	out.BoardWidthPx, out.BoardHeightPx = s.cfg.Board.PixelSize(ppi)
	out.BayPosition, out.BayCount = bayPosition(s.index.AllBays(), bay)

	for _, rec := range items {
		image, _ := s.files.FindImage(rec)
		out.Items = append(out.Items, PlacedItem{
			Record:   rec,
			Geometry: layout.PlaceRecord(rec, ppi),
			Complete: s.tracker.IsComplete(rec.ID),
			Image:    image,
		})
	}
	return out, nil
}

// PlanogramPDF returns the PDF file for the active planogram.
func (s *SessionService) PlanogramPDF() (string, error) {
	if s.index == nil {
		return "", domain.ErrNoActiveStore
	}
	name, ok := s.files.FindPlanogramPDF(s.index.PlanogramID())
	if !ok {
		return "", fmt.Errorf("%w: no pdf for %s", domain.ErrSourceNotFound, s.index.PlanogramID())
	}
	return name, nil
}

// Index returns the active planogram index, or nil before a store is selected.
func (s *SessionService) Index() *PlanogramIndex {
	return s.index
}

// Status snapshots the session.
func (s *SessionService) Status() *SessionStatus {
	st := &SessionStatus{StoreID: s.storeID, NavState: NavIdle, Bays: []int{}}
	if s.index == nil {
		return st
	}

	st.PlanogramID = s.index.PlanogramID()
	st.Bays = s.nav.Bays()
	st.Bay, _ = s.nav.CurrentBay()
	st.BayPosition, st.BayCount = s.nav.BayPosition()
	st.NavState = s.nav.State()
	if sel, ok := s.nav.Current(); ok {
		st.Match = sel
	}
	st.BayProgress = s.currentBayProgress()
	st.Progress = s.tracker.OverallProgress(s.index)
	return st
}

func (s *SessionService) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	if err := s.tracker.Load(ctx); err != nil {
		return err
	}

	last, err := s.readStoreKey(ctx, LastStoreKey)
	if err != nil {
		return err
	}
	// Older state only carries the active store key.
	if last == "" {
		if last, err = s.readStoreKey(ctx, StoreKey); err != nil {
			return err
		}
	}
	s.lastStoreID = last
	s.loaded = true
	return nil
}

func (s *SessionService) readStoreKey(ctx context.Context, key string) (string, error) {
	value, err := s.store.Get(ctx, key)
	if errors.Is(err, domain.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return strings.TrimSpace(value), nil
}

func (s *SessionService) placement(id domain.PlacementID) (*domain.PlacementRecord, error) {
	if s.index == nil {
		return nil, domain.ErrNoActiveStore
	}
	rec, ok := s.index.Placement(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrPlacementNotFound, id)
	}
	return rec, nil
}

func (s *SessionService) currentBayProgress() domain.Progress {
	bay, ok := s.nav.CurrentBay()
	if !ok {
		return domain.Progress{}
	}
	return s.tracker.Progress(s.index, bay)
}

func bayPosition(bays []int, bay int) (int, int) {
	for i, b := range bays {
		if b == bay {
			return i + 1, len(bays)
		}
	}
	return 0, len(bays)
}
