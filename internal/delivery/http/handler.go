package http

import (
	"errors"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harpa/backend/internal/domain"
	"github.com/harpa/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers. The session is single-user
// state, so every request that touches it holds mu.
type Handler struct {
	mu      sync.Mutex
	session *usecase.SessionService
	logger  *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(session *usecase.SessionService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{session: session, logger: logger}
}

// ReplaceDataset swaps reloaded data into the session between requests.
func (h *Handler) ReplaceDataset(ds *domain.Dataset) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.session.ReplaceDataset(ds)
}

type selectStoreRequest struct {
	StoreID string `json:"storeId" binding:"required"`
}

type goToBayRequest struct {
	Bay int `json:"bay" binding:"required,min=1"`
}

type stepRequest struct {
	Direction int `json:"direction" binding:"required,oneof=-1 1"`
}

type scanRequest struct {
	Query  string `json:"query" binding:"required"`
	Source string `json:"source" binding:"omitempty,oneof=scanner manual"`
}

type placementRequest struct {
	PlacementID string `json:"placementId" binding:"required"`
}

type layoutQuery struct {
	Width  float64 `form:"width" binding:"required,gt=0"`
	Height float64 `form:"height" binding:"omitempty,gte=0"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "harpa-backend",
		"version": "1.0.0",
	})
}

// GetSession returns the current session snapshot.
func (h *Handler) GetSession(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.JSON(http.StatusOK, h.session.Status())
}

// SelectStore activates a store's planogram.
func (h *Handler) SelectStore(c *gin.Context) {
	var req selectStoreRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	status, err := h.session.SelectStore(c.Request.Context(), req.StoreID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ResetStore forgets the selected store.
func (h *Handler) ResetStore(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.ResetStore(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Status())
}

// ListBays returns the bay list and the bay being displayed.
func (h *Handler) ListBays(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.session.Index() == nil {
		h.fail(c, domain.ErrNoActiveStore)
		return
	}
	st := h.session.Status()
	c.JSON(http.StatusOK, gin.H{
		"bays":        st.Bays,
		"bay":         st.Bay,
		"bayPosition": st.BayPosition,
		"bayCount":    st.BayCount,
	})
}

// GoToBay displays a specific bay.
func (h *Handler) GoToBay(c *gin.Context) {
	var req goToBayRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	status, err := h.session.GoToBay(req.Bay)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// StepBay moves one bay left or right, stopping at the ends.
func (h *Handler) StepBay(c *gin.Context) {
	var req stepRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	status, err := h.session.ChangeBay(req.Direction)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// BayLayout returns pixel geometry for one bay at the caller's viewport.
func (h *Handler) BayLayout(c *gin.Context) {
	bay, ok := h.bayParam(c)
	if !ok {
		return
	}
	var q layoutQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.badRequest(c, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.session.BayLayout(bay, domain.Viewport{Width: q.Width, Height: q.Height})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// BayProgress returns the completion tally for one bay.
func (h *Handler) BayProgress(c *gin.Context) {
	bay, ok := h.bayParam(c)
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.session.Progress(bay)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// OverallProgress returns the completion tally for the whole planogram.
func (h *Handler) OverallProgress(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, err := h.session.OverallProgress()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ClearProgress empties the completion set.
func (h *Handler) ClearProgress(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.session.ClearProgress(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.session.Status())
}

// Scan resolves a scanned or typed barcode. Source defaults to manual.
func (h *Handler) Scan(c *gin.Context) {
	var req scanRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.session.HandleInput(c.Request.Context(), req.Query, req.Source == "scanner")
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// StepMatch moves the cursor through the active match set.
func (h *Handler) StepMatch(c *gin.Context) {
	var req stepRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	sel, err := h.session.AdvanceMatch(req.Direction)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sel)
}

// ClearMatches abandons the active match set.
func (h *Handler) ClearMatches(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.session.ClearMatches()
	c.JSON(http.StatusOK, h.session.Status())
}

// TogglePlacement flips one placement's completion.
func (h *Handler) TogglePlacement(c *gin.Context) {
	var req placementRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.session.ToggleComplete(c.Request.Context(), domain.PlacementID(req.PlacementID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CompleteAndAdvance marks a placement done and selects the next position.
func (h *Handler) CompleteAndAdvance(c *gin.Context) {
	var req placementRequest
	if !h.bind(c, &req) {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	out, err := h.session.CompleteAndAdvance(c.Request.Context(), domain.PlacementID(req.PlacementID))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// PlanogramPDF returns the file name of the active planogram's PDF.
func (h *Handler) PlanogramPDF(c *gin.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()

	name, err := h.session.PlanogramPDF()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"file": name})
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.badRequest(c, err)
		return false
	}
	return true
}

func (h *Handler) bayParam(c *gin.Context) (int, bool) {
	bay, err := strconv.Atoi(c.Param("bay"))
	if err != nil || bay < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bay must be a positive integer"})
		return 0, false
	}
	return bay, true
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request",
		"details": err.Error(),
	})
}

// fail writes err as a JSON error with the status its sentinel maps to.
func (h *Handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreNotFound),
		errors.Is(err, domain.ErrBayNotFound),
		errors.Is(err, domain.ErrPlacementNotFound),
		errors.Is(err, domain.ErrSourceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNoActiveStore),
		errors.Is(err, domain.ErrDuplicateScan),
		errors.Is(err, domain.ErrNoActiveMatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
