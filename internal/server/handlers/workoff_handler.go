package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// WorkOffService manages work-off allotments and bookings.
type WorkOffService interface {
	SetAllotment(ctx context.Context, month, year, maxDays int) (models.WorkOffAllotment, error)
	MonthlyOverview(ctx context.Context, month, year int, userID string) ([]models.WorkOffDay, error)
	Reschedule(ctx context.Context, id, newDate string) (models.WorkOffDay, error)
	Save(ctx context.Context, userID string, dates []string) (int, error)
	Summary(ctx context.Context, userID string) (models.WorkOffSummary, error)
	MarkUsed(ctx context.Context, userID, date string) (models.WorkOffDay, error)
	Allotment(ctx context.Context) (models.WorkOffAllotment, error)
}

// WorkOffHandler serves the /off routes.
type WorkOffHandler struct {
	svc    WorkOffService
	logger *zap.Logger
}

// NewWorkOffHandler builds the work-off handler.
func NewWorkOffHandler(svc WorkOffService, logger *zap.Logger) *WorkOffHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkOffHandler{svc: svc, logger: logger}
}

// Save books the caller's days.
func (h *WorkOffHandler) Save(c *gin.Context) {
	var req struct {
		Dates []string `json:"dates"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	saved, err := h.svc.Save(c.Request.Context(), callerID(c), req.Dates)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Work-off days saved", "saved": saved})
}

// Summary returns the caller's month.
func (h *WorkOffHandler) Summary(c *gin.Context) {
	summary, err := h.svc.Summary(c.Request.Context(), callerID(c))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// MarkUsed flags the caller's day as taken.
func (h *WorkOffHandler) MarkUsed(c *gin.Context) {
	var req struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	day, err := h.svc.MarkUsed(c.Request.Context(), callerID(c), req.Date)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Marked as used", "record": day})
}

// Allotment returns the current month limit.
func (h *WorkOffHandler) Allotment(c *gin.Context) {
	allotment, err := h.svc.Allotment(c.Request.Context())
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"maxDays": allotment.MaxDays, "month": allotment.Month, "year": allotment.Year})
}

// SetAllotment stores a month limit.
func (h *WorkOffHandler) SetAllotment(c *gin.Context) {
	var req struct {
		Month   int `json:"month"`
		Year    int `json:"year"`
		MaxDays int `json:"maxDays"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	setting, err := h.svc.SetAllotment(c.Request.Context(), req.Month, req.Year, req.MaxDays)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Monthly limit saved", "setting": setting})
}

// Overview lists a month's bookings for ?month&year&userId.
func (h *WorkOffHandler) Overview(c *gin.Context) {
	records, err := h.svc.MonthlyOverview(c.Request.Context(), queryInt(c, "month"), queryInt(c, "year"), c.Query("userId"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

// Reschedule moves booking :id.
func (h *WorkOffHandler) Reschedule(c *gin.Context) {
	var req struct {
		NewDate string `json:"newDate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	day, err := h.svc.Reschedule(c.Request.Context(), c.Param("id"), req.NewDate)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Work-off date updated", "record": day})
}
