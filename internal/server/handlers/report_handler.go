package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/service/reports"
)

// ReportService files and reads work reports.
type ReportService interface {
	Create(ctx context.Context, userID string, in models.WorkReportInput) (models.WorkReport, error)
	Get(ctx context.Context, caller models.Identity, id string) (models.WorkReport, error)
	Update(ctx context.Context, caller models.Identity, id string, fields reports.Update) (models.WorkReport, error)
	Delete(ctx context.Context, caller models.Identity, id string) error
	Overview(ctx context.Context, rangeKind, date string) (reports.Overview, error)
}

// ReportHandler serves the /reports routes.
type ReportHandler struct {
	svc    ReportService
	logger *zap.Logger
}

// NewReportHandler builds the report handler.
func NewReportHandler(svc ReportService, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{svc: svc, logger: logger}
}

// Create files the caller's report.
func (h *ReportHandler) Create(c *gin.Context) {
	var in models.WorkReportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	report, err := h.svc.Create(c.Request.Context(), callerID(c), in)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// Overview groups reports by ?range=day|week|month around ?date.
func (h *ReportHandler) Overview(c *gin.Context) {
	out, err := h.svc.Overview(c.Request.Context(), c.Query("range"), c.Query("date"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Get returns report :id.
func (h *ReportHandler) Get(c *gin.Context) {
	report, err := h.svc.Get(c.Request.Context(), caller(c), c.Param("id"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// Update edits report :id.
func (h *ReportHandler) Update(c *gin.Context) {
	var req struct {
		Title      *string `json:"title"`
		Tasks      *string `json:"tasks"`
		Challenges *string `json:"challenges"`
		NextPlan   *string `json:"nextPlan"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	report, err := h.svc.Update(c.Request.Context(), caller(c), c.Param("id"), reports.Update{
		Title:      req.Title,
		Tasks:      req.Tasks,
		Challenges: req.Challenges,
		NextPlan:   req.NextPlan,
	})
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// Delete removes report :id.
func (h *ReportHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), caller(c), c.Param("id")); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Report deleted successfully"})
}
