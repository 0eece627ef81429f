package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
)

// SummaryService generates and lists AI summaries.
type SummaryService interface {
	Generate(ctx context.Context, summaryType models.SummaryType) (models.ReportSummary, error)
	List(ctx context.Context, summaryType models.SummaryType) ([]models.ReportSummary, error)
}

// SummaryHandler serves the /summaries routes.
type SummaryHandler struct {
	svc    SummaryService
	logger *zap.Logger
}

// NewSummaryHandler builds the summary handler.
func NewSummaryHandler(svc SummaryService, logger *zap.Logger) *SummaryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryHandler{svc: svc, logger: logger}
}

// Generate creates or refreshes the summary of /:type.
func (h *SummaryHandler) Generate(c *gin.Context) {
	summary, err := h.svc.Generate(c.Request.Context(), models.SummaryType(c.Param("type")))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Summary generated", "summary": summary})
}

// List returns the summaries of ?type.
func (h *SummaryHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), models.SummaryType(c.Query("type")))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": list})
}
