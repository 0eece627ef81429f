package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/service/milk"
)

// MilkService registers animals and records milk.
type MilkService interface {
	CreateAnimal(ctx context.Context, tag string) (models.Animal, error)
	ListAnimals(ctx context.Context) ([]models.Animal, error)
	RecordMilk(ctx context.Context, userID string, entry models.MilkEntry) (models.MilkRecord, models.MilkSession, error)
	Summary(ctx context.Context, q milk.SummaryQuery) (milk.SummaryResult, error)
	Export(ctx context.Context, rangeKind, date string) (int, error)
}

// MilkHandler serves the milk routes.
type MilkHandler struct {
	svc    MilkService
	logger *zap.Logger
}

// NewMilkHandler builds the milk handler.
func NewMilkHandler(svc MilkService, logger *zap.Logger) *MilkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MilkHandler{svc: svc, logger: logger}
}

// CreateAnimal registers an animal tag.
func (h *MilkHandler) CreateAnimal(c *gin.Context) {
	var req struct {
		AnimalTag string `json:"animalTag"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	animal, err := h.svc.CreateAnimal(c.Request.Context(), req.AnimalTag)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Animal created", "animal": animal})
}

// ListAnimals lists every animal.
func (h *MilkHandler) ListAnimals(c *gin.Context) {
	animals, err := h.svc.ListAnimals(c.Request.Context())
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"animals": animals})
}

// Record stores a milking session for the caller.
func (h *MilkHandler) Record(c *gin.Context) {
	var entry models.MilkEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	record, session, err := h.svc.RecordMilk(c.Request.Context(), callerID(c), entry)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Milk recorded", "record": record, "session": session})
}

// Summary returns the milk summary for ?range&date&animalTag&page&limit.
func (h *MilkHandler) Summary(c *gin.Context) {
	result, err := h.svc.Summary(c.Request.Context(), milk.SummaryQuery{
		Range:     c.Query("range"),
		Date:      c.Query("date"),
		AnimalTag: c.Query("animalTag"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	})
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Export appends a window of sessions to the spreadsheet.
func (h *MilkHandler) Export(c *gin.Context) {
	var req struct {
		Range string `json:"range"`
		Date  string `json:"date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	rows, err := h.svc.Export(c.Request.Context(), req.Range, req.Date)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Milk sessions exported", "rows": rows})
}
