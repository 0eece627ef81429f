package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhand/internal/domain/models"
	"github.com/mamadbah2/farmhand/internal/period"
	"github.com/mamadbah2/farmhand/internal/service/attendance"
)

// AttendanceService tracks daily attendance.
type AttendanceService interface {
	UpdateToday(ctx context.Context, userID string, status models.AttendanceStatus) (models.Attendance, error)
	ListMine(ctx context.Context, userID string, page, limit int) (attendance.Page, error)
	DeleteMine(ctx context.Context, userID, id string) error
	List(ctx context.Context, filter period.AttendanceFilter, date string, page, limit int) (attendance.Page, error)
	LatestForUser(ctx context.Context, userID string) (models.Attendance, error)
	UpdateStatus(ctx context.Context, id string, status models.AttendanceStatus) (models.Attendance, error)
}

// AttendanceHandler serves the attendance routes.
type AttendanceHandler struct {
	svc    AttendanceService
	logger *zap.Logger
}

// NewAttendanceHandler builds the attendance handler.
func NewAttendanceHandler(svc AttendanceService, logger *zap.Logger) *AttendanceHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceHandler{svc: svc, logger: logger}
}

type statusRequest struct {
	Status models.AttendanceStatus `json:"status"`
}

// UpdateToday sets the caller's status for today.
func (h *AttendanceHandler) UpdateToday(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	row, err := h.svc.UpdateToday(c.Request.Context(), callerID(c), req.Status)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance updated", "attendance": row})
}

// ListMine lists the caller's rows.
func (h *AttendanceHandler) ListMine(c *gin.Context) {
	page, err := h.svc.ListMine(c.Request.Context(), callerID(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// DeleteMine deletes one of the caller's rows.
func (h *AttendanceHandler) DeleteMine(c *gin.Context) {
	if err := h.svc.DeleteMine(c.Request.Context(), callerID(c), c.Param("id")); err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance deleted"})
}

// List lists every user's rows for ?filter=today|yesterday|custom&date=.
func (h *AttendanceHandler) List(c *gin.Context) {
	page, err := h.svc.List(c.Request.Context(),
		period.AttendanceFilter(c.Query("filter")),
		c.Query("date"),
		queryInt(c, "page"),
		queryInt(c, "limit"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// LatestForUser returns the latest row of the user in :id.
func (h *AttendanceHandler) LatestForUser(c *gin.Context) {
	row, err := h.svc.LatestForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": row})
}

// UpdateStatus changes the status of row :id.
func (h *AttendanceHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	row, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		abortWithError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance updated successfully", "record": row})
}
